package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

func TestGetToolDefinitions(t *testing.T) {
	r, _ := newTestRegistry(t)
	defs := r.GetToolDefinitions()
	if len(defs) != 21 {
		t.Errorf("got %d tools, want 21", len(defs))
	}

	seen := make(map[string]bool)
	for _, def := range defs {
		t.Run(def.Name, func(t *testing.T) {
			if seen[def.Name] {
				t.Errorf("duplicate tool %s", def.Name)
			}
			seen[def.Name] = true

			if !strings.HasPrefix(def.Name, "zurich_") {
				t.Errorf("tool name %q lacks the zurich_ prefix", def.Name)
			}
			if def.Tool.Name != def.Name {
				t.Errorf("Tool.Name = %q, want %q", def.Tool.Name, def.Name)
			}
			if def.Tool.Description == "" || def.Handler == nil {
				t.Error("tool has no description or handler")
			}
			ann := def.Tool.Annotations
			if ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint || ann.DestructiveHint == nil || *ann.DestructiveHint {
				t.Error("tool is not annotated read-only and non-destructive")
			}
			for _, req := range def.Tool.InputSchema.Required {
				if _, ok := def.Tool.InputSchema.Properties[req]; !ok {
					t.Errorf("required parameter %s has no schema", req)
				}
			}
		})
	}
}

// Every handler validates its arguments before contacting an upstream.
func TestHandlersRejectUnknownParameters(t *testing.T) {
	r, u := newTestRegistry(t)
	for _, def := range r.GetToolDefinitions() {
		t.Run(def.Name, func(t *testing.T) {
			res, err := def.Handler(context.Background(), newRequest(def.Name, map[string]any{"bogus": true}))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !res.IsError {
				t.Fatalf("unknown parameter accepted: %s", resultText(t, res))
			}
			assertContains(t, resultText(t, res), "bogus: unbekannter Parameter")
		})
	}
	if n := len(u.Requests()); n != 0 {
		t.Errorf("invalid calls reached the upstream %d times", n)
	}
}

func TestRegisterTools(t *testing.T) {
	r, _ := newTestRegistry(t)
	s := server.NewMCPServer("test", "1.0", server.WithToolCapabilities(false))
	r.RegisterTools(s)

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got, want := len(decoded.Result.Tools), len(r.GetToolDefinitions()); got != want {
		t.Errorf("tools/list returned %d tools, want %d", got, want)
	}
}
