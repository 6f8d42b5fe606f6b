package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/schulamt-zurich/zurichmcp/pkg/config"
	"github.com/schulamt-zurich/zurichmcp/pkg/testutil"
	"github.com/schulamt-zurich/zurichmcp/pkg/tools"
)

// testConfig points every upstream at u and disables rate limits.
func testConfig(u *testutil.Upstream) *config.Config {
	cfg := config.Default()
	cfg.Upstream.Endpoints = config.EndpointsConfig{
		CKAN:     u.URL,
		ParkenDD: u.URL + "/Zuerich",
		WFS:      u.URL + "/wfs/geoportal",
		Paris:    u.URL + "/api",
		Tourism:  u.URL + "/en/api/v2/data",
		SPARQL:   u.URL + "/query",
	}
	for service := range cfg.RateLimits {
		cfg.RateLimits[service] = config.RateLimitConfig{}
	}
	return &cfg
}

// rpcResponse is the subset of a JSON-RPC response the tests inspect.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, s *Server, msg string) rpcResponse {
	t.Helper()
	out := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal response %s: %v", raw, err)
	}
	return resp
}

func newTestServer(t *testing.T) (*Server, *testutil.Upstream) {
	t.Helper()
	u := testutil.NewUpstream(t)
	s, err := NewServer(testConfig(u), testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s, u
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t)
	if s == nil || s.MCPServer() == nil {
		t.Fatal("NewServer() returned nil server")
	}
}

func TestNewServerInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Transport = "carrier-pigeon"
	if _, err := NewServer(&cfg, testutil.DiscardLogger()); err == nil {
		t.Fatal("expected error for invalid transport")
	}
}

func TestServer_ListTools(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if resp.Error != nil {
		t.Fatalf("tools/list error: %+v", resp.Error)
	}

	var result struct {
		Tools []struct {
			Name        string `json:"name"`
			Annotations struct {
				ReadOnlyHint *bool `json:"readOnlyHint"`
			} `json:"annotations"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode tools: %v", err)
	}

	want := tools.NewRegistry(testutil.DiscardLogger(), nil).GetToolDefinitions()
	if len(result.Tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(result.Tools), len(want))
	}
	got := make(map[string]bool)
	for _, tool := range result.Tools {
		got[tool.Name] = true
		if tool.Annotations.ReadOnlyHint == nil || !*tool.Annotations.ReadOnlyHint {
			t.Errorf("tool %s is not annotated read-only", tool.Name)
		}
	}
	for _, def := range want {
		if !got[def.Name] {
			t.Errorf("tool %s not registered", def.Name)
		}
	}
}

func TestServer_ListResources(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, `{"jsonrpc":"2.0","id":2,"method":"resources/list"}`)
	if resp.Error != nil {
		t.Fatalf("resources/list error: %+v", resp.Error)
	}
	for _, uri := range []string{tools.ParkingResourceURI, tools.TourismCategoriesResourceURI} {
		if !strings.Contains(string(resp.Result), uri) {
			t.Errorf("resources/list missing %s", uri)
		}
	}

	resp = call(t, s, `{"jsonrpc":"2.0","id":3,"method":"resources/templates/list"}`)
	if resp.Error != nil {
		t.Fatalf("resources/templates/list error: %+v", resp.Error)
	}
	for _, tmpl := range []string{"zurich://dataset/{name}", "zurich://category/{group_id}", "zurich://geo/{layer_id}", "zurich://datastore/{resource_id}"} {
		if !strings.Contains(string(resp.Result), tmpl) {
			t.Errorf("resources/templates/list missing %s", tmpl)
		}
	}
}

func TestServer_ListPrompts(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, `{"jsonrpc":"2.0","id":4,"method":"prompts/list"}`)
	if resp.Error != nil {
		t.Fatalf("prompts/list error: %+v", resp.Error)
	}
	for _, name := range []string{"zurich_data_exploration", "zurich_sparql_examples"} {
		if !strings.Contains(string(resp.Result), name) {
			t.Errorf("prompts/list missing %s", name)
		}
	}
}

func TestServer_CallTool(t *testing.T) {
	s, u := newTestServer(t)
	u.JSON("/Zuerich", `{"last_updated":"2025-01-01T10:00:00","lots":[{"name":"Urania","free":10,"total":100,"state":"open"}]}`)

	resp := call(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"zurich_parking_live","arguments":{}}}`)
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}

	var result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result.Content)
	}
	if len(result.Content) == 0 || !strings.Contains(result.Content[0].Text, "| Urania | 10 | 100 | 90% | 🟢 open |") {
		t.Errorf("unexpected content: %+v", result.Content)
	}
}

func TestServer_DefaultConfigReadsFreshData(t *testing.T) {
	s, u := newTestServer(t)
	const msg = `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"zurich_list_tags","arguments":{}}}`
	const tagList = "/api/3/action/tag_list"

	u.JSON(tagList, `{"success":true,"result":["schule"]}`)
	first := call(t, s, msg)
	u.JSON(tagList, `{"success":true,"result":["schule","velo"]}`)
	second := call(t, s, msg)

	if first.Error != nil || second.Error != nil {
		t.Fatalf("tools/call errors: %+v, %+v", first.Error, second.Error)
	}
	if n := u.Count(tagList); n != 2 {
		t.Errorf("upstream requests = %d, want 2", n)
	}
	if !strings.Contains(string(second.Result), "velo") {
		t.Errorf("second call served stale data: %s", second.Result)
	}
}

func TestServer_UpstreamFailureLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	u := testutil.NewUpstream(t)
	u.Status("/Zuerich", http.StatusBadGateway)
	s, err := NewServer(testConfig(u), testutil.NewTestLogger(&buf))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	call(t, s, `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"zurich_parking_live","arguments":{}}}`)

	var callID, failureID string
	for _, line := range strings.Split(buf.String(), "\n") {
		id := logValue(line, "request_id")
		switch {
		case strings.Contains(line, "tool call returned error result"):
			callID = id
		case strings.Contains(line, "upstream call failed"):
			failureID = id
		}
	}
	if callID == "" || failureID != callID {
		t.Errorf("upstream failure logged request_id %q, tool call %q:\n%s", failureID, callID, buf.String())
	}
}

// logValue extracts key=value from a slog text line.
func logValue(line, key string) string {
	for _, field := range strings.Fields(line) {
		if v, ok := strings.CutPrefix(field, key+"="); ok {
			return v
		}
	}
	return ""
}

func TestServer_ReadResource(t *testing.T) {
	s, u := newTestServer(t)

	resp := call(t, s, `{"jsonrpc":"2.0","id":6,"method":"resources/read","params":{"uri":"zurich://geo/atlantis"}}`)
	if resp.Error != nil {
		t.Fatalf("resources/read error: %+v", resp.Error)
	}
	if !strings.Contains(string(resp.Result), `Unknown layer: atlantis`) {
		t.Errorf("unexpected result: %s", resp.Result)
	}
	if n := len(u.Requests()); n != 0 {
		t.Errorf("unknown layer hit the upstream %d times", n)
	}
}

func TestServer_ServeStdio(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}` + "\n")
	var out bytes.Buffer
	if err := s.ServeStdio(ctx, in, &out); err != nil {
		t.Fatalf("ServeStdio() error = %v", err)
	}
	if !strings.Contains(out.String(), ServerName) {
		t.Errorf("initialize response missing server name: %s", out.String())
	}
}
