package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/testutil"
	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

func newTestRegistry(t *testing.T) (*Registry, *testutil.Upstream) {
	t.Helper()
	u := testutil.NewUpstream(t)
	limits := make(map[string]zurich.RateLimit)
	for service := range zurich.DefaultRateLimits() {
		limits[service] = zurich.RateLimit{}
	}
	client := zurich.NewClient(zurich.Options{
		Endpoints: zurich.Endpoints{
			CKAN:     u.URL,
			ParkenDD: u.URL + "/Zuerich",
			WFS:      u.URL + "/wfs/geoportal",
			Paris:    u.URL + "/api",
			Tourism:  u.URL + "/en/api/v2/data",
			SPARQL:   u.URL + "/query",
		},
		RateLimits: limits,
		Logger:     testutil.DiscardLogger(),
	})
	return NewRegistry(testutil.DiscardLogger(), client), u
}

func newRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil {
		t.Fatal("nil result")
	}
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// run calls h and fails the test on a Go error.
func run(t *testing.T, h handlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	res, err := h(context.Background(), newRequest("test", args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return resultText(t, res), res.IsError
}

func assertContains(t *testing.T, text string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Errorf("output missing %q:\n%s", w, text)
		}
	}
}

func assertNotContains(t *testing.T, text string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(text, w) {
			t.Errorf("output unexpectedly contains %q:\n%s", w, text)
		}
	}
}
