package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Response is a canned answer of a fake upstream.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// RecordedRequest is a request received by a fake upstream.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// Upstream is a fake HTTP service answering by request path.
// Unknown paths get a 404. The server is closed when the test ends.
type Upstream struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Response
	requests []RecordedRequest
}

// NewUpstream starts a fake upstream for t.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	u := &Upstream{routes: make(map[string]Response)}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// Handle registers the response for path.
func (u *Upstream) Handle(path string, r Response) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = r
}

// JSON answers path with status 200 and a JSON body.
func (u *Upstream) JSON(path, body string) {
	u.Handle(path, Response{Status: http.StatusOK, ContentType: "application/json", Body: body})
}

// XML answers path with status 200 and an XML body.
func (u *Upstream) XML(path, body string) {
	u.Handle(path, Response{Status: http.StatusOK, ContentType: "application/xml; charset=utf-8", Body: body})
}

// Status answers path with an empty body and the given status.
func (u *Upstream) Status(path string, status int) {
	u.Handle(path, Response{Status: status, ContentType: "text/plain"})
}

// Requests returns the requests received so far.
func (u *Upstream) Requests() []RecordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]RecordedRequest, len(u.requests))
	copy(out, u.requests)
	return out
}

// Count returns how many requests hit path.
func (u *Upstream) Count(path string) int {
	n := 0
	for _, r := range u.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for path.
func (u *Upstream) Last(path string) (RecordedRequest, bool) {
	reqs := u.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, RecordedRequest{
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})
	resp, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp.Body))
}
