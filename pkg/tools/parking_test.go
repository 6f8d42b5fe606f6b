package tools

import (
	"net/http"
	"strings"
	"testing"
)

func TestHandleParkingLive(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON("/Zuerich", `{"last_updated":"2025-06-01T12:00:00","lots":[
		{"name":"Urania","free":10,"total":100,"state":"open"},
		{"name":"Accu","free":0,"total":0,"state":"closed"},
		{"name":"","free":5,"total":10,"state":""}
	]}`)

	text, isErr := run(t, r.HandleParkingLive, nil)
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	assertContains(t, text,
		"## Parkplatzbelegung Zürich",
		"*Stand: 2025-06-01T12:00:00*",
		"| Urania | 10 | 100 | 90% | 🟢 open |",
		"| Accu | 0 | 0 | 0% | 🔴 closed |",
		"| ? | 5 | 10 | 50% | 🔴 ? |",
		"**Gesamt**: 3 Parkhäuser",
	)
	if strings.Index(text, "Accu") > strings.Index(text, "Urania") {
		t.Error("lots not sorted by name")
	}
}

func TestHandleParkingLiveFailure(t *testing.T) {
	r, u := newTestRegistry(t)
	u.Status("/Zuerich", http.StatusServiceUnavailable)

	text, isErr := run(t, r.HandleParkingLive, nil)
	if !isErr {
		t.Fatal("expected error result")
	}
	assertContains(t, text, "HTTP-Fehler 503")

	text, isErr = run(t, r.HandleParkingLive, map[string]any{"city": "Bern"})
	if !isErr {
		t.Fatal("unknown parameter accepted")
	}
	assertContains(t, text, "city: unbekannter Parameter")
}
