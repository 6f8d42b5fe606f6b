package tools

import (
	"strings"
	"testing"
)

func TestArgumentsRequiredString(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		problem string
	}{
		{"present", map[string]any{"query": "  velo  "}, "velo", ""},
		{"missing", map[string]any{}, "", "query: Pflichtfeld fehlt"},
		{"null", map[string]any{"query": nil}, "", "query: Pflichtfeld fehlt"},
		{"blank", map[string]any{"query": "   "}, "", "query: darf nicht leer sein"},
		{"too long", map[string]any{"query": strings.Repeat("a", 11)}, strings.Repeat("a", 11), "höchstens 10 Zeichen"},
		{"object", map[string]any{"query": map[string]any{"a": 1}}, "", "query: muss ein Text sein"},
		{"number", map[string]any{"query": 42}, "42", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArguments(newRequest("t", tt.args))
			got := a.requiredString("query", 1, 10)
			if got != tt.want {
				t.Errorf("requiredString() = %q, want %q", got, tt.want)
			}
			res := a.invalid()
			if tt.problem == "" {
				if res != nil {
					t.Errorf("unexpected problems: %s", resultText(t, res))
				}
				return
			}
			if res == nil || !res.IsError {
				t.Fatalf("expected validation error containing %q", tt.problem)
			}
			assertContains(t, resultText(t, res), "Ungültige Parameter:", tt.problem)
		})
	}
}

func TestArgumentsNumbers(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		problem string
	}{
		{"default", nil, 10, ""},
		{"float64", float64(25), 25, ""},
		{"int", 7, 7, ""},
		{"numeric string", "12", 12, ""},
		{"fraction", 2.5, 10, "muss eine ganze Zahl sein"},
		{"below", 0, 10, "muss zwischen 1 und 100 liegen"},
		{"above", 101, 10, "muss zwischen 1 und 100 liegen"},
		{"bool", true, 10, "muss eine Zahl sein"},
		{"garbage", "viele", 10, "muss eine Zahl sein"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.value != nil {
				args["rows"] = tt.value
			}
			a := newArguments(newRequest("t", args))
			if got := a.integer("rows", 10, 1, 100); got != tt.want {
				t.Errorf("integer() = %d, want %d", got, tt.want)
			}
			res := a.invalid()
			if tt.problem == "" {
				if res != nil {
					t.Errorf("unexpected problems: %s", resultText(t, res))
				}
				return
			}
			if res == nil {
				t.Fatalf("expected problem %q", tt.problem)
			}
			assertContains(t, resultText(t, res), tt.problem)
		})
	}
}

func TestArgumentsUnboundedOffset(t *testing.T) {
	a := newArguments(newRequest("t", map[string]any{"offset": -1}))
	a.integer("offset", 0, 0, maxInt)
	res := a.invalid()
	if res == nil {
		t.Fatal("expected problem for negative offset")
	}
	assertContains(t, resultText(t, res), "offset: muss mindestens 0 sein")
}

func TestArgumentsFloatChoiceBoolean(t *testing.T) {
	a := newArguments(newRequest("t", map[string]any{
		"latitude": 47.37,
		"lang":     "DE",
		"active":   "false",
	}))
	if lat, ok := a.optionalFloat("latitude", -90, 90); !ok || lat != 47.37 {
		t.Errorf("optionalFloat() = %v, %v", lat, ok)
	}
	if _, ok := a.optionalFloat("longitude", -180, 180); ok {
		t.Error("optionalFloat() reported absent parameter as present")
	}
	if got := a.choice("lang", "en", "de", "en", "fr", "it"); got != "de" {
		t.Errorf("choice() = %q, want de", got)
	}
	if got := a.boolean("active", true); got {
		t.Error("boolean() = true, want false")
	}
	if res := a.invalid(); res != nil {
		t.Errorf("unexpected problems: %s", resultText(t, res))
	}

	a = newArguments(newRequest("t", map[string]any{"lang": "es", "latitude": 91.0}))
	a.choice("lang", "en", "de", "en")
	a.optionalFloat("latitude", -90, 90)
	res := a.invalid()
	if res == nil {
		t.Fatal("expected problems")
	}
	assertContains(t, resultText(t, res), "lang: erlaubt sind de, en", "latitude: muss zwischen -90 und 90 liegen")
}

func TestArgumentsUnknownParameters(t *testing.T) {
	a := newArguments(newRequest("t", map[string]any{"query": "velo", "zeta": 1, "alpha": 2}))
	a.requiredString("query", 1, 0)
	res := a.invalid()
	if res == nil {
		t.Fatal("expected unknown parameter problems")
	}
	text := resultText(t, res)
	assertContains(t, text, "alpha: unbekannter Parameter", "zeta: unbekannter Parameter")
	if strings.Index(text, "alpha") > strings.Index(text, "zeta") {
		t.Errorf("unknown parameters not sorted:\n%s", text)
	}
}
