package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// arguments reads and validates tool call arguments. Every accessor records
// its parameter name; problems are collected and reported together by invalid.
type arguments struct {
	raw      map[string]any
	seen     map[string]bool
	problems []string
}

func newArguments(req mcp.CallToolRequest) *arguments {
	return &arguments{
		raw:  req.GetArguments(),
		seen: make(map[string]bool),
	}
}

func (a *arguments) problem(name, format string, args ...any) {
	a.problems = append(a.problems, fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)))
}

// lookup returns the raw value of name. JSON null counts as absent.
func (a *arguments) lookup(name string) (any, bool) {
	a.seen[name] = true
	v, ok := a.raw[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (a *arguments) text(name string) (string, bool) {
	v, ok := a.lookup(name)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		a.problem(name, "muss ein Text sein")
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		a.problem(name, "muss ein Text sein")
		return "", false
	}
	return strings.TrimSpace(s), true
}

// requiredString returns a trimmed string whose rune length lies in [minLen, maxLen].
// maxLen <= 0 means unbounded.
func (a *arguments) requiredString(name string, minLen, maxLen int) string {
	s, ok := a.text(name)
	if !ok {
		if _, present := a.raw[name]; !present || a.raw[name] == nil {
			a.problem(name, "Pflichtfeld fehlt")
		}
		return ""
	}
	a.checkLength(name, s, minLen, maxLen)
	return s
}

// optionalString returns a trimmed string or "" when absent.
func (a *arguments) optionalString(name string, maxLen int) string {
	s, ok := a.text(name)
	if !ok {
		return ""
	}
	if s != "" {
		a.checkLength(name, s, 0, maxLen)
	}
	return s
}

func (a *arguments) checkLength(name, s string, minLen, maxLen int) {
	n := len([]rune(s))
	if n < minLen {
		if minLen == 1 {
			a.problem(name, "darf nicht leer sein")
		} else {
			a.problem(name, "muss mindestens %d Zeichen lang sein", minLen)
		}
	}
	if maxLen > 0 && n > maxLen {
		a.problem(name, "darf höchstens %d Zeichen lang sein", maxLen)
	}
}

// choice returns an optional string that must be one of allowed, or def when absent.
func (a *arguments) choice(name, def string, allowed ...string) string {
	s, ok := a.text(name)
	if !ok || s == "" {
		return def
	}
	for _, v := range allowed {
		if strings.EqualFold(s, v) {
			return v
		}
	}
	a.problem(name, "erlaubt sind %s", strings.Join(allowed, ", "))
	return def
}

func (a *arguments) number(name string) (float64, bool) {
	v, ok := a.lookup(name)
	if !ok {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		a.problem(name, "muss eine Zahl sein")
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		a.problem(name, "muss eine Zahl sein")
		return 0, false
	}
	return f, true
}

// optionalInt returns an integer in [min, max] when present.
func (a *arguments) optionalInt(name string, min, max int) (int, bool) {
	f, ok := a.number(name)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		a.problem(name, "muss eine ganze Zahl sein")
		return 0, false
	}
	if f < float64(min) || f > float64(max) {
		if max == maxInt {
			a.problem(name, "muss mindestens %d sein", min)
		} else {
			a.problem(name, "muss zwischen %d und %d liegen", min, max)
		}
		return 0, false
	}
	n := int(f)
	return n, true
}

// integer returns an integer in [min, max], or def when absent.
func (a *arguments) integer(name string, def, min, max int) int {
	n, ok := a.optionalInt(name, min, max)
	if !ok {
		return def
	}
	return n
}

// optionalFloat returns a number in [min, max] when present.
func (a *arguments) optionalFloat(name string, min, max float64) (float64, bool) {
	f, ok := a.number(name)
	if !ok {
		return 0, false
	}
	if f < min || f > max {
		a.problem(name, "muss zwischen %g und %g liegen", min, max)
		return 0, false
	}
	return f, true
}

// boolean returns a boolean or def when absent.
func (a *arguments) boolean(name string, def bool) bool {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		a.problem(name, "muss true oder false sein")
		return def
	}
	return b
}

// invalid returns a validation error result when any accessor failed or the call
// carried parameters the tool does not know. It returns nil otherwise.
func (a *arguments) invalid() *mcp.CallToolResult {
	var unknown []string
	for name := range a.raw {
		if !a.seen[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		a.problem(name, "unbekannter Parameter")
	}
	if len(a.problems) == 0 {
		return nil
	}
	return ErrorResponse("Ungültige Parameter:\n- " + strings.Join(a.problems, "\n- "))
}
