package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

const (
	unknown      = "Unbekannt"
	missingValue = "–"
)

// formatDatasetSummary renders a dataset as a Markdown block.
func formatDatasetSummary(ds zurich.Dataset, url string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", orDefault(ds.Title, unknown))
	fmt.Fprintf(&b, "- **ID**: `%s`\n", ds.Name)
	fmt.Fprintf(&b, "- **Autor**: %s\n", orDefault(ds.Author, unknown))
	fmt.Fprintf(&b, "- **Lizenz**: %s\n", orDefault(ds.LicenseTitle, unknown))
	fmt.Fprintf(&b, "- **Ressourcen**: %d\n", ds.NumResources)
	fmt.Fprintf(&b, "- **Letzte Änderung**: %s\n", truncate(ds.MetadataModified, 10))

	if len(ds.UpdateInterval) > 0 {
		fmt.Fprintf(&b, "- **Aktualisierung**: %s\n", strings.Join(ds.UpdateInterval, ", "))
	}
	if len(ds.Groups) > 0 {
		groups := make([]string, 0, len(ds.Groups))
		for _, g := range ds.Groups {
			groups = append(groups, orDefault(g.Title, g.Name))
		}
		fmt.Fprintf(&b, "- **Kategorien**: %s\n", strings.Join(groups, ", "))
	}
	if len(ds.Tags) > 0 {
		tags := make([]string, 0, 10)
		for i, t := range ds.Tags {
			if i == 10 {
				break
			}
			tags = append(tags, orDefault(t.DisplayName, t.Name))
		}
		fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(tags, ", "))
	}
	if notes := truncate(ds.Notes, 300); notes != "" {
		fmt.Fprintf(&b, "- **Beschreibung**: %s...\n", notes)
	}
	fmt.Fprintf(&b, "- **URL**: %s", url)
	return b.String()
}

// formatResourceInfo renders a dataset resource as a nested list item.
func formatResourceInfo(r zurich.Resource) string {
	return fmt.Sprintf("  - **%s** (%s) – %s",
		orDefault(r.Name, "Unbenannt"), orDefault(r.Format, "?"), orDefault(r.URL, "Keine URL"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// abbreviate cuts s to n runes and marks the cut with "...".
func abbreviate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return truncate(s, n-3) + "..."
}

// thousands formats n with a comma as thousands separator.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// displayValue renders a loosely typed upstream value for Markdown output.
func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return missingValue
	case string:
		if t == "" {
			return missingValue
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return cast.ToString(t)
	}
}

// indentRecords renders raw JSON records as an indented array, keeping key order.
func indentRecords(records []json.RawMessage) string {
	if len(records) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, rec := range records {
		var ind bytes.Buffer
		if err := json.Indent(&ind, rec, "  ", "  "); err != nil {
			ind.Reset()
			ind.Write(rec)
		}
		buf.WriteString("  ")
		buf.Write(ind.Bytes())
		if i < len(records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte(']')
	return buf.String()
}

// indentJSON re-indents a raw JSON document.
func indentJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// marshalIndent encodes v as indented JSON without HTML escaping.
func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
