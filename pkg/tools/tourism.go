package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

var tourismLanguages = []string{"de", "en", "fr", "it"}

// TourismTool returns a tool definition for the Zürich Tourismus data.
func TourismTool() mcp.Tool {
	names := zurich.TourismCategoryNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return newTool(ToolTourism,
		"Sucht Attraktionen, Restaurants, Hotels und Events über die Zürich Tourismus API. "+
			"Die Daten basieren auf Schema.org-Formaten.",
		readOnly("Zürich Tourismus Daten", true, true),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Tourismus-Kategorie. Verfügbar: "+strings.Join(quoted, ", ")+". Oder eine numerische Kategorie-ID."),
			mcp.MinLength(1),
		),
		mcp.WithString("search_text",
			mcp.Description("Optionaler Suchtext zur Filterung der Ergebnisse, z.B. 'Altstadt' oder 'vegan'"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximale Anzahl Ergebnisse"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(50),
		),
		mcp.WithString("language",
			mcp.Description("Sprache der Ergebnisse: 'de', 'en', 'fr', 'it'"),
			mcp.DefaultString("de"),
			mcp.Enum(tourismLanguages...),
		),
	)
}

// HandleTourism lists the records of a tourism category, optionally filtered by text.
func (r *Registry) HandleTourism(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	category := args.requiredString("category", 1, 0)
	search := args.optionalString("search_text", maxQueryLength)
	maxResults := args.integer("max_results", 10, 1, 50)
	lang := args.choice("language", "de", tourismLanguages...)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	categoryID, ok := zurich.ResolveTourismCategory(category)
	if !ok {
		names := zurich.TourismCategoryNames()
		available := make([]string, len(names))
		for i, n := range names {
			available[i] = fmt.Sprintf("`%s` (%d)", n, zurich.TourismCategories[n])
		}
		return ErrorResponse(fmt.Sprintf("Unbekannte Kategorie `%s`. Verfügbar:\n%s",
			category, strings.Join(available, ", "))), nil
	}

	items, err := r.client.TourismData(ctx, categoryID)
	if err != nil {
		return upstreamError(ctx, r.logger, "Zürich Tourismus", err), nil
	}

	if search != "" {
		filtered := items[:0:0]
		for _, item := range items {
			if item.Matches(lang, search) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	total := len(items)
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	if len(items) == 0 {
		msg := fmt.Sprintf("Keine Tourismus-Einträge gefunden für Kategorie '%s'", category)
		if search != "" {
			msg += fmt.Sprintf(" mit Filter '%s'", search)
		}
		return mcp.NewToolResultText(msg + "."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Zürich Tourismus: %s\n", category)
	fmt.Fprintf(&b, "**%d Einträge** (zeige %d)\n", total, len(items))

	for _, item := range items {
		fmt.Fprintf(&b, "\n### %s\n", orDefault(item.Name.In(lang), "Unbenannt"))
		if kind := item.Kind(); kind != "" {
			fmt.Fprintf(&b, "- **Typ**: %s\n", kind)
		}
		if cats := item.Categories(); len(cats) > 0 {
			if len(cats) > 5 {
				cats = cats[:5]
			}
			fmt.Fprintf(&b, "- **Kategorien**: %s\n", strings.Join(cats, ", "))
		}
		if desc := item.Description.In(lang); desc != "" {
			fmt.Fprintf(&b, "- **Beschreibung**: %s\n", truncate(desc, 250))
		}
		if addr := item.AddressLine(); addr != "" {
			fmt.Fprintf(&b, "- **Adresse**: %s\n", addr)
		}
		if phone := item.Phone(); phone != "" {
			fmt.Fprintf(&b, "- **Telefon**: %s\n", phone)
		}
		if web := item.URL.In(lang); web != "" {
			fmt.Fprintf(&b, "- **Web**: %s\n", web)
		}
		if lat, lon, ok := item.Coordinates(); ok {
			fmt.Fprintf(&b, "- **Koordinaten**: %s, %s\n",
				strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))
		}
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
