package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
	"github.com/schulamt-zurich/zurichmcp/pkg/zurich/cql"
)

// ParliamentSearchTool returns a tool definition for the business item search.
func ParliamentSearchTool() mcp.Tool {
	return newTool(ToolParliamentSearch,
		"Durchsucht die Geschäfte des Gemeinderats der Stadt Zürich (Paris API): Interpellationen, Motionen, "+
			"Postulate, Anfragen und weitere parlamentarische Vorstösse.",
		readOnly("Gemeinderatsgeschäfte suchen", true, true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Suchbegriff für Gemeinderatsgeschäfte. Wird im Titel gesucht. "+
				"Beispiele: 'Schule', 'Digitalisierung', 'Klimaschutz', 'Budget'"),
			mcp.MinLength(1),
			mcp.MaxLength(maxQueryLength),
		),
		mcp.WithNumber("year_from",
			mcp.Description("Geschäfte ab diesem Jahr filtern, z.B. 2020"),
			mcp.Min(minYear),
			mcp.Max(maxYear),
		),
		mcp.WithNumber("year_to",
			mcp.Description("Geschäfte bis zu diesem Jahr filtern, z.B. 2025"),
			mcp.Min(minYear),
			mcp.Max(maxYear),
		),
		mcp.WithString("department",
			mcp.Description("Nach zuständigem Departement filtern. Beispiele: 'Schul- und Sportdepartement', 'Finanzdepartement'"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximale Anzahl Ergebnisse"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(50),
		),
	)
}

// HandleParliamentSearch searches the business index by title.
func (r *Registry) HandleParliamentSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	query := args.requiredString("query", 1, maxQueryLength)
	yearFrom, _ := args.optionalInt("year_from", minYear, maxYear)
	yearTo, _ := args.optionalInt("year_to", minYear, maxYear)
	department := args.optionalString("department", 0)
	maxResults := args.integer("max_results", 10, 1, 50)
	if yearFrom > 0 && yearTo > 0 && yearFrom > yearTo {
		args.problem("year_from", "darf nicht nach year_to liegen")
	}
	if res := args.invalid(); res != nil {
		return res, nil
	}

	resp, err := r.client.ParisSearch(ctx, zurich.ParisIndexBusiness,
		cql.BusinessQuery(query, yearFrom, yearTo, department), 1, maxResults)
	if err != nil {
		return upstreamError(ctx, r.logger, "Geschäftssuche Gemeinderat", err), nil
	}
	if len(resp.Hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Gemeinderatsgeschäfte gefunden für '%s'.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Gemeinderatsgeschäfte: '%s'\n", query)
	fmt.Fprintf(&b, "**%d Treffer** (zeige %d)\n", resp.NumHits, len(resp.Hits))

	for _, hit := range resp.Hits {
		g := hit.Business
		if g == nil {
			continue
		}
		fmt.Fprintf(&b, "\n### %s: %s\n", orDefault(strings.TrimSpace(g.GRNr), "?"), orDefault(strings.TrimSpace(g.Title), "Ohne Titel"))
		fmt.Fprintf(&b, "- **Art**: %s\n", orDefault(strings.TrimSpace(g.Kind), "?"))
		fmt.Fprintf(&b, "- **Status**: %s\n", orDefault(strings.TrimSpace(g.Status), "?"))
		fmt.Fprintf(&b, "- **Datum**: %s\n", orDefault(strings.TrimSpace(g.Begin), "?"))
		if dept := g.DepartmentName(); dept != "" {
			fmt.Fprintf(&b, "- **Departement**: %s\n", dept)
		}
		if who := g.Submitter(); who != "" {
			fmt.Fprintf(&b, "- **Eingereicht von**: %s\n", who)
		}
		fmt.Fprintf(&b, "- **Link**: %s\n", g.Link())
	}

	if resp.NumHits > len(resp.Hits) {
		fmt.Fprintf(&b, "\n*→ %d weitere Treffer vorhanden*", resp.NumHits-len(resp.Hits))
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// ParliamentMembersTool returns a tool definition for the member search.
func ParliamentMembersTool() mcp.Tool {
	return newTool(ToolParliamentMembers,
		"Sucht Mitglieder des Gemeinderats der Stadt Zürich nach Name, Partei und Kommissionszugehörigkeit "+
			"und zeigt ihre aktuellen Mandate und Funktionen.",
		readOnly("Gemeinderatsmitglieder suchen", true, true),
		mcp.WithString("name",
			mcp.Description("Name oder Teilname des Ratsmitglieds, z.B. 'Marti' oder 'Peter'"),
		),
		mcp.WithString("party",
			mcp.Description("Parteiname, z.B. 'SP', 'SVP', 'Grüne', 'FDP', 'GLP', 'AL', 'Mitte'"),
		),
		mcp.WithString("commission",
			mcp.Description("Kommissionsname, z.B. 'GPK', 'RPK', 'Bildungsrat'. Sucht aktive Mitglieder der genannten Kommission."),
		),
		mcp.WithBoolean("active_only",
			mcp.Description("Nur aktive Ratsmitglieder anzeigen"),
			mcp.DefaultBool(true),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximale Anzahl Ergebnisse"),
			mcp.DefaultNumber(20),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
}

// HandleParliamentMembers searches commission mandates or council contacts.
func (r *Registry) HandleParliamentMembers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	name := args.optionalString("name", maxQueryLength)
	party := args.optionalString("party", maxQueryLength)
	commission := args.optionalString("commission", maxQueryLength)
	activeOnly := args.boolean("active_only", true)
	maxResults := args.integer("max_results", 20, 1, 100)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	if commission != "" {
		return r.commissionMembers(ctx, commission, name, activeOnly, maxResults), nil
	}

	resp, err := r.client.ParisSearch(ctx, zurich.ParisIndexContact, cql.MemberQuery(name, party, activeOnly), 1, maxResults)
	if err != nil {
		return upstreamError(ctx, r.logger, "Mitgliedersuche Gemeinderat", err), nil
	}
	if len(resp.Hits) == 0 {
		return mcp.NewToolResultText("Keine Ratsmitglieder gefunden."), nil
	}

	var b strings.Builder
	b.WriteString("## Gemeinderatsmitglieder\n")
	fmt.Fprintf(&b, "**%d Treffer** (zeige %d)\n\n", resp.NumHits, len(resp.Hits))

	for _, hit := range resp.Hits {
		k := hit.Contact
		if k == nil {
			continue
		}
		display := fmt.Sprintf("**%s**", orDefault(strings.TrimSpace(k.NameFirstName), "?"))
		if p := strings.TrimSpace(k.Party); p != "" {
			display += " (" + p + ")"
		}
		if w := strings.TrimSpace(k.Constituency); w != "" {
			display += " – Wahlkreis " + w
		}
		if len(k.Mandates) > 0 {
			mandates := k.Mandates
			if len(mandates) > 5 {
				mandates = mandates[:5]
			}
			list := make([]string, 0, len(mandates))
			for _, m := range mandates {
				entry := orDefault(strings.TrimSpace(m.Body), "?")
				if f := strings.TrimSpace(m.Function); f != "" {
					entry += " (" + f + ")"
				}
				list = append(list, entry)
			}
			display += "\n  - Mandate: " + strings.Join(list, ", ")
		}
		fmt.Fprintf(&b, "- %s\n\n", display)
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (r *Registry) commissionMembers(ctx context.Context, commission, name string, activeOnly bool, maxResults int) *mcp.CallToolResult {
	resp, err := r.client.ParisSearch(ctx, zurich.ParisIndexMandate, cql.CommissionQuery(commission, name, activeOnly), 1, maxResults)
	if err != nil {
		return upstreamError(ctx, r.logger, "Mitgliedersuche Gemeinderat", err)
	}
	if len(resp.Hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Mitglieder gefunden für Kommission '%s'.", commission))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Kommission: %s\n", commission)
	fmt.Fprintf(&b, "**%d Mitglieder**\n", resp.NumHits)

	for _, hit := range resp.Hits {
		m := hit.MandateRecord()
		if m == nil {
			continue
		}
		display := "**" + orDefault(m.LastName(), "?") + "**"
		if first := strings.TrimSpace(m.FirstName); first != "" {
			display = "**" + first + " " + orDefault(m.LastName(), "?") + "**"
		}
		if p := strings.TrimSpace(m.Party); p != "" {
			display += " (" + p + ")"
		}
		display += fmt.Sprintf(" – %s, %s",
			orDefault(strings.TrimSpace(m.Function), "Mitglied"), orDefault(strings.TrimSpace(m.Body), "?"))
		if since := m.Since(); since != "" {
			display += " (seit " + since + ")"
		}
		fmt.Fprintf(&b, "\n- %s", display)
	}

	return mcp.NewToolResultText(b.String())
}
