package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ParkingLiveTool returns a tool definition for live parking occupancy.
func ParkingLiveTool() mcp.Tool {
	return newTool(ToolParkingLive,
		"Ruft Echtzeit-Parkplatz-Belegungsdaten für die Stadt Zürich ab: freie Plätze, Gesamtkapazität "+
			"und Status von rund 36 Parkhäusern. Datenquelle: ParkenDD API.",
		readOnly("Echtzeit-Parkplatzdaten Zürich", false, true),
	)
}

// HandleParkingLive renders the ParkenDD occupancy table.
func (r *Registry) HandleParkingLive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	data, err := r.client.ParkingLots(ctx)
	if err != nil {
		return upstreamError(ctx, r.logger, "Parkplatz-Daten", err), nil
	}

	lots := append(data.Lots[:0:0], data.Lots...)
	sort.SliceStable(lots, func(i, j int) bool { return lots[i].Name < lots[j].Name })

	var b strings.Builder
	b.WriteString("## Parkplatzbelegung Zürich\n")
	fmt.Fprintf(&b, "*Stand: %s*\n\n", orDefault(data.LastUpdated, "unbekannt"))
	b.WriteString("| Parkhaus | Frei | Total | Belegt % | Status |\n")
	b.WriteString("|----------|------|-------|----------|--------|\n")
	for _, lot := range lots {
		icon := "🔴"
		if lot.State == "open" {
			icon = "🟢"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d%% | %s %s |\n",
			orDefault(lot.Name, "?"), lot.Free, lot.Total, lot.Occupancy(), icon, orDefault(lot.State, "?"))
	}
	fmt.Fprintf(&b, "\n**Gesamt**: %d Parkhäuser", len(lots))

	return mcp.NewToolResultText(b.String()), nil
}
