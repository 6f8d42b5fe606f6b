package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// SPARQLTool returns a tool definition for linked data queries.
func SPARQLTool() mcp.Tool {
	return newTool(ToolSPARQL,
		"Führt eine SPARQL-Abfrage auf dem Linked-Data-Endpunkt der Stadt Zürich (ld.stadt-zuerich.ch) aus. "+
			"Er enthält statistische Daten als RDF (Bevölkerung, Wirtschaft, Bildung etc.). Nur SELECT-Abfragen.",
		readOnly("SPARQL-Abfrage (Linked Data)", false, true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("SPARQL-Abfrage. Beispiel: SELECT * WHERE { ?s ?p ?o } LIMIT 10. "+
				"Tipp: GRAPH <https://linked.opendata.swiss/graph/zh/statistics> für Statistik-Daten verwenden."),
			mcp.MinLength(minSPARQLLength),
			mcp.MaxLength(maxSPARQLLength),
		),
	)
}

// HandleSPARQL runs a SELECT query and renders the bindings as a table.
func (r *Registry) HandleSPARQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	query := args.requiredString("query", minSPARQLLength, maxSPARQLLength)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	upper := strings.ToUpper(query)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "PREFIX") {
		return ErrorResponse("Nur SELECT-Abfragen sind erlaubt."), nil
	}

	result, err := r.client.SPARQL(ctx, query)
	if err != nil {
		return upstreamError(ctx, r.logger, "SPARQL-Abfrage", err), nil
	}
	vars := result.Head.Vars
	bindings := result.Results.Bindings
	if len(bindings) == 0 {
		return mcp.NewToolResultText("SPARQL-Abfrage lieferte keine Ergebnisse."), nil
	}

	var b strings.Builder
	b.WriteString("## SPARQL-Ergebnis\n")
	fmt.Fprintf(&b, "**%d Zeilen**, Variablen: %s\n\n", len(bindings), strings.Join(vars, ", "))

	separators := make([]string, len(vars))
	for i := range separators {
		separators[i] = "---"
	}
	fmt.Fprintf(&b, "| %s |\n", strings.Join(vars, " | "))
	fmt.Fprintf(&b, "| %s |\n", strings.Join(separators, " | "))

	for i, binding := range bindings {
		if i == maxSPARQLRows {
			break
		}
		row := make([]string, len(vars))
		for j, v := range vars {
			row[j] = sparqlCell(binding[v])
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
	}

	if len(bindings) > maxSPARQLRows {
		fmt.Fprintf(&b, "\n*Zeige %d von %d Zeilen*\n", maxSPARQLRows, len(bindings))
	}
	fmt.Fprintf(&b, "\n*Endpoint: %s*", r.client.Endpoints().SPARQL)

	return mcp.NewToolResultText(b.String()), nil
}

// sparqlCell renders a bound term for a Markdown table cell. URIs are shortened
// to their last path segment when that stays readable.
func sparqlCell(term zurich.SPARQLTerm) string {
	value := term.Value
	if term.Type == "uri" {
		if i := strings.LastIndex(value, "/"); i >= 0 {
			if short := value[i+1:]; len(short) < 80 {
				value = short
			}
		}
	}
	value = abbreviate(value, maxCellLength)
	value = strings.ReplaceAll(value, "|", `\|`)
	value = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value)
	return value
}
