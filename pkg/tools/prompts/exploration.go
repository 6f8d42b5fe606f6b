// Package prompts provides prompt templates for use with the MCP server.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Prompt names.
const (
	DataExplorationPrompt = "zurich_data_exploration"
	SPARQLExamplesPrompt  = "zurich_sparql_examples"
)

// RegisterPrompts registers all Zurich open data prompts with the MCP server
func RegisterPrompts(s *server.MCPServer) {
	// Workflow guidance across the tools
	s.AddPrompt(mcp.NewPrompt(DataExplorationPrompt,
		mcp.WithPromptDescription("Vorgehen für die Recherche in den Open Data der Stadt Zürich"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Optionales Thema, z.B. 'Schule', 'Verkehr' oder 'Luftqualität'"),
		),
	), DataExplorationHandler)

	// Example queries for the linked data endpoint
	s.AddPrompt(mcp.NewPrompt(SPARQLExamplesPrompt,
		mcp.WithPromptDescription("Beispiele für SELECT-Abfragen auf ld.stadt-zuerich.ch"),
	), SPARQLExamplesHandler)
}

// DataExplorationHandler returns the exploration workflow, focused on the topic argument when given.
func DataExplorationHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := strings.TrimSpace(request.Params.Arguments["topic"])

	var focus string
	if topic != "" {
		focus = fmt.Sprintf("\nAKTUELLES THEMA: %q\nBeginne mit zurich_search_datasets bzw. zurich_analyze_datasets mit query=%q.\n", topic, topic)
	}

	guide := `Du hast Zugriff auf die Open Data der Stadt Zürich. Gehe so vor:

1. ÜBERBLICK: zurich_catalog_stats oder zurich_list_categories zeigen, welche Themen es gibt.
2. SUCHE: zurich_search_datasets (Solr-Syntax: AND, OR, NOT, Wildcards) oder zurich_list_tags.
3. DETAILS: zurich_get_dataset liefert Ressourcen und Download-URLs.
4. DATEN: Ressourcen mit DataStore über zurich_datastore_query (Filter als JSON-Objekt)
   oder zurich_datastore_sql (nur SELECT, Tabellenname = Resource-ID in Anführungszeichen).
5. ECHTZEIT: zurich_parking_live, zurich_weather_live, zurich_air_quality,
   zurich_water_weather, zurich_pedestrian_traffic, zurich_vbz_passengers.
6. GEODATEN: zurich_geo_layers, dann zurich_geo_features (optional mit latitude/longitude/radius).
7. POLITIK: zurich_parliament_search und zurich_parliament_members (Gemeinderat, Paris API).
8. TOURISMUS: zurich_tourism mit Kategorie-Name oder ID.
9. STATISTIK: zurich_sparql für Linked Data (siehe Prompt zurich_sparql_examples).

HINWEISE:
- Alle Daten stehen unter CC0 und dürfen frei genutzt werden.
- Paginierung: Suche und DataStore-Abfragen melden den nächsten offset.
- Bei "Ressource nicht gefunden" die ID mit zurich_search_datasets prüfen.
` + focus

	return mcp.NewGetPromptResult(
		"Open Data Zürich erkunden",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(guide),
			),
		},
	), nil
}

// SPARQLExamplesHandler returns example queries for zurich_sparql
func SPARQLExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examples := `BEISPIELE FÜR ZURICH_SPARQL:

Alle Tripel (Einstieg):
SELECT * WHERE { ?s ?p ?o } LIMIT 10

Statistik-Graph:
SELECT ?s ?p ?o WHERE {
  GRAPH <https://linked.opendata.swiss/graph/zh/statistics> { ?s ?p ?o }
} LIMIT 20

Klassen im Endpunkt:
SELECT DISTINCT ?type WHERE { ?s a ?type } LIMIT 50

Mit Präfixen:
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?s ?label WHERE { ?s rdfs:label ?label } LIMIT 25

REGELN:
- Nur SELECT-Abfragen (optional mit PREFIX-Deklarationen am Anfang).
- Immer LIMIT setzen; angezeigt werden höchstens 100 Zeilen.
- URIs werden in der Tabelle auf ihr letztes Segment gekürzt.`

	return mcp.NewGetPromptResult(
		"SPARQL-Beispiele",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examples),
			),
		},
	), nil
}
