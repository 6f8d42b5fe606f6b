package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// SearchDatasetsTool returns a tool definition for searching the catalog.
func SearchDatasetsTool() mcp.Tool {
	return newTool(ToolSearchDatasets,
		"Durchsucht den Open-Data-Katalog der Stadt Zürich nach Datensätzen. "+
			"Volltextsuche (Solr) über Titel, Beschreibung, Tags und Metadaten aller 900+ Datensätze.",
		readOnly("Datensätze suchen", true, true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Suchbegriff(e), z.B. 'Schule', 'Verkehr', 'Bevölkerung'. "+
				"Unterstützt Solr-Syntax: AND, OR, NOT, Wildcards (*), Fuzzy (~)."),
			mcp.MinLength(1),
			mcp.MaxLength(maxQueryLength),
		),
		mcp.WithNumber("rows",
			mcp.Description("Anzahl Ergebnisse (max. 50)"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(50),
		),
		mcp.WithNumber("offset",
			mcp.Description("Offset für Paginierung"),
			mcp.DefaultNumber(0),
			mcp.Min(0),
		),
		mcp.WithString("sort",
			mcp.Description("Sortierung, z.B. 'metadata_modified desc', 'title asc', 'score desc'"),
		),
		mcp.WithString("filter_group",
			mcp.Description("Nach Kategorie filtern. Verfügbar: "+strings.Join(zurich.Groups, ", ")),
		),
	)
}

// HandleSearchDatasets implements catalog full-text search.
func (r *Registry) HandleSearchDatasets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	query := args.requiredString("query", 1, maxQueryLength)
	rows := args.integer("rows", 10, 1, 50)
	offset := args.integer("offset", 0, 0, maxInt)
	sortBy := args.optionalString("sort", 0)
	group := args.optionalString("filter_group", 0)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	params := zurich.PackageSearchParams{
		Query: query,
		Rows:  rows,
		Start: offset,
		Sort:  sortBy,
	}
	if group != "" {
		params.FilterQuery = "groups:" + group
	}

	result, err := r.client.PackageSearch(ctx, params)
	if err != nil {
		return upstreamError(ctx, r.logger, "Datensatzsuche", err), nil
	}
	if len(result.Results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Datensätze gefunden für '%s'.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Suchergebnis: %d Datensätze für '%s'\n", result.Count, query)
	fmt.Fprintf(&b, "Zeige %d von %d (Offset: %d)\n\n", len(result.Results), result.Count, offset)
	for _, ds := range result.Results {
		b.WriteString(formatDatasetSummary(ds, r.client.Endpoints().DatasetURL(ds.Name)))
		b.WriteString("\n\n")
	}
	if next := offset + len(result.Results); result.Count > next {
		fmt.Fprintf(&b, "*→ Weitere Ergebnisse mit offset=%d*", next)
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// GetDatasetTool returns a tool definition for dataset details.
func GetDatasetTool() mcp.Tool {
	return newTool(ToolGetDataset,
		"Ruft vollständige Metadaten und Ressourcen eines Datensatzes ab: Titel, Beschreibung, Autor, "+
			"Lizenz, Aktualisierungsintervall, Dateiformate und Download-URLs.",
		readOnly("Datensatz-Details abrufen", true, true),
		mcp.WithString("dataset_id",
			mcp.Required(),
			mcp.Description("ID oder Name des Datensatzes, z.B. 'geo_schulanlagen' oder 'ssd_schulferien'"),
			mcp.MinLength(1),
		),
	)
}

// HandleGetDataset implements dataset details.
func (r *Registry) HandleGetDataset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	id := args.requiredString("dataset_id", 1, 0)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	ds, err := r.client.PackageShow(ctx, id)
	if err != nil {
		return upstreamError(ctx, r.logger, "Datensatz-Details", err), nil
	}

	var b strings.Builder
	b.WriteString(formatDatasetSummary(*ds, r.client.Endpoints().DatasetURL(ds.Name)))
	b.WriteString("\n\n#### Ressourcen / Downloads\n")
	for _, res := range ds.Resources {
		b.WriteString("\n")
		b.WriteString(formatResourceInfo(res))
	}

	if len(ds.Extras) > 0 {
		b.WriteString("\n\n#### Zusätzliche Metadaten")
		for _, e := range ds.Extras {
			if strings.HasPrefix(e.Key, "harvest") {
				continue
			}
			fmt.Fprintf(&b, "\n- **%s**: %s", e.Key, displayValue(e.Value))
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

// DatastoreQueryTool returns a tool definition for DataStore queries.
func DatastoreQueryTool() mcp.Tool {
	return newTool(ToolDatastoreQuery,
		"Fragt tabellarische Daten direkt aus dem CKAN DataStore ab. Ermöglicht gefilterte Abfragen "+
			"auf Ressourcen, die im DataStore gespeichert sind (CSV-Daten werden automatisch indexiert).",
		readOnly("Tabellarische Daten abfragen", true, true),
		mcp.WithString("resource_id",
			mcp.Required(),
			mcp.Description("Resource-ID aus dem Datensatz (UUID-Format)"),
			mcp.MinLength(1),
		),
		mcp.WithString("filters",
			mcp.Description(`JSON-Filter, z.B. {"Quartier": "Wiedikon"} oder {"Jahr": 2024}`),
		),
		mcp.WithString("query",
			mcp.Description("Volltextsuche innerhalb der Ressource"),
		),
		mcp.WithString("sort",
			mcp.Description("Sortierung, z.B. 'Jahr desc'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Datensätze (max. 100)"),
			mcp.DefaultNumber(20),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithNumber("offset",
			mcp.Description("Offset für Paginierung"),
			mcp.DefaultNumber(0),
			mcp.Min(0),
		),
	)
}

// HandleDatastoreQuery implements filtered DataStore queries.
func (r *Registry) HandleDatastoreQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	resourceID := args.requiredString("resource_id", 1, 0)
	filters := args.optionalString("filters", 0)
	query := args.optionalString("query", 0)
	sortBy := args.optionalString("sort", 0)
	limit := args.integer("limit", 20, 1, 100)
	offset := args.integer("offset", 0, 0, maxInt)
	if filters != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(filters), &obj); err != nil || obj == nil {
			args.problem("filters", "muss ein JSON-Objekt sein")
		}
	}
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, err := r.client.DatastoreSearch(ctx, zurich.DatastoreSearchParams{
		ResourceID: resourceID,
		Filters:    filters,
		Query:      query,
		Sort:       sortBy,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "DataStore-Abfrage", err), nil
	}
	if len(result.Records) == 0 {
		return mcp.NewToolResultText("Keine Daten gefunden."), nil
	}

	records := result.Records
	if len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## DataStore-Abfrage: %d Einträge\n", result.Total)
	fmt.Fprintf(&b, "Zeige %d (Offset: %d)\n\n", len(records), offset)
	b.WriteString("### Felder\n")
	b.WriteString(fieldList(result.Fields))
	b.WriteString("\n\n### Daten\n\n```json\n")
	b.WriteString(indentRecords(records))
	b.WriteString("\n```")
	if next := offset + len(records); result.Total > next {
		fmt.Fprintf(&b, "\n\n*→ Weitere mit offset=%d*", next)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// fieldList renders DataStore columns as a Markdown list, skipping _id.
func fieldList(fields []zurich.DatastoreField) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.ID == "_id" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- `%s` (%s)", f.ID, orDefault(f.Type, "?")))
	}
	return strings.Join(lines, "\n")
}

// DatastoreSQLTool returns a tool definition for DataStore SQL queries.
func DatastoreSQLTool() mcp.Tool {
	return newTool(ToolDatastoreSQL,
		"Führt eine SQL-Abfrage auf dem CKAN DataStore aus. Ermöglicht komplexe Abfragen mit JOINs, "+
			"GROUP BY, Aggregationen etc. Nur SELECT-Abfragen sind erlaubt.",
		readOnly("SQL-Abfrage auf DataStore", false, true),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("SQL-Abfrage auf den DataStore. Tabellennamen in Anführungszeichen. "+
				`Beispiel: SELECT * FROM "resource-uuid" WHERE "Jahr" = 2024 LIMIT 10`),
			mcp.MinLength(minSQLLength),
		),
	)
}

// HandleDatastoreSQL implements read-only SQL on the DataStore.
func (r *Registry) HandleDatastoreSQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	sql := args.requiredString("sql", minSQLLength, 0)
	if sql != "" && !startsWithKeyword(sql, "SELECT", "WITH") {
		args.problem("sql", "nur SELECT-Abfragen sind erlaubt")
	}
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, err := r.client.DatastoreSearchSQL(ctx, sql)
	if err != nil {
		return upstreamError(ctx, r.logger, "SQL-Abfrage", err), nil
	}
	if len(result.Records) == 0 {
		return mcp.NewToolResultText("SQL-Abfrage lieferte keine Ergebnisse."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## SQL-Ergebnis: %d Zeilen\n", len(result.Records))
	fmt.Fprintf(&b, "**Spalten**: %s\n\n", strings.Join(result.FieldIDs(), ", "))
	b.WriteString("```json\n")
	b.WriteString(indentRecords(result.Records))
	b.WriteString("\n```")

	return mcp.NewToolResultText(b.String()), nil
}

// startsWithKeyword reports whether s opens with one of keywords, ignoring case.
// The keyword must not continue as an identifier: "SELECT*" matches, "SELECTED" does not.
func startsWithKeyword(s string, keywords ...string) bool {
	s = strings.ToUpper(strings.TrimLeftFunc(s, unicode.IsSpace))
	for _, k := range keywords {
		rest, ok := strings.CutPrefix(s, k)
		if !ok {
			continue
		}
		next, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || !(next == '_' || unicode.IsLetter(next) || unicode.IsDigit(next)) {
			return true
		}
	}
	return false
}

// ListCategoriesTool returns a tool definition for the catalog categories.
func ListCategoriesTool() mcp.Tool {
	return newTool(ToolListCategories,
		"Listet alle Datenkategorien (Gruppen) im Katalog auf oder zeigt Details einer Kategorie. "+
			"Die Stadt Zürich organisiert ihre Datensätze in 19 thematische Kategorien.",
		readOnly("Datenkategorien auflisten", true, true),
		mcp.WithString("group_id",
			mcp.Description("Gruppen-ID für Details. Verfügbar: "+strings.Join(zurich.Groups, ", ")+
				". Wenn leer, werden alle Kategorien aufgelistet."),
		),
	)
}

// HandleListCategories lists all categories or the datasets of one.
func (r *Registry) HandleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	groupID := args.optionalString("group_id", 0)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	var b strings.Builder
	if groupID != "" {
		group, err := r.client.GroupShow(ctx, groupID, true)
		if err != nil {
			return upstreamError(ctx, r.logger, "Kategorien", err), nil
		}
		fmt.Fprintf(&b, "## Kategorie: %s\n", orDefault(group.Title, group.Name))
		fmt.Fprintf(&b, "**Datensätze**: %d\n", group.PackageCount)
		for _, ds := range group.Packages {
			fmt.Fprintf(&b, "\n- **%s** (`%s`)", ds.Title, ds.Name)
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	groups, err := r.client.GroupList(ctx)
	if err != nil {
		return upstreamError(ctx, r.logger, "Kategorien", err), nil
	}
	b.WriteString("## Datenkategorien der Stadt Zürich\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n- **%s** (`%s`) – %d Datensätze", orDefault(g.Title, g.Name), g.Name, g.PackageCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ListTagsTool returns a tool definition for the tag search.
func ListTagsTool() mcp.Tool {
	return newTool(ToolListTags,
		"Durchsucht verfügbare Tags im Open-Data-Katalog. Tags helfen, thematisch verwandte Datensätze "+
			"zu finden, z.B. 'volksschule', 'kindergarten', 'schulweg' für Bildungsdaten.",
		readOnly("Tags durchsuchen", true, true),
		mcp.WithString("query",
			mcp.Description("Suchbegriff für Tags, z.B. 'schul', 'verkehr', 'wohn'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximale Anzahl Tags"),
			mcp.DefaultNumber(30),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
}

// HandleListTags implements the tag search.
func (r *Registry) HandleListTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	query := args.optionalString("query", 0)
	limit := args.integer("limit", 30, 1, 100)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	tags, err := r.client.TagList(ctx, query)
	if err != nil {
		return upstreamError(ctx, r.logger, "Tag-Suche", err), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Tags gefunden für '%s'.", query)), nil
	}
	if len(tags) > limit {
		tags = tags[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Tags (%d Ergebnisse)\n", len(tags))
	for _, t := range tags {
		fmt.Fprintf(&b, "\n- `%s`", t)
	}
	b.WriteString("\n\n*Tipp: Nutze `zurich_search_datasets` mit `filter_group` oder Solr-Query `tags:tagname`*")
	return mcp.NewToolResultText(b.String()), nil
}
