package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

const (
	// fanOutLimit bounds the concurrent upstream calls of a single tool invocation.
	fanOutLimit   = 4
	previewFields = 15
	schoolRows    = 15
)

// schoolSearchTerms are searched one by one; the catalog's Solr handles long OR chains poorly.
var schoolSearchTerms = []string{
	"Schule",
	"Volksschule",
	"Kindergarten",
	"Schulanlage",
	"Kreisschulbehörde",
	"Bildung",
	"Schulweg",
	"Musikschule",
	"Schulferien",
	"Sonderschule",
	"Kinderhort",
}

// AnalyzeDatasetsTool returns a tool definition for dataset analysis.
func AnalyzeDatasetsTool() mcp.Tool {
	return newTool(ToolAnalyzeDatasets,
		"Analysiert Datensätze umfassend: Relevanz, Aktualität und Datenstruktur. Kombiniert die Suche "+
			"mit der Update-Frequenz und den Feld-Schemas der DataStore-Ressourcen.",
		readOnly("Datensätze analysieren", true, true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Suchbegriff für die Analyse, z.B. 'Schule', 'Verkehr', 'Wohnen'"),
			mcp.MinLength(1),
			mcp.MaxLength(maxQueryLength),
		),
		mcp.WithNumber("max_datasets",
			mcp.Description("Maximale Anzahl zu analysierender Datensätze"),
			mcp.DefaultNumber(5),
			mcp.Min(1),
			mcp.Max(20),
		),
		mcp.WithBoolean("include_structure",
			mcp.Description("Datenstruktur (Felder) einschliessen"),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("include_freshness",
			mcp.Description("Aktualitäts-Analyse einschliessen"),
			mcp.DefaultBool(true),
		),
	)
}

// HandleAnalyzeDatasets searches datasets and reports their formats, freshness and structure.
func (r *Registry) HandleAnalyzeDatasets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	query := args.requiredString("query", 1, maxQueryLength)
	maxDatasets := args.integer("max_datasets", 5, 1, 20)
	withStructure := args.boolean("include_structure", true)
	withFreshness := args.boolean("include_freshness", true)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, err := r.client.PackageSearch(ctx, zurich.PackageSearchParams{
		Query: query,
		Rows:  maxDatasets,
		Sort:  "score desc",
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Datensatz-Analyse", err), nil
	}
	if len(result.Results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Datensätze gefunden für '%s'.", query)), nil
	}

	var structures []*zurich.DatastoreResult
	if withStructure {
		structures = r.datastoreStructures(ctx, result.Results)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Analyse: '%s'\n", query)
	fmt.Fprintf(&b, "**%d Datensätze gefunden**, Top %d analysiert:\n", result.Count, len(result.Results))

	for i, ds := range result.Results {
		fmt.Fprintf(&b, "\n### %d. %s\n", i+1, orDefault(ds.Title, "?"))
		fmt.Fprintf(&b, "- **ID**: `%s`\n", ds.Name)
		fmt.Fprintf(&b, "- **Formate**: %s\n", strings.Join(resourceFormats(ds.Resources), ", "))
		fmt.Fprintf(&b, "- **Ressourcen**: %d\n", len(ds.Resources))

		if withFreshness {
			interval := "unbekannt"
			if len(ds.UpdateInterval) > 0 {
				interval = strings.Join(ds.UpdateInterval, ", ")
			}
			fmt.Fprintf(&b, "- **Letzte Änderung**: %s\n", orDefault(truncate(ds.MetadataModified, 10), "?"))
			fmt.Fprintf(&b, "- **Aktualisierung**: %s\n", interval)
		}

		if withStructure && structures[i] != nil {
			st := structures[i]
			fields := make([]string, 0, len(st.Fields))
			for _, f := range st.Fields {
				if f.ID != "_id" {
					fields = append(fields, fmt.Sprintf("`%s` (%s)", f.ID, orDefault(f.Type, "?")))
				}
			}
			fmt.Fprintf(&b, "- **DataStore-Einträge**: %s\n", thousands(st.Total))
			shown := fields
			if len(shown) > previewFields {
				shown = shown[:previewFields]
			}
			fmt.Fprintf(&b, "- **Felder**: %s\n", strings.Join(shown, ", "))
			if len(fields) > previewFields {
				fmt.Fprintf(&b, "  *(und %d weitere)*\n", len(fields)-previewFields)
			}
		}

		fmt.Fprintf(&b, "- **URL**: %s\n", r.client.Endpoints().DatasetURL(ds.Name))
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// datastoreStructures fetches the field structure of the first queryable DataStore
// resource of every dataset. The result is index-aligned with datasets; datasets
// without a reachable DataStore resource get nil.
func (r *Registry) datastoreStructures(ctx context.Context, datasets []zurich.Dataset) []*zurich.DatastoreResult {
	out := make([]*zurich.DatastoreResult, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)

	for i, ds := range datasets {
		g.Go(func() error {
			for _, res := range ds.Resources {
				if !res.DatastoreActive {
					continue
				}
				st, err := r.client.DatastoreSearch(gctx, zurich.DatastoreSearchParams{
					ResourceID: res.ID,
					Limit:      0,
				})
				if err != nil {
					r.logger.Debug("datastore structure unavailable", "dataset", ds.Name, "resource", res.ID, "error", err)
					continue
				}
				out[i] = st
				return nil
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resourceFormats returns the distinct resource formats in sorted order.
func resourceFormats(resources []zurich.Resource) []string {
	set := make(map[string]bool)
	for _, res := range resources {
		set[orDefault(res.Format, "?")] = true
	}
	formats := make([]string, 0, len(set))
	for f := range set {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// CatalogStatsTool returns a tool definition for catalog statistics.
func CatalogStatsTool() mcp.Tool {
	return newTool(ToolCatalogStats,
		"Gibt einen Überblick über den gesamten Open-Data-Katalog der Stadt Zürich: Gesamtzahl der "+
			"Datensätze, Verteilung nach Kategorien, häufigste Formate und Tags.",
		readOnly("Katalog-Statistiken", true, true),
	)
}

// HandleCatalogStats summarizes the catalog through search facets.
func (r *Registry) HandleCatalogStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, err := r.client.PackageSearch(ctx, zurich.PackageSearchParams{
		Query:       "*:*",
		Rows:        0,
		FacetFields: []string{"groups", "res_format", "tags"},
		FacetLimit:  15,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Katalog-Statistiken", err), nil
	}

	var b strings.Builder
	b.WriteString("## Open Data Katalog – Stadt Zürich\n")
	fmt.Fprintf(&b, "**Gesamtzahl Datensätze**: %d\n\n", result.Count)
	fmt.Fprintf(&b, "**Portal**: %s\n", r.client.Endpoints().CKAN)
	b.WriteString("**Lizenz**: Creative Commons CC0 (Open by Default seit 2021)\n")

	sections := []struct {
		field string
		title string
		limit int
	}{
		{"groups", "Kategorien", 0},
		{"res_format", "Häufigste Formate", 10},
		{"tags", "Häufigste Tags", 10},
	}
	for _, sec := range sections {
		items, ok := result.FacetItems(sec.field)
		if !ok {
			continue
		}
		items = sortFacetItems(items)
		if sec.limit > 0 && len(items) > sec.limit {
			items = items[:sec.limit]
		}
		fmt.Fprintf(&b, "\n### %s\n", sec.title)
		for _, item := range items {
			fmt.Fprintf(&b, "- **%s**: %d\n", orDefault(item.DisplayName, orDefault(item.Name, "?")), item.Count)
		}
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// sortFacetItems orders facet buckets by count, largest first, then by name.
func sortFacetItems(items []zurich.FacetItem) []zurich.FacetItem {
	sorted := append([]zurich.FacetItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// FindSchoolDataTool returns a tool definition for the education dataset finder.
func FindSchoolDataTool() mcp.Tool {
	return newTool(ToolFindSchoolData,
		"Findet Datensätze, die für das Schulamt und die Volksschule relevant sind: Schulanlagen, "+
			"Bildungsdaten, Kreisschulbehörden, Schülerstatistiken, Schulwege und verwandte Themen.",
		readOnly("Schulrelevante Daten finden", true, true),
		mcp.WithString("topic",
			mcp.Description("Spezifisches Schulthema, z.B. 'Schulanlagen', 'Ferien', 'Kreisschulbehörde', "+
				"'Musikschule', 'Schüler', 'Kindergarten'. Wenn leer, werden alle schulrelevanten Datensätze gesucht."),
			mcp.MaxLength(maxQueryLength),
		),
	)
}

// HandleFindSchoolData runs the curated school searches and merges their results.
func (r *Registry) HandleFindSchoolData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	topic := args.optionalString("topic", maxQueryLength)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	terms := schoolSearchTerms
	if topic != "" {
		terms = append([]string{topic}, schoolSearchTerms[:4]...)
	}

	results := make([][]zurich.Dataset, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, term := range terms {
		g.Go(func() error {
			res, err := r.client.PackageSearch(gctx, zurich.PackageSearchParams{
				Query: term,
				Rows:  schoolRows,
				Sort:  "score desc",
			})
			if err != nil {
				return err
			}
			results[i] = res.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return upstreamError(ctx, r.logger, "Schuldaten-Suche", err), nil
	}

	seen := make(map[string]bool)
	var school, other []zurich.Dataset
	for _, batch := range results {
		for _, ds := range batch {
			if seen[ds.Name] {
				continue
			}
			seen[ds.Name] = true
			if isSchoolOffice(ds.Author) {
				school = append(school, ds)
			} else {
				other = append(other, ds)
			}
		}
	}
	total := len(school) + len(other)

	var b strings.Builder
	b.WriteString("## Schulrelevante Datensätze\n")
	fmt.Fprintf(&b, "**%d Treffer** (zeige %d)\n", total, total)

	if len(school) > 0 {
		b.WriteString("\n### Vom Schulamt / SSD\n")
		for _, ds := range school {
			b.WriteString(formatDatasetSummary(ds, r.client.Endpoints().DatasetURL(ds.Name)))
			b.WriteString("\n\n")
		}
	}
	if len(other) > 0 {
		if len(school) == 0 {
			b.WriteString("\n")
		}
		b.WriteString("### Weitere relevante Datensätze\n")
		if len(other) > schoolRows {
			other = other[:schoolRows]
		}
		for _, ds := range other {
			fmt.Fprintf(&b, "- **%s** (`%s`) – %s\n", ds.Title, ds.Name, orDefault(ds.Author, "?"))
		}
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func isSchoolOffice(author string) bool {
	return strings.Contains(author, "Schulamt") ||
		strings.Contains(author, "Schul-") ||
		strings.Contains(author, "Schulraumplanung")
}
