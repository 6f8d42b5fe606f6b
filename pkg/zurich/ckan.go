package zurich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// StringList decodes either a JSON string or an array of strings.
// CKAN extension fields such as updateInterval use both shapes.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Dataset is a CKAN package.
type Dataset struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Title            string     `json:"title"`
	Author           string     `json:"author"`
	Notes            string     `json:"notes"`
	LicenseTitle     string     `json:"license_title"`
	MetadataModified string     `json:"metadata_modified"`
	NumResources     int        `json:"num_resources"`
	UpdateInterval   StringList `json:"updateInterval"`
	Groups           []Group    `json:"groups"`
	Tags             []Tag      `json:"tags"`
	Resources        []Resource `json:"resources"`
	Extras           []Extra    `json:"extras"`
}

// Resource is a file or API attached to a dataset.
type Resource struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Format          string `json:"format"`
	URL             string `json:"url"`
	DatastoreActive bool   `json:"datastore_active"`
}

// Group is a CKAN group; Zurich uses groups as thematic categories.
type Group struct {
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	DisplayName  string    `json:"display_name"`
	PackageCount int       `json:"package_count"`
	Packages     []Dataset `json:"packages"`
}

// Tag is a dataset keyword.
type Tag struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Extra is a free-form key/value pair on a dataset.
type Extra struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// FacetItem is one bucket of a search facet.
type FacetItem struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// Facet groups the buckets of one facet field.
type Facet struct {
	Title string      `json:"title"`
	Items []FacetItem `json:"items"`
}

// PackageSearchResult is the result of package_search.
type PackageSearchResult struct {
	Count        int                       `json:"count"`
	Results      []Dataset                 `json:"results"`
	SearchFacets map[string]Facet          `json:"search_facets"`
	Facets       map[string]map[string]int `json:"facets"`
}

// FacetItems returns the buckets of a facet field. search_facets is preferred,
// the plain facets map is used when only that one is present.
func (r *PackageSearchResult) FacetItems(field string) ([]FacetItem, bool) {
	if f, ok := r.SearchFacets[field]; ok {
		return f.Items, true
	}
	counts, ok := r.Facets[field]
	if !ok {
		return nil, false
	}
	items := make([]FacetItem, 0, len(counts))
	for name, n := range counts {
		items = append(items, FacetItem{Name: name, DisplayName: name, Count: n})
	}
	return items, true
}

// PackageSearchParams are the package_search parameters used by the tools.
type PackageSearchParams struct {
	Query       string
	Rows        int
	Start       int
	Sort        string
	FilterQuery string
	FacetFields []string
	FacetLimit  int
}

func (p PackageSearchParams) values() url.Values {
	v := url.Values{}
	v.Set("q", p.Query)
	v.Set("rows", strconv.Itoa(p.Rows))
	if p.Start > 0 {
		v.Set("start", strconv.Itoa(p.Start))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.FilterQuery != "" {
		v.Set("fq", p.FilterQuery)
	}
	if len(p.FacetFields) > 0 {
		fields, _ := json.Marshal(p.FacetFields)
		v.Set("facet.field", string(fields))
		if p.FacetLimit > 0 {
			v.Set("facet.limit", strconv.Itoa(p.FacetLimit))
		}
	}
	return v
}

// DatastoreField describes a DataStore column.
type DatastoreField struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// DatastoreResult is the result of datastore_search and datastore_search_sql.
// Records keep their raw JSON so that column order survives formatting.
type DatastoreResult struct {
	ResourceID string            `json:"resource_id,omitempty"`
	Total      int               `json:"total"`
	Fields     []DatastoreField  `json:"fields"`
	Records    []json.RawMessage `json:"records"`
}

// FieldIDs returns the column names without the internal _id column.
func (r *DatastoreResult) FieldIDs() []string {
	ids := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.ID == "_id" {
			continue
		}
		ids = append(ids, f.ID)
	}
	return ids
}

// Rows decodes the records into maps.
func (r *DatastoreResult) Rows() ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(r.Records))
	for i, raw := range r.Records {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DatastoreSearchParams are the datastore_search parameters used by the tools.
type DatastoreSearchParams struct {
	ResourceID string
	Filters    string // JSON object
	Query      string
	Sort       string
	Limit      int
	Offset     int
}

func (p DatastoreSearchParams) values() url.Values {
	v := url.Values{}
	v.Set("resource_id", p.ResourceID)
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Filters != "" {
		v.Set("filters", p.Filters)
	}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

type ckanEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error"`
}

// ckanAction calls /api/3/action/{action} and unwraps the envelope.
func (c *Client) ckanAction(ctx context.Context, action string, params url.Values, memoize bool) (json.RawMessage, error) {
	var env ckanEnvelope
	err := c.fetchJSON(ctx, request{
		service: ServiceCKAN,
		url:     c.endpoints.CKAN + "/api/3/action/" + action,
		params:  params,
		memoize: memoize,
	}, &env)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		msg := "Unknown CKAN error"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		} else if env.Error != nil && env.Error.Type != "" {
			msg = env.Error.Type
		}
		return nil, &APIError{Service: ServiceCKAN, Message: msg}
	}
	return env.Result, nil
}

func (c *Client) ckanDecode(ctx context.Context, action string, params url.Values, memoize bool, out any) error {
	raw, err := c.ckanAction(ctx, action, params, memoize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", action, err)
	}
	return nil
}

// PackageSearch runs a Solr search over the catalog.
func (c *Client) PackageSearch(ctx context.Context, p PackageSearchParams) (*PackageSearchResult, error) {
	var out PackageSearchResult
	if err := c.ckanDecode(ctx, "package_search", p.values(), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PackageShow returns the full metadata of a dataset.
func (c *Client) PackageShow(ctx context.Context, id string) (*Dataset, error) {
	var out Dataset
	if err := c.ckanDecode(ctx, "package_show", url.Values{"id": {id}}, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PackageShowRaw returns the package_show result as upstream JSON.
func (c *Client) PackageShowRaw(ctx context.Context, id string) (json.RawMessage, error) {
	return c.ckanAction(ctx, "package_show", url.Values{"id": {id}}, true)
}

// DatastoreSearch queries a DataStore resource.
func (c *Client) DatastoreSearch(ctx context.Context, p DatastoreSearchParams) (*DatastoreResult, error) {
	var out DatastoreResult
	if err := c.ckanDecode(ctx, "datastore_search", p.values(), false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DatastoreSearchSQL runs a SQL statement against the DataStore.
func (c *Client) DatastoreSearchSQL(ctx context.Context, sql string) (*DatastoreResult, error) {
	var out DatastoreResult
	if err := c.ckanDecode(ctx, "datastore_search_sql", url.Values{"sql": {sql}}, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupList returns all groups with their dataset counts.
func (c *Client) GroupList(ctx context.Context) ([]Group, error) {
	params := url.Values{
		"all_fields":            {"true"},
		"include_dataset_count": {"true"},
	}
	var out []Group
	if err := c.ckanDecode(ctx, "group_list", params, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func groupShowValues(id string, includeDatasets bool) url.Values {
	v := url.Values{"id": {id}, "include_dataset_count": {"true"}}
	if includeDatasets {
		v.Set("include_datasets", "true")
	}
	return v
}

// GroupShow returns a group, optionally with its datasets.
func (c *Client) GroupShow(ctx context.Context, id string, includeDatasets bool) (*Group, error) {
	var out Group
	if err := c.ckanDecode(ctx, "group_show", groupShowValues(id, includeDatasets), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupShowRaw returns the group_show result as upstream JSON.
func (c *Client) GroupShowRaw(ctx context.Context, id string) (json.RawMessage, error) {
	return c.ckanAction(ctx, "group_show", groupShowValues(id, true), true)
}

// TagList returns tag names, filtered by query when given.
func (c *Client) TagList(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	var out []string
	if err := c.ckanDecode(ctx, "tag_list", params, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}
