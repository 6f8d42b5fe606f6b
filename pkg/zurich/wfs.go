package zurich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cast"
)

// MaxFeatures is the largest feature count requested from the geoportal.
const MaxFeatures = 500

// Geometry is a GeoJSON geometry with undecoded coordinates.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature. Properties stay raw so their order is kept.
type Feature struct {
	ID         any             `json:"id,omitempty"`
	Geometry   *Geometry       `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Point returns the x and y coordinates of a Point geometry.
func (f Feature) Point() (x, y float64, ok bool) {
	if f.Geometry == nil || f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) == 0 {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// GeometryType returns the geometry type or "?".
func (f Feature) GeometryType() string {
	if f.Geometry == nil || f.Geometry.Type == "" {
		return "?"
	}
	return f.Geometry.Type
}

// PropertyMap decodes the feature properties.
func (f Feature) PropertyMap() map[string]any {
	props := map[string]any{}
	if len(f.Properties) > 0 {
		_ = json.Unmarshal(f.Properties, &props)
	}
	return props
}

// FirstProperty returns the first non-empty value among keys, as text.
func FirstProperty(props map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		if s := cast.ToString(v); s != "" {
			return s
		}
	}
	return ""
}

// PropertyKeys returns the property names in document order.
func (f Feature) PropertyKeys() []string {
	return objectKeys(f.Properties)
}

// objectKeys lists the top-level keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// GetFeaturesParams selects features from a geoportal WFS service.
type GetFeaturesParams struct {
	Service     string
	Typename    string
	MaxFeatures int
	CQLFilter   string
}

func (c *Client) wfsRequest(p GetFeaturesParams) request {
	maxFeatures := p.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > MaxFeatures {
		maxFeatures = MaxFeatures
	}
	params := url.Values{
		"service":      {"WFS"},
		"version":      {"1.1.0"},
		"request":      {"GetFeature"},
		"typename":     {p.Typename},
		"outputFormat": {"GeoJSON"},
		"maxFeatures":  {strconv.Itoa(maxFeatures)},
	}
	if p.CQLFilter != "" {
		params.Set("CQL_FILTER", p.CQLFilter)
	}
	return request{
		service: ServiceWFS,
		url:     c.endpoints.WFS + "/" + url.PathEscape(p.Service),
		params:  params,
		memoize: true,
	}
}

// GetFeatures runs a WFS 1.1.0 GetFeature request with GeoJSON output.
func (c *Client) GetFeatures(ctx context.Context, p GetFeaturesParams) (*FeatureCollection, error) {
	var out FeatureCollection
	if err := c.fetchJSON(ctx, c.wfsRequest(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFeaturesRaw returns the GeoJSON document as sent by the geoportal.
func (c *Client) GetFeaturesRaw(ctx context.Context, p GetFeaturesParams) (json.RawMessage, error) {
	body, err := c.fetch(ctx, c.wfsRequest(p))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode %s response: invalid JSON", ServiceWFS)
	}
	return json.RawMessage(body), nil
}
