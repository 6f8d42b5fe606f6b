package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

type readFunc func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

func readResource(t *testing.T, read readFunc, uri string) (string, error) {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := read(context.Background(), req)
	if err != nil {
		return "", err
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T, want TextResourceContents", contents[0])
	}
	if tc.URI != uri || tc.MIMEType != "application/json" {
		t.Errorf("contents uri=%q mime=%q", tc.URI, tc.MIMEType)
	}
	return tc.Text, nil
}

func TestReadDataset(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(ckanAction+"package_show", `{"success":true,"result":{"name":"geo_schulanlagen","title":"Schulanlagen"}}`)

	text, err := readResource(t, r.readDataset, "zurich://dataset/geo_schulanlagen")
	if err != nil {
		t.Fatalf("readDataset() error = %v", err)
	}
	assertContains(t, text, "{\n  \"name\": \"geo_schulanlagen\"")

	req, _ := u.Last(ckanAction + "package_show")
	if req.Query.Get("id") != "geo_schulanlagen" {
		t.Errorf("id = %q", req.Query.Get("id"))
	}

	u.Status(ckanAction+"package_show", http.StatusNotFound)
	if _, err := readResource(t, r.readDataset, "zurich://dataset/missing"); zurich.StatusCode(err) != http.StatusNotFound {
		t.Errorf("readDataset() error = %v, want 404", err)
	}
}

func TestReadCategory(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(ckanAction+"group_show", `{"success":true,"result":{"name":"bildung","package_count":2}}`)

	text, err := readResource(t, r.readCategory, "zurich://category/bildung")
	if err != nil {
		t.Fatalf("readCategory() error = %v", err)
	}
	assertContains(t, text, `"package_count": 2`)
	req, _ := u.Last(ckanAction + "group_show")
	if req.Query.Get("id") != "bildung" || req.Query.Get("include_datasets") != "true" {
		t.Errorf("unexpected query %v", req.Query)
	}
}

func TestReadGeoLayer(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(schulanlagenPath, schulanlagenFeatures)

	text, err := readResource(t, r.readGeoLayer, "zurich://geo/schulanlagen")
	if err != nil {
		t.Fatalf("readGeoLayer() error = %v", err)
	}
	var fc zurich.FeatureCollection
	if err := json.Unmarshal([]byte(text), &fc); err != nil || len(fc.Features) != 4 {
		t.Errorf("decode: %v, features=%d", err, len(fc.Features))
	}
	req, _ := u.Last(schulanlagenPath)
	if req.Query.Get("maxFeatures") != "500" {
		t.Errorf("maxFeatures = %q", req.Query.Get("maxFeatures"))
	}

	text, err = readResource(t, r.readGeoLayer, "zurich://geo/atlantis")
	if err != nil {
		t.Fatalf("unknown layer error = %v", err)
	}
	if text != "{\n  \"error\": \"Unknown layer: atlantis\"\n}" {
		t.Errorf("unknown layer text = %q", text)
	}
}

func TestReadDatastore(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":2,"fields":[{"id":"Jahr","type":"int"}],"records":[{"Jahr":2024}]}}`)

	text, err := readResource(t, r.readDatastore, "zurich://datastore/abc-123")
	if err != nil {
		t.Fatalf("readDatastore() error = %v", err)
	}
	var out struct {
		ResourceID string           `json:"resource_id"`
		Total      int              `json:"total"`
		Fields     []map[string]any `json:"fields"`
		Records    []map[string]any `json:"records"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ResourceID != "abc-123" || out.Total != 2 || len(out.Fields) != 1 || len(out.Records) != 1 {
		t.Errorf("unexpected document %+v", out)
	}
	req, _ := u.Last(datastorePath)
	if req.Query.Get("limit") != "100" || req.Query.Get("resource_id") != "abc-123" {
		t.Errorf("unexpected query %v", req.Query)
	}
}

func TestReadParkingAndTourismCategories(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON("/Zuerich", `{"lots":[{"name":"Urania"}]}`)
	u.JSON(tourismPath, `[{"id":152,"name":{"de":"Museen"}}]`)

	text, err := readResource(t, r.readParking, ParkingResourceURI)
	if err != nil {
		t.Fatalf("readParking() error = %v", err)
	}
	assertContains(t, text, `"name": "Urania"`)

	text, err = readResource(t, r.readTourismCategories, TourismCategoriesResourceURI)
	if err != nil {
		t.Fatalf("readTourismCategories() error = %v", err)
	}
	assertContains(t, text, `"id": 152`)
}

func TestTemplateVar(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{"zurich://dataset/geo_schulanlagen", "geo_schulanlagen", false},
		{"zurich://dataset/stadt%20z%C3%BCrich", "stadt zürich", false},
		{"zurich://category/bildung", "", true},
		{"zurich://dataset/", "", true},
	}
	for _, tt := range tests {
		got, err := templateVar(datasetTemplate, tt.uri, "name")
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("templateVar(%q) = %q, %v", tt.uri, got, err)
		}
	}
}
