package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yosida95/uritemplate/v3"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

const jsonMIME = "application/json"

// Resource URIs.
const (
	ParkingResourceURI           = "zurich://parking"
	TourismCategoriesResourceURI = "zurich://tourism/categories"
)

var (
	datasetTemplate   = uritemplate.MustNew("zurich://dataset/{name}")
	categoryTemplate  = uritemplate.MustNew("zurich://category/{group_id}")
	geoLayerTemplate  = uritemplate.MustNew("zurich://geo/{layer_id}")
	datastoreTemplate = uritemplate.MustNew("zurich://datastore/{resource_id}")
)

// datastorePreviewRows is the number of records the datastore resource returns.
const datastorePreviewRows = 100

// RegisterResources registers the static resources and resource templates with the MCP server.
func (r *Registry) RegisterResources(mcpServer *server.MCPServer) {
	templates := []struct {
		tmpl        *uritemplate.Template
		name        string
		description string
		handler     server.ResourceTemplateHandlerFunc
	}{
		{datasetTemplate, "Datensatz", "Metadaten eines CKAN-Datensatzes als JSON", r.readDataset},
		{categoryTemplate, "Kategorie", "Kategorie (CKAN-Gruppe) mit ihren Datensätzen als JSON", r.readCategory},
		{geoLayerTemplate, "Geoportal-Layer", "GeoJSON eines Geoportal-Layers (max. 500 Features)", r.readGeoLayer},
		{datastoreTemplate, "DataStore-Ressource", "Die ersten 100 Einträge einer DataStore-Ressource mit Feldern", r.readDatastore},
	}
	for _, t := range templates {
		r.logger.Info("registering resource template", "uri", t.tmpl.Raw())
		mcpServer.AddResourceTemplate(
			mcp.NewResourceTemplate(t.tmpl.Raw(), t.name,
				mcp.WithTemplateDescription(t.description),
				mcp.WithTemplateMIMEType(jsonMIME),
			),
			t.handler,
		)
	}

	r.logger.Info("registering resource", "uri", ParkingResourceURI)
	mcpServer.AddResource(
		mcp.NewResource(ParkingResourceURI, "Parkplatzbelegung",
			mcp.WithResourceDescription("Aktuelle Belegung der Parkhäuser (ParkenDD)"),
			mcp.WithMIMEType(jsonMIME),
		),
		r.readParking,
	)

	r.logger.Info("registering resource", "uri", TourismCategoriesResourceURI)
	mcpServer.AddResource(
		mcp.NewResource(TourismCategoriesResourceURI, "Tourismus-Kategorien",
			mcp.WithResourceDescription("Kategorien der Zürich Tourismus API"),
			mcp.WithMIMEType(jsonMIME),
		),
		r.readTourismCategories,
	)
}

// templateVar extracts a variable from uri using tmpl.
func templateVar(tmpl *uritemplate.Template, uri, name string) (string, error) {
	values := tmpl.Match(uri)
	if values == nil {
		return "", fmt.Errorf("resource %q does not match %s", uri, tmpl.Raw())
	}
	v := values.Get(name).String()
	if v == "" {
		return "", fmt.Errorf("resource %q: missing %s", uri, name)
	}
	return v, nil
}

func jsonContents(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     text,
		},
	}
}

func (r *Registry) readDataset(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name, err := templateVar(datasetTemplate, req.Params.URI, "name")
	if err != nil {
		return nil, err
	}
	raw, err := r.client.PackageShowRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, indentJSON(raw)), nil
}

func (r *Registry) readCategory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	groupID, err := templateVar(categoryTemplate, req.Params.URI, "group_id")
	if err != nil {
		return nil, err
	}
	raw, err := r.client.GroupShowRaw(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, indentJSON(raw)), nil
}

func (r *Registry) readGeoLayer(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	layerID, err := templateVar(geoLayerTemplate, req.Params.URI, "layer_id")
	if err != nil {
		return nil, err
	}
	layer, ok := zurich.LookupLayer(layerID)
	if !ok {
		text, err := marshalIndent(map[string]string{"error": "Unknown layer: " + layerID})
		if err != nil {
			return nil, err
		}
		return jsonContents(req.Params.URI, text), nil
	}
	raw, err := r.client.GetFeaturesRaw(ctx, zurich.GetFeaturesParams{
		Service:     layer.Service,
		Typename:    layer.Typename,
		MaxFeatures: zurich.MaxFeatures,
	})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, indentJSON(raw)), nil
}

func (r *Registry) readDatastore(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	resourceID, err := templateVar(datastoreTemplate, req.Params.URI, "resource_id")
	if err != nil {
		return nil, err
	}
	result, err := r.client.DatastoreSearch(ctx, zurich.DatastoreSearchParams{
		ResourceID: resourceID,
		Limit:      datastorePreviewRows,
	})
	if err != nil {
		return nil, err
	}
	text, err := marshalIndent(struct {
		ResourceID string                  `json:"resource_id"`
		Total      int                     `json:"total"`
		Fields     []zurich.DatastoreField `json:"fields"`
		Records    []json.RawMessage       `json:"records"`
	}{resourceID, result.Total, result.Fields, result.Records})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, text), nil
}

func (r *Registry) readParking(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, err := r.client.ParkingLotsRaw(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, indentJSON(raw)), nil
}

func (r *Registry) readTourismCategories(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, err := r.client.TourismCategoriesRaw(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, indentJSON(raw)), nil
}
