package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/schulamt-zurich/zurichmcp/pkg/geo"
	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// GeoLayersTool returns a tool definition for the geoportal layer list.
func GeoLayersTool() mcp.Tool {
	return newTool(ToolGeoLayers,
		"Listet alle verfügbaren WFS-Layer des Geoportals der Stadt Zürich auf. Die Layer-IDs können "+
			"mit dem Tool zurich_geo_features verwendet werden.",
		readOnly("Verfügbare Geodaten-Layer", true, false),
	)
}

// HandleGeoLayers renders the static layer table.
func (r *Registry) HandleGeoLayers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	layers := zurich.Layers()
	var b strings.Builder
	b.WriteString("## Verfügbare Geoportal-Layer (WFS)\n")
	fmt.Fprintf(&b, "**Anzahl**: %d\n\n", len(layers))
	b.WriteString("| Layer-ID | Beschreibung | WFS-Service |\n")
	b.WriteString("|---|---|---|\n")
	for _, l := range layers {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", l.ID, l.Description, l.Service)
	}
	fmt.Fprintf(&b, "\n*Nutze `%s` mit einer Layer-ID, um GeoJSON-Daten abzurufen.*", ToolGeoFeatures)

	return mcp.NewToolResultText(b.String()), nil
}

// GeoFeaturesTool returns a tool definition for fetching layer features.
func GeoFeaturesTool() mcp.Tool {
	return newTool(ToolGeoFeatures,
		"Ruft Geodaten aus dem WFS-Geoportal der Stadt Zürich ab: Features (Punkte, Polygone) mit "+
			"Eigenschaften wie Name, Adresse und Kategorie. Optional nach Entfernung zu einem Punkt gefiltert.",
		readOnly("Geodaten abrufen (GeoJSON)", true, true),
		mcp.WithString("layer_id",
			mcp.Required(),
			mcp.Description("Layer-ID. Verfügbar: "+strings.Join(zurich.LayerIDs(), ", ")),
			mcp.Enum(zurich.LayerIDs()...),
		),
		mcp.WithNumber("max_features",
			mcp.Description("Maximale Anzahl Features (max. 500)"),
			mcp.DefaultNumber(50),
			mcp.Min(1),
			mcp.Max(zurich.MaxFeatures),
		),
		mcp.WithString("property_filter",
			mcp.Description("CQL-Filter für Eigenschaften, z.B. \"kategorie = 'Kindergarten'\" oder "+
				"\"name LIKE '%Wasser%'\". Feldnamen hängen vom Layer ab."),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Breitengrad (WGS84) für die Umkreissuche, zusammen mit longitude"),
			mcp.Min(-90),
			mcp.Max(90),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Längengrad (WGS84) für die Umkreissuche, zusammen mit latitude"),
			mcp.Min(-180),
			mcp.Max(180),
		),
		mcp.WithNumber("radius",
			mcp.Description("Radius der Umkreissuche in Metern (max. 20000)"),
			mcp.DefaultNumber(defaultRadius),
			mcp.Min(1),
			mcp.Max(maxGeoRadius),
		),
	)
}

// proximity restricts features to a circle around a WGS84 point.
type proximity struct {
	center geo.Location
	radius float64
	bbox   *geo.BoundingBox
}

func newProximity(lat, lon, radius float64) *proximity {
	bbox := geo.NewBoundingBox()
	bbox.ExtendWithPoint(lat, lon)
	bbox.Buffer(radius)
	return &proximity{
		center: geo.Location{Latitude: lat, Longitude: lon},
		radius: radius,
		bbox:   bbox,
	}
}

// distance returns the distance to loc and whether it lies within the radius.
func (p *proximity) distance(loc geo.Location) (float64, bool) {
	if !p.bbox.Contains(loc.Latitude, loc.Longitude) {
		return 0, false
	}
	d := geo.HaversineDistance(p.center.Latitude, p.center.Longitude, loc.Latitude, loc.Longitude)
	return d, d <= p.radius
}

// locatedFeature is a feature with its WGS84 position, when it is a point.
type locatedFeature struct {
	zurich.Feature
	loc      geo.Location
	hasPoint bool
	distance float64
}

func locate(features []zurich.Feature) []locatedFeature {
	out := make([]locatedFeature, len(features))
	for i, f := range features {
		out[i].Feature = f
		if x, y, ok := f.Point(); ok {
			loc := geo.ToWGS84(x, y)
			// garbage geometry can convert to out-of-range positions
			if geo.ValidateCoords(loc.Latitude, loc.Longitude) == nil {
				out[i].loc = loc
				out[i].hasPoint = true
			}
		}
	}
	return out
}

// within keeps the point features inside p, nearest first.
func (p *proximity) within(features []locatedFeature) []locatedFeature {
	var kept []locatedFeature
	for _, f := range features {
		if !f.hasPoint {
			continue
		}
		d, ok := p.distance(f.loc)
		if !ok {
			continue
		}
		f.distance = d
		kept = append(kept, f)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].distance < kept[j].distance })
	return kept
}

// HandleGeoFeatures fetches a layer and summarizes its first features.
func (r *Registry) HandleGeoFeatures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	layerID := args.requiredString("layer_id", 1, 0)
	maxFeatures := args.integer("max_features", 50, 1, zurich.MaxFeatures)
	filter := args.optionalString("property_filter", 0)
	lat, hasLat := args.optionalFloat("latitude", -90, 90)
	lon, hasLon := args.optionalFloat("longitude", -180, 180)
	radius := float64(args.integer("radius", defaultRadius, 1, maxGeoRadius))
	if hasLat != hasLon {
		args.problem("latitude/longitude", "müssen zusammen angegeben werden")
	}
	if res := args.invalid(); res != nil {
		return res, nil
	}

	layer, ok := zurich.LookupLayer(layerID)
	if !ok {
		return ErrorResponse(fmt.Sprintf("Unbekannter Layer `%s`. Verfügbar: %s",
			layerID, strings.Join(zurich.LayerIDs(), ", "))), nil
	}

	// A radius search scans the largest page; max_features caps the matches instead.
	fetch := maxFeatures
	if hasLat && hasLon {
		fetch = zurich.MaxFeatures
	}
	fc, err := r.client.GetFeatures(ctx, zurich.GetFeaturesParams{
		Service:     layer.Service,
		Typename:    layer.Typename,
		MaxFeatures: fetch,
		CQLFilter:   filter,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Geodaten-Abfrage", err), nil
	}

	features := locate(fc.Features)
	var near *proximity
	if hasLat && hasLon {
		near = newProximity(lat, lon, radius)
		features = near.within(features)
		if len(features) > maxFeatures {
			features = features[:maxFeatures]
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Geodaten: %s\n", layer.Description)
	fmt.Fprintf(&b, "**Layer**: `%s` (%s)\n", layer.ID, layer.Typename)
	fmt.Fprintf(&b, "**Features**: %d\n\n", len(features))
	if filter != "" {
		fmt.Fprintf(&b, "**Filter**: `%s`\n\n", filter)
	}
	if near != nil {
		fmt.Fprintf(&b, "**Umkreis**: %.0f m um [%s] (%d von %d Features)\n\n",
			near.radius, near.center, len(features), len(fc.Features))
	}

	for i, f := range features {
		if i == previewFeatures {
			break
		}
		b.WriteString(featureLine(i+1, f, near != nil))
		b.WriteString("\n")
	}
	if len(features) > previewFeatures {
		fmt.Fprintf(&b, "\n*… und %d weitere Features*\n", len(features)-previewFeatures)
	}

	if len(features) > 0 {
		var keys []string
		for _, k := range features[0].PropertyKeys() {
			if k == "objectid" || k == "geometrie_gdo" {
				continue
			}
			keys = append(keys, k)
		}
		if len(keys) > 20 {
			keys = keys[:20]
		}
		fmt.Fprintf(&b, "\n**Verfügbare Felder**: %s\n", strings.Join(keys, ", "))
	}

	if uri, err := geoLayerTemplate.Expand(uritemplate.Values{"layer_id": uritemplate.String(layer.ID)}); err == nil {
		fmt.Fprintf(&b, "\n*Volle GeoJSON-Daten via `%s` Resource*", uri)
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// featureLine renders one numbered feature with name, category, address and position.
func featureLine(n int, f locatedFeature, withDistance bool) string {
	props := f.PropertyMap()
	name := zurich.FirstProperty(props, "name", "bezeichnung", "einheit")
	if name == "" {
		name = fmt.Sprintf("Feature %d", n)
	}

	label := "**" + name + "**"
	if kind := zurich.FirstProperty(props, "kategorie", "typ"); kind != "" {
		label += " (" + kind + ")"
	}
	if addr := zurich.FirstProperty(props, "adresse", "strasse"); addr != "" {
		label += " – " + addr
	}
	if f.hasPoint {
		label += fmt.Sprintf(" 📍 [%s]", f.loc)
	}
	if withDistance {
		label += fmt.Sprintf(" (%.0f m)", f.distance)
	}
	return fmt.Sprintf("%d. %s", n, label)
}
