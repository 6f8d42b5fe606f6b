// Package zurich provides the HTTP client for the City of Zurich open data APIs.
//
// Supported upstreams:
//   - CKAN (data.stadt-zuerich.ch), the open data catalog and its DataStore
//   - ParkenDD, real-time parking occupancy
//   - Geoportal WFS, geodata as GeoJSON
//   - Paris API, the information system of the municipal parliament (Gemeinderat)
//   - Zürich Tourismus API v2, attractions, restaurants and accommodation
//   - SPARQL (ld.stadt-zuerich.ch), linked data statistics
package zurich

import (
	"sort"
	"strconv"
	"strings"
)

// Service names used for rate limiting, logging and error reporting.
const (
	ServiceCKAN     = "ckan"
	ServiceParkenDD = "parkendd"
	ServiceWFS      = "wfs"
	ServiceParis    = "paris"
	ServiceTourism  = "tourism"
	ServiceSPARQL   = "sparql"
)

// Default upstream base URLs.
const (
	DefaultCKANURL     = "https://data.stadt-zuerich.ch"
	DefaultParkenDDURL = "https://api.parkendd.de/Zuerich"
	DefaultWFSURL      = "https://www.ogd.stadt-zuerich.ch/wfs/geoportal"
	DefaultParisURL    = "https://www.gemeinderat-zuerich.ch/api"
	DefaultTourismURL  = "https://www.zuerich.com/en/api/v2/data"
	DefaultSPARQLURL   = "https://ld.stadt-zuerich.ch/query"

	// ParliamentBusinessURL is the public web page prefix for a Gemeinderat business item.
	ParliamentBusinessURL = "https://www.gemeinderat-zuerich.ch/geschaefte/"
)

// Endpoints holds the base URL of every upstream service.
type Endpoints struct {
	CKAN     string
	ParkenDD string
	WFS      string
	Paris    string
	Tourism  string
	SPARQL   string
}

// DefaultEndpoints returns the public production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		CKAN:     DefaultCKANURL,
		ParkenDD: DefaultParkenDDURL,
		WFS:      DefaultWFSURL,
		Paris:    DefaultParisURL,
		Tourism:  DefaultTourismURL,
		SPARQL:   DefaultSPARQLURL,
	}
}

// withDefaults fills empty fields from DefaultEndpoints and trims trailing slashes.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	pick := func(v, def string) string {
		v = strings.TrimRight(strings.TrimSpace(v), "/")
		if v == "" {
			return def
		}
		return v
	}
	return Endpoints{
		CKAN:     pick(e.CKAN, d.CKAN),
		ParkenDD: pick(e.ParkenDD, d.ParkenDD),
		WFS:      pick(e.WFS, d.WFS),
		Paris:    pick(e.Paris, d.Paris),
		Tourism:  pick(e.Tourism, d.Tourism),
		SPARQL:   pick(e.SPARQL, d.SPARQL),
	}
}

// DatasetURL returns the public catalog page of a dataset.
func (e Endpoints) DatasetURL(name string) string {
	return e.CKAN + "/dataset/" + name
}

// Groups lists the thematic categories of the Zurich catalog.
var Groups = []string{
	"arbeit-und-erwerb",
	"basiskarten",
	"bauen-und-wohnen",
	"bevolkerung",
	"bildung",
	"energie",
	"finanzen",
	"freizeit",
	"gesundheit",
	"kriminalitat",
	"kultur",
	"mobilitat",
	"politik",
	"preise",
	"soziales",
	"tourismus",
	"umwelt",
	"verwaltung",
	"volkswirtschaft",
}

// DataStore resource ids of the realtime and transport feeds.
const (
	MeteoResourceID         = "f9aa1373-404f-443b-b623-03ff02d2d0b7"
	AirQualityResourceID    = "90410203-4b4f-4a65-9015-1fca2792e04d"
	WaterTiefenbrunnenID    = "f86b3581-6fbc-4337-ab1a-b6ead9d15daf"
	WaterMythenquaiID       = "61e26c94-c521-473f-b7bf-bb0d73f21e9f"
	PedestrianResourceID    = "ec1fc740-8e54-4116-aab7-3394575b4666"
	VBZPassengersResourceID = "38b0c1e5-1f4e-444d-975c-61a462aa8ca6"
	VBZLinesResourceID      = "463f92e0-5b20-44b3-b27f-59499e331e8d"
	VBZStopsResourceID      = "948b6347-8988-4705-9b08-45f0208a15da"
)

// Layer describes one geoportal WFS layer.
type Layer struct {
	ID          string
	Service     string // WFS service name, last path segment of the endpoint
	Typename    string
	Description string
}

var layers = map[string]Layer{
	"schulanlagen":      {"schulanlagen", "Schulanlagen", "poi_kindergarten_view", "Schulstandorte (Kindergärten, Schulhäuser, Horte)"},
	"schulkreise":       {"schulkreise", "Schulkreise", "adm_schulkreise_a", "Schulkreis-Grenzen (Polygone)"},
	"schulwege":         {"schulwege", "Schulweguebergaenge", "poi_schulweg_att", "Schulweg-Übergänge und Gefahrenstellen"},
	"stadtkreise":       {"stadtkreise", "Stadtkreise", "adm_stadtkreise_a", "Stadtkreis-Grenzen (Polygone)"},
	"spielplaetze":      {"spielplaetze", "POI_oeffentliche_Spielplaetze", "poi_oeffentl_spielplatz_view", "Öffentliche Spielplätze"},
	"kreisbuero":        {"kreisbuero", "Kreisbuero", "poi_kreisbuero_view", "Kreisbüros der Stadt Zürich"},
	"sammelstelle":      {"sammelstelle", "Sammelstelle", "poi_sammelstelle_view", "Abfall-Sammelstellen"},
	"sport":             {"sport", "Sport", "poi_sport_view", "Sportanlagen und -einrichtungen"},
	"klimadaten":        {"klimadaten", "Klimadaten", "klimadaten_raster", "Klimadaten (Raster, Temperaturen, Hitzeinseln)"},
	"lehrpfade":         {"lehrpfade", "Lehrpfade", "poi_lehrpfad_view", "Lehrpfade und Bildungswege"},
	"stimmlokale":       {"stimmlokale", "Stimmlokale", "poi_stimmlokale_view", "Abstimmungs- und Wahllokale"},
	"sozialzentrum":     {"sozialzentrum", "Sozialzentrum", "poi_sozialzentrum_view", "Sozialzentren"},
	"velopruefstrecken": {"velopruefstrecken", "Velopruefstrecken", "poi_velopruefstrecke_view", "Veloprüfstrecken für Schulen"},
	"familienberatung":  {"familienberatung", "Treffpunkt_Familienberatung", "poi_familienberatung_view", "Familienberatungs-Treffpunkte"},
}

// LookupLayer returns the geoportal layer with the given id.
func LookupLayer(id string) (Layer, bool) {
	l, ok := layers[id]
	return l, ok
}

// Layers returns all geoportal layers sorted by id.
func Layers() []Layer {
	out := make([]Layer, 0, len(layers))
	for _, l := range layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LayerIDs returns the sorted layer ids.
func LayerIDs() []string {
	ids := make([]string, 0, len(layers))
	for id := range layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TourismCategories maps the common Zürich Tourismus category names to their ids.
var TourismCategories = map[string]int{
	"uebernachten": 71,
	"aktivitaeten": 99,
	"restaurants":  166,
	"shopping":     130,
	"nachtleben":   139,
	"kultur":       145,
	"events":       136,
	"touren":       189,
	"natur":        157,
	"sport":        159,
	"familien":     175,
	"museen":       152,
}

// TourismCategoryNames returns the category names in alphabetical order.
func TourismCategoryNames() []string {
	names := make([]string, 0, len(TourismCategories))
	for name := range TourismCategories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTourismCategory accepts a category name (case-insensitive) or a numeric id.
func ResolveTourismCategory(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if isDigits(s) {
		id, err := strconv.Atoi(s)
		return id, err == nil
	}
	id, ok := TourismCategories[strings.ToLower(s)]
	return id, ok
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
