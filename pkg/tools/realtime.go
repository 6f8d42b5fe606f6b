package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// Human-readable names and units of the UGZ meteo parameters.
var (
	meteoParameterNames = map[string]string{
		"T":       "🌡️ Temperatur",
		"Hr":      "💧 Luftfeuchte",
		"p":       "📊 Luftdruck",
		"RainDur": "🌧️ Regendauer",
	}
	meteoParameterUnits = map[string]string{
		"T":       "°C",
		"Hr":      "%",
		"p":       "hPa",
		"RainDur": "min",
	}
)

// measurementGroup is a set of rows sharing one key, in first-seen order.
type measurementGroup struct {
	key  string
	rows []map[string]any
}

// groupRows groups rows by the display value of field, keeping first-seen order.
func groupRows(rows []map[string]any, field string) []measurementGroup {
	var groups []measurementGroup
	index := make(map[string]int)
	for _, row := range rows {
		key := displayKey(row[field])
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, measurementGroup{key: key})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// displayKey is displayValue with "?" for missing values.
func displayKey(v any) string {
	if v == nil {
		return "?"
	}
	return displayValue(v)
}

// stationFilters encodes the Standort/Parameter DataStore filter, or "" when neither is set.
func stationFilters(station, parameter string) string {
	filters := make(map[string]string)
	if station != "" {
		filters["Standort"] = station
	}
	if parameter != "" {
		filters["Parameter"] = parameter
	}
	if len(filters) == 0 {
		return ""
	}
	b, _ := json.Marshal(filters)
	return string(b)
}

// WeatherLiveTool returns a tool definition for the UGZ weather stations.
func WeatherLiveTool() mcp.Tool {
	return newTool(ToolWeatherLive,
		"Liefert stündlich aktualisierte Wetterdaten der UGZ-Messstationen Zürich (Stampfenbachstrasse, "+
			"Schimmelstrasse, Rosengartenstrasse, Heubeeribüel, Kaserne): Temperatur, Luftfeuchte, Luftdruck, Regendauer.",
		readOnly("Aktuelle Wetterdaten Zürich", true, true),
		mcp.WithString("station",
			mcp.Description("Messstation filtern (z.B. 'Zch_Stampfenbachstrasse', 'Zch_Schimmelstrasse', "+
				"'Zch_Rosengartenstrasse'). Leer = alle Stationen."),
		),
		mcp.WithString("parameter",
			mcp.Description("Messparameter filtern: 'T' (Temperatur °C), 'Hr' (Luftfeuchte %), "+
				"'p' (Luftdruck hPa), 'RainDur' (Regendauer min). Leer = alle."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Messwerte (max. 100)"),
			mcp.DefaultNumber(20),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
}

// HandleWeatherLive renders the latest meteo measurements grouped by timestamp.
func (r *Registry) HandleWeatherLive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	station := args.optionalString("station", 0)
	parameter := args.optionalString("parameter", 0)
	limit := args.integer("limit", 20, 1, 100)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, rows, err := r.datastoreRows(ctx, zurich.DatastoreSearchParams{
		ResourceID: zurich.MeteoResourceID,
		Filters:    stationFilters(station, parameter),
		Sort:       "Datum desc",
		Limit:      limit,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Wetterdaten", err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("Keine Wetterdaten gefunden. Standort/Parameter prüfen."), nil
	}

	var b strings.Builder
	b.WriteString("## 🌤️ Aktuelle Wetterdaten Zürich\n\n")
	fmt.Fprintf(&b, "*Quelle: UGZ Messnetz – %d Messwerte total*\n\n", result.Total)

	groups := groupRows(rows, "Datum")
	if len(groups) > 5 {
		groups = groups[:5]
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "### %s\n", g.key)
		for _, m := range g.rows {
			param := displayKey(m["Parameter"])
			name := orDefault(meteoParameterNames[param], param)
			value := strings.TrimSpace(displayKey(m["Wert"]) + " " + meteoParameterUnits[param])
			var flag string
			if status, _ := m["Status"].(string); status != "" && status != "provisorisch" {
				flag = " ⚠️ " + status
			}
			fmt.Fprintf(&b, "- **%s** – %s: **%s**%s\n", displayKey(m["Standort"]), name, value, flag)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n*Daten: data.stadt-zuerich.ch – stündlich aktualisiert*")

	return mcp.NewToolResultText(b.String()), nil
}

// AirQualityTool returns a tool definition for the UGZ air quality stations.
func AirQualityTool() mcp.Tool {
	return newTool(ToolAirQuality,
		"Liefert stündlich aktualisierte Luftqualitätsmessungen aus Zürich (UGZ): NO2, O3, PM10, PM2.5, NOx, SO2, CO u.a.",
		readOnly("Luftqualität Zürich (Echtzeit)", true, true),
		mcp.WithString("station",
			mcp.Description("Messstation: 'Zch_Stampfenbachstrasse', 'Zch_Schimmelstrasse', "+
				"'Zch_Rosengartenstrasse', 'Zch_Heubeeribüel', 'Zch_Kaserne'. Leer = alle."),
		),
		mcp.WithString("parameter",
			mcp.Description("Schadstoff: 'NO2' (Stickstoffdioxid), 'O3' (Ozon), 'PM10' (Feinstaub), "+
				"'PM2.5', 'NOx', 'SO2', 'CO'. Leer = alle."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Messwerte (max. 100)"),
			mcp.DefaultNumber(30),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
}

// HandleAirQuality renders the latest air measurements grouped by timestamp and station.
func (r *Registry) HandleAirQuality(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	station := args.optionalString("station", 0)
	parameter := args.optionalString("parameter", 0)
	limit := args.integer("limit", 30, 1, 100)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, rows, err := r.datastoreRows(ctx, zurich.DatastoreSearchParams{
		ResourceID: zurich.AirQualityResourceID,
		Filters:    stationFilters(station, parameter),
		Sort:       "Datum desc",
		Limit:      limit,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Luftqualität", err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("Keine Luftqualitätsdaten gefunden."), nil
	}

	var b strings.Builder
	b.WriteString("## 🌬️ Luftqualität Zürich\n\n")
	fmt.Fprintf(&b, "*Quelle: UGZ Messnetz – %d Messwerte total*\n\n", result.Total)

	groups := groupRows(rows, "Datum")
	if len(groups) > 3 {
		groups = groups[:3]
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "### %s\n", g.key)
		for _, st := range groupRows(g.rows, "Standort") {
			var values []string
			for _, m := range st.rows {
				v, ok := m["Wert"]
				if !ok || v == nil || v == "" {
					continue
				}
				unit, _ := m["Einheit"].(string)
				values = append(values, strings.TrimSpace(fmt.Sprintf("%s=%s %s", displayKey(m["Parameter"]), displayValue(v), unit)))
			}
			if len(values) > 0 {
				fmt.Fprintf(&b, "- **%s**: %s\n", st.key, strings.Join(values, ", "))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	b.WriteString("*WHO-Grenzwerte (24h): PM2.5 ≤15 µg/m³, PM10 ≤45 µg/m³, NO₂ ≤25 µg/m³*\n")
	b.WriteString("*Daten: data.stadt-zuerich.ch – stündlich aktualisiert*")

	return mcp.NewToolResultText(b.String()), nil
}

// WaterWeatherTool returns a tool definition for the lake police weather stations.
func WaterWeatherTool() mcp.Tool {
	return newTool(ToolWaterWeather,
		"Liefert Echtzeit-Wetterdaten der Wasserschutzpolizei Zürich an den Stationen Tiefenbrunnen und "+
			"Mythenquai: See- und Lufttemperatur, Wind, Wasserstand, Niederschlag, Luftdruck, Taupunkt, Globalstrahlung.",
		readOnly("See-/Wasserwetter Zürich", true, true),
		mcp.WithString("station",
			mcp.Description("Messstation: 'tiefenbrunnen' oder 'mythenquai'"),
			mcp.DefaultString("tiefenbrunnen"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Messwerte (max. 50)"),
			mcp.DefaultNumber(6),
			mcp.Min(1),
			mcp.Max(50),
		),
	)
}

// waterMeasurements lists the lake station columns in display order.
var waterMeasurements = []struct {
	label string
	field string
	unit  string
}{
	{"🌊 **Wassertemperatur**", "water_temperature", "°C"},
	{"🌡️ **Lufttemperatur**", "air_temperature", "°C"},
	{"📊 **Wasserstand**", "water_level", "m ü.M."},
	{"", "", ""}, // wind, rendered separately
	{"🧭 **Windrichtung**", "wind_direction", "°"},
	{"💧 **Luftfeuchte**", "humidity", "%"},
	{"🌧️ **Niederschlag**", "precipitation", "mm"},
	{"📏 **Luftdruck**", "barometric_pressure_qfe", "hPa"},
	{"🌡️ **Taupunkt**", "dew_point", "°C"},
	{"☀️ **Globalstrahlung**", "global_radiation", "W/m²"},
}

// withUnit renders a measurement with its unit, or "–" when missing.
func withUnit(row map[string]any, field, unit string) string {
	v := row[field]
	if v == nil {
		return missingValue
	}
	return strings.TrimSpace(displayValue(v) + " " + unit)
}

// HandleWaterWeather renders the latest readings of one lake station.
func (r *Registry) HandleWaterWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	station := args.optionalString("station", 0)
	limit := args.integer("limit", 6, 1, 50)
	if res := args.invalid(); res != nil {
		return res, nil
	}
	if station == "" {
		station = "tiefenbrunnen"
	}

	resourceID, stationName := zurich.WaterMythenquaiID, "Mythenquai"
	if strings.Contains(strings.ToLower(station), "tiefen") {
		resourceID, stationName = zurich.WaterTiefenbrunnenID, "Tiefenbrunnen"
	}

	_, rows, err := r.datastoreRows(ctx, zurich.DatastoreSearchParams{
		ResourceID: resourceID,
		Sort:       "timestamp_utc desc",
		Limit:      limit,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Wasserwetter", err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Keine Daten für Station %s gefunden.", stationName)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 🌊 Zürichsee Wetterstation %s\n\n", stationName)
	b.WriteString("*Wasserschutzpolizei Zürich – alle 10 Min. aktualisiert*\n\n")
	for _, row := range rows {
		ts := row["timestamp_cet"]
		if ts == nil {
			ts = row["timestamp_utc"]
		}
		fmt.Fprintf(&b, "### %s\n", displayKey(ts))
		for _, m := range waterMeasurements {
			if m.field == "" {
				fmt.Fprintf(&b, "- 💨 **Wind**: %s (Böen: %s)\n",
					withUnit(row, "wind_speed_avg_10min", "m/s"), withUnit(row, "wind_gust_max_10min", "m/s"))
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", m.label, withUnit(row, m.field, m.unit))
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n*Daten: data.stadt-zuerich.ch – 10-Min.-Intervall*")

	return mcp.NewToolResultText(b.String()), nil
}

// PedestrianTrafficTool returns a tool definition for the Bahnhofstrasse pedestrian counts.
func PedestrianTrafficTool() mcp.Tool {
	return newTool(ToolPedestrianTraffic,
		"Liefert stündliche Passantenfrequenzen an der Zürcher Bahnhofstrasse (hystreet.com Sensoren "+
			"an 3 Standorten: Nord, Mitte, Süd), neueste zuerst.",
		readOnly("Passantenfrequenzen Bahnhofstrasse", true, true),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Stundenwerte (max. 168)"),
			mcp.DefaultNumber(24),
			mcp.Min(1),
			mcp.Max(168),
		),
	)
}

// HandlePedestrianTraffic renders hourly pedestrian counts as a table.
func (r *Registry) HandlePedestrianTraffic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	limit := args.integer("limit", 24, 1, 168)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	result, rows, err := r.datastoreRows(ctx, zurich.DatastoreSearchParams{
		ResourceID: zurich.PedestrianResourceID,
		Sort:       "timestamp desc",
		Limit:      limit,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "Passantenfrequenzen", err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("Keine Passantenfrequenz-Daten gefunden."), nil
	}

	var b strings.Builder
	b.WriteString("## 🚶 Passantenfrequenzen Bahnhofstrasse Zürich\n\n")
	b.WriteString("*hystreet.com Sensoren – stündlich aktualisiert*\n\n")
	b.WriteString("| Zeitpunkt | Standort | Passanten | Temp. | Wetter |\n")
	b.WriteString("| --- | --- | ---: | ---: | --- |\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s°C | %s |\n",
			truncate(displayKey(row["timestamp"]), 16),
			displayKey(row["location_name"]),
			displayKey(row["pedestrians_count"]),
			displayKey(row["temperature"]),
			displayKey(row["weather_condition"]))
	}
	fmt.Fprintf(&b, "\n*%d Messwerte total*\n*Daten: data.stadt-zuerich.ch*", result.Total)

	return mcp.NewToolResultText(b.String()), nil
}

// VBZPassengersTool returns a tool definition for the VBZ passenger counts.
func VBZPassengersTool() mcp.Tool {
	return newTool(ToolVBZPassengers,
		"Fragt Fahrgastzahlen der Verkehrsbetriebe Zürich (VBZ) ab: jährlich aktualisierte "+
			"Ein-/Aussteiger-Zahlen pro Linie und Haltestelle für Tram, Bus, Trolleybus und Seilbahnen.",
		readOnly("VBZ Fahrgastzahlen", true, true),
		mcp.WithString("line",
			mcp.Description("Liniennummer filtern, z.B. '4' (Tram 4), '33' (Bus 33). Leer = alle Linien."),
		),
		mcp.WithString("stop",
			mcp.Description("Haltestelle filtern (Name oder Teilname), z.B. 'Paradeplatz', 'Central', 'Bellevue'. Leer = alle."),
		),
		mcp.WithString("query",
			mcp.Description("Volltextsuche über alle Felder"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Anzahl Ergebnisse (max. 100)"),
			mcp.DefaultNumber(20),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
}

// HandleVBZPassengers queries the VBZ passenger resource. Line and stop are
// folded into the full-text query.
func (r *Registry) HandleVBZPassengers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := newArguments(req)
	line := args.optionalString("line", 0)
	stop := args.optionalString("stop", 0)
	query := args.optionalString("query", 0)
	limit := args.integer("limit", 20, 1, 100)
	if res := args.invalid(); res != nil {
		return res, nil
	}

	var terms []string
	for _, t := range []string{query, line, stop} {
		if t != "" {
			terms = append(terms, t)
		}
	}

	result, err := r.client.DatastoreSearch(ctx, zurich.DatastoreSearchParams{
		ResourceID: zurich.VBZPassengersResourceID,
		Query:      strings.Join(terms, " "),
		Limit:      limit,
	})
	if err != nil {
		return upstreamError(ctx, r.logger, "VBZ-Fahrgastzahlen", err), nil
	}
	if len(result.Records) == 0 {
		return mcp.NewToolResultText("Keine VBZ-Fahrgastzahlen gefunden."), nil
	}

	var b strings.Builder
	b.WriteString("## 🚊 VBZ Fahrgastzahlen\n\n")
	fmt.Fprintf(&b, "*Verkehrsbetriebe Zürich – %d Einträge*\n\n", result.Total)
	fmt.Fprintf(&b, "**Felder**: %s\n\n", strings.Join(result.FieldIDs(), ", "))
	b.WriteString("```json\n")
	b.WriteString(indentRecords(result.Records))
	b.WriteString("\n```")
	if result.Total > limit {
		fmt.Fprintf(&b, "\n\n*→ %d weitere Einträge verfügbar*", result.Total-limit)
	}
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "*Tipp: Für Haltestellendetails `%s` mit Resource `%s` verwenden.*\n", ToolDatastoreQuery, zurich.VBZStopsResourceID)
	fmt.Fprintf(&b, "*Für Liniendetails: Resource `%s`*", zurich.VBZLinesResourceID)

	return mcp.NewToolResultText(b.String()), nil
}

// datastoreRows runs a DataStore search and decodes its records.
func (r *Registry) datastoreRows(ctx context.Context, p zurich.DatastoreSearchParams) (*zurich.DatastoreResult, []map[string]any, error) {
	result, err := r.client.DatastoreSearch(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	rows, err := result.Rows()
	if err != nil {
		return nil, nil, err
	}
	return result, rows, nil
}
