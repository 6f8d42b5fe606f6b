package tools

import (
	"strings"
	"testing"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

const datastorePath = ckanAction + "datastore_search"

func TestHandleWeatherLive(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":5000,"records":[
		{"Datum":"2025-06-01T12:00:00","Standort":"Zch_Stampfenbachstrasse","Parameter":"T","Wert":21.4,"Status":"provisorisch"},
		{"Datum":"2025-06-01T12:00:00","Standort":"Zch_Stampfenbachstrasse","Parameter":"Hr","Wert":55,"Status":"bereinigt"},
		{"Datum":"2025-06-01T11:00:00","Standort":"Zch_Kaserne","Parameter":"X","Wert":null}
	]}}`)

	text, isErr := run(t, r.HandleWeatherLive, map[string]any{"station": "Zch_Stampfenbachstrasse", "limit": 3})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	assertContains(t, text,
		"## 🌤️ Aktuelle Wetterdaten Zürich",
		"*Quelle: UGZ Messnetz – 5000 Messwerte total*",
		"### 2025-06-01T12:00:00",
		"- **Zch_Stampfenbachstrasse** – 🌡️ Temperatur: **21.4 °C**\n",
		"- **Zch_Stampfenbachstrasse** – 💧 Luftfeuchte: **55 %** ⚠️ bereinigt",
		"### 2025-06-01T11:00:00",
		"- **Zch_Kaserne** – X: **?**",
	)
	if strings.Index(text, "12:00:00") > strings.Index(text, "11:00:00") {
		t.Error("groups not in upstream order")
	}

	req, _ := u.Last(datastorePath)
	if req.Query.Get("resource_id") != zurich.MeteoResourceID ||
		req.Query.Get("sort") != "Datum desc" ||
		req.Query.Get("filters") != `{"Standort":"Zch_Stampfenbachstrasse"}` {
		t.Errorf("unexpected query %v", req.Query)
	}
}

func TestHandleWeatherLiveEmpty(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":0,"records":[]}}`)
	text, isErr := run(t, r.HandleWeatherLive, nil)
	if isErr || text != "Keine Wetterdaten gefunden. Standort/Parameter prüfen." {
		t.Errorf("got %q (error=%v)", text, isErr)
	}
}

func TestHandleAirQuality(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":99,"records":[
		{"Datum":"2025-06-01T12:00","Standort":"Zch_Kaserne","Parameter":"NO2","Wert":18.2,"Einheit":"µg/m3"},
		{"Datum":"2025-06-01T12:00","Standort":"Zch_Kaserne","Parameter":"O3","Wert":71,"Einheit":"µg/m3"},
		{"Datum":"2025-06-01T12:00","Standort":"Zch_Schimmelstrasse","Parameter":"PM10","Wert":null,"Einheit":"µg/m3"},
		{"Datum":"2025-06-01T11:00","Standort":"Zch_Kaserne","Parameter":"NO2","Wert":20,"Einheit":"µg/m3"}
	]}}`)

	text, isErr := run(t, r.HandleAirQuality, map[string]any{"parameter": "NO2"})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	assertContains(t, text,
		"## 🌬️ Luftqualität Zürich",
		"- **Zch_Kaserne**: NO2=18.2 µg/m3, O3=71 µg/m3",
		"### 2025-06-01T11:00",
		"WHO-Grenzwerte",
	)
	assertNotContains(t, text, "Zch_Schimmelstrasse")

	req, _ := u.Last(datastorePath)
	if req.Query.Get("resource_id") != zurich.AirQualityResourceID || req.Query.Get("limit") != "30" {
		t.Errorf("unexpected query %v", req.Query)
	}
}

func TestHandleWaterWeather(t *testing.T) {
	tests := []struct {
		station    string
		resourceID string
		title      string
	}{
		{"", zurich.WaterTiefenbrunnenID, "Tiefenbrunnen"},
		{"Tiefenbrunnen", zurich.WaterTiefenbrunnenID, "Tiefenbrunnen"},
		{"mythenquai", zurich.WaterMythenquaiID, "Mythenquai"},
	}
	for _, tt := range tests {
		t.Run(tt.title+"/"+tt.station, func(t *testing.T) {
			r, u := newTestRegistry(t)
			u.JSON(datastorePath, `{"success":true,"result":{"total":1,"records":[
				{"timestamp_utc":"2025-06-01T10:00:00Z","timestamp_cet":"01.06.2025 12:00","water_temperature":19.5,
				 "air_temperature":24.1,"wind_speed_avg_10min":3.2,"wind_gust_max_10min":null}]}}`)

			args := map[string]any{}
			if tt.station != "" {
				args["station"] = tt.station
			}
			text, isErr := run(t, r.HandleWaterWeather, args)
			if isErr {
				t.Fatalf("unexpected error result: %s", text)
			}
			assertContains(t, text,
				"## 🌊 Zürichsee Wetterstation "+tt.title,
				"### 01.06.2025 12:00",
				"- 🌊 **Wassertemperatur**: 19.5 °C",
				"- 💨 **Wind**: 3.2 m/s (Böen: –)",
				"- 📊 **Wasserstand**: –",
			)

			req, _ := u.Last(datastorePath)
			if req.Query.Get("resource_id") != tt.resourceID || req.Query.Get("sort") != "timestamp_utc desc" {
				t.Errorf("unexpected query %v", req.Query)
			}
		})
	}
}

func TestHandlePedestrianTraffic(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":8000,"records":[
		{"timestamp":"2025-06-01T12:00:00.000+02:00","location_name":"Bahnhofstrasse (Mitte)","pedestrians_count":4211,"temperature":23,"weather_condition":"clear-day"}
	]}}`)

	text, isErr := run(t, r.HandlePedestrianTraffic, map[string]any{"limit": 1})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	assertContains(t, text,
		"| Zeitpunkt | Standort | Passanten | Temp. | Wetter |",
		"| 2025-06-01T12:00 | Bahnhofstrasse (Mitte) | 4211 | 23°C | clear-day |",
		"*8000 Messwerte total*",
	)

	text, isErr = run(t, r.HandlePedestrianTraffic, map[string]any{"limit": 169})
	if !isErr {
		t.Fatalf("limit 169 accepted: %s", text)
	}
}

func TestHandleVBZPassengers(t *testing.T) {
	r, u := newTestRegistry(t)
	u.JSON(datastorePath, `{"success":true,"result":{"total":45,
		"fields":[{"id":"_id"},{"id":"Linienname"},{"id":"Haltestelle"}],
		"records":[{"Linienname":"4","Haltestelle":"Bellevue"}]}}`)

	text, isErr := run(t, r.HandleVBZPassengers, map[string]any{"line": "4", "stop": "Bellevue", "limit": 1})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	assertContains(t, text,
		"*Verkehrsbetriebe Zürich – 45 Einträge*",
		"**Felder**: Linienname, Haltestelle",
		`"Haltestelle": "Bellevue"`,
		"*→ 44 weitere Einträge verfügbar*",
		zurich.VBZStopsResourceID,
		zurich.VBZLinesResourceID,
	)

	req, _ := u.Last(datastorePath)
	if req.Query.Get("q") != "4 Bellevue" || req.Query.Get("resource_id") != zurich.VBZPassengersResourceID {
		t.Errorf("unexpected query %v", req.Query)
	}
}

func TestGroupRows(t *testing.T) {
	rows := []map[string]any{
		{"k": "b", "v": 1.0},
		{"k": "a", "v": 2.0},
		{"k": "b", "v": 3.0},
		{"v": 4.0},
	}
	groups := groupRows(rows, "k")
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].key != "b" || len(groups[0].rows) != 2 || groups[1].key != "a" || groups[2].key != "?" {
		t.Errorf("unexpected groups %+v", groups)
	}
}

func TestStationFilters(t *testing.T) {
	tests := []struct {
		station, param, want string
	}{
		{"", "", ""},
		{"Zch_Kaserne", "", `{"Standort":"Zch_Kaserne"}`},
		{"", "T", `{"Parameter":"T"}`},
		{"Zch_Kaserne", "T", `{"Parameter":"T","Standort":"Zch_Kaserne"}`},
	}
	for _, tt := range tests {
		if got := stationFilters(tt.station, tt.param); got != tt.want {
			t.Errorf("stationFilters(%q, %q) = %q, want %q", tt.station, tt.param, got, tt.want)
		}
	}
}
