package tools

// Tool names.
const (
	ToolSearchDatasets    = "zurich_search_datasets"
	ToolGetDataset        = "zurich_get_dataset"
	ToolDatastoreQuery    = "zurich_datastore_query"
	ToolDatastoreSQL      = "zurich_datastore_sql"
	ToolListCategories    = "zurich_list_categories"
	ToolListTags          = "zurich_list_tags"
	ToolParkingLive       = "zurich_parking_live"
	ToolAnalyzeDatasets   = "zurich_analyze_datasets"
	ToolCatalogStats      = "zurich_catalog_stats"
	ToolFindSchoolData    = "zurich_find_school_data"
	ToolWeatherLive       = "zurich_weather_live"
	ToolAirQuality        = "zurich_air_quality"
	ToolWaterWeather      = "zurich_water_weather"
	ToolPedestrianTraffic = "zurich_pedestrian_traffic"
	ToolVBZPassengers     = "zurich_vbz_passengers"
	ToolGeoLayers         = "zurich_geo_layers"
	ToolGeoFeatures       = "zurich_geo_features"
	ToolParliamentSearch  = "zurich_parliament_search"
	ToolParliamentMembers = "zurich_parliament_members"
	ToolTourism           = "zurich_tourism"
	ToolSPARQL            = "zurich_sparql"
)

// Bounds shared by several tools.
const (
	maxQueryLength  = 500
	maxSPARQLLength = 5000
	minSPARQLLength = 10
	minSQLLength    = 5
	minYear         = 1990
	maxYear         = 2030
	maxGeoRadius    = 20000
	defaultRadius   = 1000
	previewFeatures = 20
	maxSPARQLRows   = 100
	maxCellLength   = 100
	maxInt          = int(^uint(0) >> 1)
)
