// Package tools provides the Zurich open data MCP tool and resource implementations.
package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// Registry holds all MCP tool and resource registrations for the Zurich open data service.
type Registry struct {
	logger *slog.Logger
	client *zurich.Client
}

// NewRegistry creates a new MCP tool registry backed by client.
func NewRegistry(logger *slog.Logger, client *zurich.Client) *Registry {
	return &Registry{
		logger: logger,
		client: client,
	}
}

// ToolDefinition represents a Zurich open data MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns all Zurich open data MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		// Catalog Tools
		{
			Name:        ToolSearchDatasets,
			Description: "Search the open data catalog of the City of Zurich",
			Tool:        SearchDatasetsTool(),
			Handler:     r.HandleSearchDatasets,
		},
		{
			Name:        ToolGetDataset,
			Description: "Get metadata and resources of a dataset",
			Tool:        GetDatasetTool(),
			Handler:     r.HandleGetDataset,
		},
		{
			Name:        ToolDatastoreQuery,
			Description: "Query tabular data from the CKAN DataStore",
			Tool:        DatastoreQueryTool(),
			Handler:     r.HandleDatastoreQuery,
		},
		{
			Name:        ToolDatastoreSQL,
			Description: "Run a read-only SQL query on the CKAN DataStore",
			Tool:        DatastoreSQLTool(),
			Handler:     r.HandleDatastoreSQL,
		},
		{
			Name:        ToolListCategories,
			Description: "List the thematic categories of the catalog",
			Tool:        ListCategoriesTool(),
			Handler:     r.HandleListCategories,
		},
		{
			Name:        ToolListTags,
			Description: "List catalog tags",
			Tool:        ListTagsTool(),
			Handler:     r.HandleListTags,
		},

		// Analysis Tools
		{
			Name:        ToolAnalyzeDatasets,
			Description: "Analyze datasets on a topic with structure and freshness",
			Tool:        AnalyzeDatasetsTool(),
			Handler:     r.HandleAnalyzeDatasets,
		},
		{
			Name:        ToolCatalogStats,
			Description: "Summarize the catalog by category, format and tag",
			Tool:        CatalogStatsTool(),
			Handler:     r.HandleCatalogStats,
		},
		{
			Name:        ToolFindSchoolData,
			Description: "Find education related datasets",
			Tool:        FindSchoolDataTool(),
			Handler:     r.HandleFindSchoolData,
		},

		// Realtime Tools
		{
			Name:        ToolParkingLive,
			Description: "Live occupancy of the Zurich parking garages",
			Tool:        ParkingLiveTool(),
			Handler:     r.HandleParkingLive,
		},
		{
			Name:        ToolWeatherLive,
			Description: "Current weather measurements of the city stations",
			Tool:        WeatherLiveTool(),
			Handler:     r.HandleWeatherLive,
		},
		{
			Name:        ToolAirQuality,
			Description: "Current air quality measurements",
			Tool:        AirQualityTool(),
			Handler:     r.HandleAirQuality,
		},
		{
			Name:        ToolWaterWeather,
			Description: "Weather and water data of the lake stations",
			Tool:        WaterWeatherTool(),
			Handler:     r.HandleWaterWeather,
		},
		{
			Name:        ToolPedestrianTraffic,
			Description: "Pedestrian counts on Bahnhofstrasse",
			Tool:        PedestrianTrafficTool(),
			Handler:     r.HandlePedestrianTraffic,
		},
		{
			Name:        ToolVBZPassengers,
			Description: "Passenger numbers of the public transport operator VBZ",
			Tool:        VBZPassengersTool(),
			Handler:     r.HandleVBZPassengers,
		},

		// Geodata Tools
		{
			Name:        ToolGeoLayers,
			Description: "List the available geoportal layers",
			Tool:        GeoLayersTool(),
			Handler:     r.HandleGeoLayers,
		},
		{
			Name:        ToolGeoFeatures,
			Description: "Fetch features of a geoportal layer",
			Tool:        GeoFeaturesTool(),
			Handler:     r.HandleGeoFeatures,
		},

		// Parliament Tools
		{
			Name:        ToolParliamentSearch,
			Description: "Search business items of the municipal parliament",
			Tool:        ParliamentSearchTool(),
			Handler:     r.HandleParliamentSearch,
		},
		{
			Name:        ToolParliamentMembers,
			Description: "Search members and commissions of the municipal parliament",
			Tool:        ParliamentMembersTool(),
			Handler:     r.HandleParliamentMembers,
		},

		// Tourism Tools
		{
			Name:        ToolTourism,
			Description: "Attractions, restaurants and hotels from Zurich Tourism",
			Tool:        TourismTool(),
			Handler:     r.HandleTourism,
		},

		// Linked Data Tools
		{
			Name:        ToolSPARQL,
			Description: "Run a SELECT query on the linked data endpoint",
			Tool:        SPARQLTool(),
			Handler:     r.HandleSPARQL,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, def.Handler)
	}
}
