package zurich

import (
	"context"
	"encoding/json"
)

// ParkingLot is one car park reported by ParkenDD.
type ParkingLot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	LotType string `json:"lot_type"`
	State   string `json:"state"`
	Free    int    `json:"free"`
	Total   int    `json:"total"`
	Coords  *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"coords,omitempty"`
}

// Occupancy returns the occupied share in percent, rounded. Lots without
// capacity report 0.
func (l ParkingLot) Occupancy() int {
	if l.Total <= 0 {
		return 0
	}
	pct := (1 - float64(l.Free)/float64(l.Total)) * 100
	if pct < 0 {
		return int(pct - 0.5)
	}
	return int(pct + 0.5)
}

// ParkingData is the ParkenDD city answer.
type ParkingData struct {
	LastUpdated    string       `json:"last_updated"`
	LastDownloaded string       `json:"last_downloaded"`
	DataSource     string       `json:"data_source"`
	Lots           []ParkingLot `json:"lots"`
}

func (c *Client) parkingRequest() request {
	return request{service: ServiceParkenDD, url: c.endpoints.ParkenDD}
}

// ParkingLots returns the current occupancy of all Zurich car parks.
func (c *Client) ParkingLots(ctx context.Context) (*ParkingData, error) {
	var out ParkingData
	if err := c.fetchJSON(ctx, c.parkingRequest(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParkingLotsRaw returns the ParkenDD answer as upstream JSON.
func (c *Client) ParkingLotsRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.fetch(ctx, c.parkingRequest())
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
