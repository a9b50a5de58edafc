// Package geo resolves free-text addresses into coordinates through an
// OpenCage-compatible forward geocoding API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/placekeeper/placekeeper/internal/common"
	sc "github.com/placekeeper/placekeeper/internal/server/config"
	"github.com/placekeeper/placekeeper/internal/server/models"
)

// Client calls the geocoding API over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *sc.Config) *Client {
	return &Client{
		endpoint:   cfg.GeocoderEndpoint,
		apiKey:     cfg.GeocoderAPIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves address to the first candidate's coordinates. An address
// the API cannot resolve is common.ErrorNotFound.
func (c *Client) Geocode(ctx context.Context, address string) (models.Location, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("key", c.apiKey)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.Location{}, err
	}

	if len(parsed.Results) == 0 {
		return models.Location{}, common.ErrorNotFound
	}

	g := parsed.Results[0].Geometry
	return models.Location{Lat: g.Lat, Lng: g.Lng}, nil
}
