// Package osrm resolves travel durations and route geometries through an
// OSRM instance. It satisfies routing.Resolver; callers wrap it in the cached
// resolver so a slow or absent backend degrades to fast math instead of
// failing runs.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
	"github.com/dinehop/dinehop/infra/logger"
)

// DefaultBaseURL is the public OSRM demo server. Production deployments
// should point Config.BaseURL at their own instance.
const DefaultBaseURL = "https://router.project-osrm.org"

// Config parametrizes the OSRM client.
type Config struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// Client calls the OSRM HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient builds an OSRM client from the configuration.
func NewClient(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := 30 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.New("osrm"),
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Duration returns driving seconds along the coordinate sequence.
func (c *Client) Duration(ctx context.Context, coords ...model.Coord) (float64, error) {
	if len(coords) < 2 {
		return 0, nil
	}
	resp, err := c.route(ctx, coords, "overview=false")
	if err != nil {
		return 0, err
	}
	return resp.Routes[0].Duration, nil
}

// Geometry returns the route polyline for the coordinate sequence.
func (c *Client) Geometry(ctx context.Context, coords ...model.Coord) ([]model.Coord, error) {
	if len(coords) < 2 {
		out := make([]model.Coord, len(coords))
		copy(out, coords)
		return out, nil
	}
	resp, err := c.route(ctx, coords, "overview=full&geometries=geojson")
	if err != nil {
		return nil, err
	}
	line := resp.Routes[0].Geometry.Coordinates
	out := make([]model.Coord, 0, len(line))
	for _, p := range line {
		if len(p) != 2 {
			return nil, fmt.Errorf("osrm: malformed geometry point")
		}
		// GeoJSON order is lon,lat.
		out = append(out, model.Coord{Lat: p[1], Lon: p[0]})
	}
	return out, nil
}

func (c *Client) route(ctx context.Context, coords []model.Coord, params string) (*routeResponse, error) {
	parts := make([]string, len(coords))
	for i, p := range coords {
		parts[i] = fmt.Sprintf("%f,%f", p.Lon, p.Lat)
	}
	queryURL := fmt.Sprintf("%s/route/v1/driving/%s?%s", c.baseURL, strings.Join(parts, ";"), params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Warnf("route request failed: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("osrm: HTTP %d", resp.StatusCode)
	}
	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", err)
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("osrm: no route (code %s)", decoded.Code)
	}
	return &decoded, nil
}

var _ routing.Resolver = (*Client)(nil)
