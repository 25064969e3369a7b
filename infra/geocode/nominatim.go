// Package geocode converts registration addresses into coordinates through
// Nominatim. Geocoding is best-effort: units without resolvable coordinates
// still enter matching, they just score without travel terms.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/infra/logger"
)

// DefaultBaseURL is the public Nominatim instance. It enforces a one request
// per second policy, which the client honors via its rate limiter.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Config parametrizes the geocoder.
type Config struct {
	Enabled   bool   `json:"enabled"`
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
	// MinIntervalMS spaces out requests. Zero means one second.
	MinIntervalMS int `json:"min_interval_ms"`
}

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Coord, error)
}

// Nominatim implements Geocoder against the Nominatim search API.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *time.Ticker
	log        logger.Logger
}

// NewNominatim builds a rate-limited Nominatim client.
func NewNominatim(cfg Config) *Nominatim {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	interval := time.Second
	if cfg.MinIntervalMS > 0 {
		interval = time.Duration(cfg.MinIntervalMS) * time.Millisecond
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = "dinehop/1.0"
	}
	return &Nominatim{
		baseURL:    base,
		userAgent:  agent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    time.NewTicker(interval),
		log:        logger.New("geocode"),
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves the address, waiting for the rate limiter first.
func (n *Nominatim) Geocode(ctx context.Context, address string) (model.Coord, error) {
	select {
	case <-n.limiter.C:
	case <-ctx.Done():
		return model.Coord{}, ctx.Err()
	}

	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", n.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return model.Coord{}, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return model.Coord{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		n.log.Warnf("geocode %q: HTTP %d %s", address, resp.StatusCode, string(body))
		return model.Coord{}, fmt.Errorf("geocode: HTTP %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.Coord{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return model.Coord{}, fmt.Errorf("geocode: no results for %q", address)
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("geocode: invalid latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("geocode: invalid longitude %q", results[0].Lon)
	}
	return model.Coord{Lat: lat, Lon: lon}, nil
}

// FillTeamLocations geocodes every team that has an address but no
// coordinates. Failures are logged and skipped.
func FillTeamLocations(ctx context.Context, g Geocoder, teams []model.Team) []model.Team {
	if g == nil {
		return teams
	}
	for i := range teams {
		if teams[i].Location != nil || teams[i].Address == "" {
			continue
		}
		coord, err := g.Geocode(ctx, teams[i].Address)
		if err != nil {
			continue
		}
		c := coord
		teams[i].Location = &c
	}
	return teams
}
