package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
)

func newTestGeocoder(t *testing.T, body string, status int) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewNominatim(Config{BaseURL: srv.URL, MinIntervalMS: 1})
}

func TestGeocode(t *testing.T) {
	g := newTestGeocoder(t, `[{"lat":"48.137","lon":"11.575"}]`, http.StatusOK)

	coord, err := g.Geocode(context.Background(), "Marienplatz 1, Munich")
	require.NoError(t, err)
	assert.InDelta(t, 48.137, coord.Lat, 1e-9)
	assert.InDelta(t, 11.575, coord.Lon, 1e-9)
}

func TestGeocodeNoResults(t *testing.T) {
	g := newTestGeocoder(t, `[]`, http.StatusOK)
	_, err := g.Geocode(context.Background(), "nowhere at all")
	assert.Error(t, err)
}

func TestGeocodeServerError(t *testing.T) {
	g := newTestGeocoder(t, `boom`, http.StatusBadGateway)
	_, err := g.Geocode(context.Background(), "x")
	assert.Error(t, err)
}

func TestFillTeamLocationsBestEffort(t *testing.T) {
	g := newTestGeocoder(t, `[{"lat":"52.5","lon":"13.4"}]`, http.StatusOK)

	existing := &model.Coord{Lat: 1, Lon: 2}
	teams := []model.Team{
		{ID: "keeps", Location: existing, Address: "somewhere"},
		{ID: "filled", Address: "Alexanderplatz, Berlin"},
		{ID: "skipped"},
	}
	out := FillTeamLocations(context.Background(), g, teams)

	assert.Equal(t, existing, out[0].Location)
	require.NotNil(t, out[1].Location)
	assert.InDelta(t, 52.5, out[1].Location.Lat, 1e-9)
	assert.Nil(t, out[2].Location)
}

func TestFillTeamLocationsNilGeocoder(t *testing.T) {
	teams := []model.Team{{ID: "t", Address: "a"}}
	out := FillTeamLocations(context.Background(), nil, teams)
	assert.Nil(t, out[0].Location)
}
