package power

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
)

var (
	london    = domain.Coordinate{Lat: 51.5072, Lon: -0.1276}
	midJuly   = domain.CalendarDay{Month: 7, Day: 15}
	midJan    = domain.CalendarDay{Month: 1, Day: 10}
	discardLg = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", 5*time.Second, 0, observability.NewMetricsForTesting(), discardLg)
}

func monthly(jan, jul float64) map[string]float64 {
	return map[string]float64{"JAN": jan, "JUL": jul}
}

func fixtureResponse() response {
	var resp response
	resp.Header.Title = "London, United Kingdom"
	resp.Properties.Parameter = map[string]map[string]float64{
		"T2M":               monthly(5.1, 18.5),
		"T2M_MAX":           monthly(8.0, 23.8),
		"T2M_MIN":           monthly(2.3, 13.2),
		"WS10M":             monthly(5.2, 4.1),
		"WS10M_MAX":         monthly(8.8, 7.9),
		"RH2M":              monthly(85, 68),
		"PRECTOTCORR":       monthly(1.8, 1.2),
		"KT":                monthly(0.31, 0.48),
		"ALLSKY_SFC_SW_DWN": monthly(0.8, 5.4),
	}
	return resp
}

func TestClient_Climatology_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "51.5072", r.URL.Query().Get("latitude"))
		assert.Equal(t, "-0.1276", r.URL.Query().Get("longitude"))
		assert.Equal(t, "RE", r.URL.Query().Get("community"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Contains(t, r.URL.Query().Get("parameters"), "T2M")

		require.NoError(t, json.NewEncoder(w).Encode(fixtureResponse()))
	}))
	defer srv.Close()

	dist, err := testClient(srv.URL).Climatology(context.Background(), london, midJuly)
	require.NoError(t, err)

	assert.Equal(t, 18.5, dist.TempAvg)
	assert.Equal(t, 23.8, dist.TempMax)
	assert.Equal(t, 13.2, dist.TempMin)
	assert.Equal(t, 4.1, dist.WindAvg)
	assert.Equal(t, 68.0, dist.HumidityAvg)
	assert.Equal(t, 1.2, dist.PrecipAvg)
	assert.Equal(t, 0.48, dist.Clearness)
	assert.Equal(t, "London, United Kingdom", dist.SourceTitle)
	assert.Equal(t, london, dist.Coord)
	assert.Equal(t, midJuly, dist.Day)
}

func TestClient_Climatology_MonthSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(fixtureResponse()))
	}))
	defer srv.Close()

	dist, err := testClient(srv.URL).Climatology(context.Background(), london, midJan)
	require.NoError(t, err)
	assert.Equal(t, 5.1, dist.TempAvg)
	assert.Equal(t, 85.0, dist.HumidityAvg)
}

func TestClient_Climatology_MissingTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := fixtureResponse()
		resp.Properties.Parameter["T2M"] = monthly(-999, -999)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Climatology(context.Background(), london, midJuly)

	var noData *domain.NoClimatologyError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, london, noData.Coord)
}

func TestClient_Climatology_NeutralDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := fixtureResponse()
		delete(resp.Properties.Parameter, "RH2M")
		delete(resp.Properties.Parameter, "KT")
		delete(resp.Properties.Parameter, "T2M_MAX")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	dist, err := testClient(srv.URL).Climatology(context.Background(), london, midJuly)
	require.NoError(t, err)
	assert.Equal(t, 50.0, dist.HumidityAvg)
	assert.Equal(t, 0.5, dist.Clearness)
	assert.Equal(t, dist.TempAvg, dist.TempMax, "max falls back to avg")
}

func TestClient_Climatology_ServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, 2, observability.NewMetricsForTesting(), discardLg)
	_, err := c.Climatology(context.Background(), london, midJuly)

	var unavailable *domain.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestClient_Climatology_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, 5, observability.NewMetricsForTesting(), discardLg)
	_, err := c.Climatology(context.Background(), london, midJuly)

	var unavailable *domain.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestClient_Healthy(t *testing.T) {
	c := testClient("http://127.0.0.1:0")
	assert.NoError(t, c.Healthy(), "breaker starts closed")
}
