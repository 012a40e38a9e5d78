// Package power implements domain.ClimatologySource against the NASA POWER
// temporal climatology point API.
package power

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
)

// Parameters requested from POWER. RE (Renewable Energy) is the community
// with the best coverage for this set.
const powerParameters = "T2M,T2M_MAX,T2M_MIN,WS10M,WS10M_MAX,RH2M,PRECTOTCORR,ALLSKY_SFC_SW_DWN,KT"

// missingSentinel is POWER's encoding for absent data.
const missingSentinel = -900.0

// powerRecordYears is the nominal record length behind POWER climatology
// normals (1981–2020 era at the time of writing). The API does not report it
// per-cell.
const powerRecordYears = 40

// Client fetches climate normals from the POWER API. Requests run behind a
// circuit breaker and a bounded exponential-backoff retry; the engine itself
// never retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a POWER climatology client.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:    "power-climatology",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("climatology breaker state changed", "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				metrics.BreakerOpen.Set(1)
			} else {
				metrics.BreakerOpen.Set(0)
			}
		},
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		maxRetries: uint64(maxRetries),
		metrics:    metrics,
		logger:     logger,
	}
}

// Healthy reports whether the source is accepting requests. Used by the
// readiness probe: an open breaker means the upstream is down.
func (c *Client) Healthy() error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("climatology source circuit breaker is open")
	}
	return nil
}

// Climatology fetches the climate normals for the coordinate and calendar
// day. The POWER climatology endpoint is keyed by month; the day passes
// through for context and error reporting.
func (c *Client) Climatology(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay) (domain.ClimateDistribution, error) {
	body, err := c.fetch(ctx, coord)
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("error").Inc()
		return domain.ClimateDistribution{}, &domain.SourceUnavailableError{Coord: coord, Day: day, Err: err}
	}

	dist, err := parseResponse(body, coord, day)
	if err != nil {
		if _, ok := err.(*domain.NoClimatologyError); ok {
			c.metrics.SourceFetches.WithLabelValues("no_data").Inc()
			return domain.ClimateDistribution{}, err
		}
		c.metrics.SourceFetches.WithLabelValues("error").Inc()
		return domain.ClimateDistribution{}, &domain.SourceUnavailableError{Coord: coord, Day: day, Err: err}
	}

	c.metrics.SourceFetches.WithLabelValues("success").Inc()
	return dist, nil
}

func (c *Client) fetch(ctx context.Context, coord domain.Coordinate) ([]byte, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", coord.Lat)},
		"longitude":  {fmt.Sprintf("%.4f", coord.Lon)},
		"community":  {"RE"},
		"parameters": {powerParameters},
		"format":     {"JSON"},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	fullURL := c.baseURL + "?" + params.Encode()

	var body []byte
	operation := func() error {
		start := time.Now()
		result, err := c.breaker.Execute(func() (any, error) {
			return c.doRequest(ctx, fullURL)
		})
		c.metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		body = result.([]byte)
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("climatology request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		// Transient; leave retryable.
		return nil, fmt.Errorf("power API status %d", resp.StatusCode)
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, backoff.Permanent(fmt.Errorf("power API status %d: %s", resp.StatusCode, b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// POWER API response types.

type response struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
	Header struct {
		Title string `json:"title"`
	} `json:"header"`
}

// monthKeys maps month numbers to POWER's monthly keys.
var monthKeys = [13]string{"", "JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

func parseResponse(body []byte, coord domain.Coordinate, day domain.CalendarDay) (domain.ClimateDistribution, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ClimateDistribution{}, fmt.Errorf("decode response: %w", err)
	}

	key := monthKeys[day.Month]
	params := resp.Properties.Parameter

	// T2M missing means the cell has no usable climatology at all.
	tempAvg, ok := monthValue(params, "T2M", key)
	if !ok {
		return domain.ClimateDistribution{}, &domain.NoClimatologyError{Coord: coord, Day: day}
	}

	// Remaining parameters degrade to neutral defaults when absent.
	tempMax, ok := monthValue(params, "T2M_MAX", key)
	if !ok {
		tempMax = tempAvg
	}
	tempMin, ok := monthValue(params, "T2M_MIN", key)
	if !ok {
		tempMin = tempAvg
	}
	windAvg, _ := monthValue(params, "WS10M", key)
	windMax, ok := monthValue(params, "WS10M_MAX", key)
	if !ok {
		windMax = windAvg
	}
	humidity, ok := monthValue(params, "RH2M", key)
	if !ok {
		humidity = 50
	}
	precip, _ := monthValue(params, "PRECTOTCORR", key)
	clearness, ok := monthValue(params, "KT", key)
	if !ok {
		clearness = 0.5 // partly cloudy
	}
	insolation, _ := monthValue(params, "ALLSKY_SFC_SW_DWN", key)

	title := strings.TrimSpace(resp.Header.Title)
	if title == "" {
		title = fmt.Sprintf("%.4f, %.4f", coord.Lat, coord.Lon)
	}

	return domain.ClimateDistribution{
		Coord:       coord,
		Day:         day,
		TempAvg:     tempAvg,
		TempMin:     tempMin,
		TempMax:     tempMax,
		WindAvg:     windAvg,
		WindMax:     windMax,
		HumidityAvg: humidity,
		PrecipAvg:   precip,
		Clearness:   clearness,
		Insolation:  insolation,
		Years:       powerRecordYears,
		SourceTitle: title,
	}, nil
}

// monthValue looks up one parameter's monthly value, treating the -999
// sentinel as absent.
func monthValue(params map[string]map[string]float64, name, monthKey string) (float64, bool) {
	months, ok := params[name]
	if !ok {
		return 0, false
	}
	v, ok := months[monthKey]
	if !ok || v <= missingSentinel {
		return 0, false
	}
	return v, true
}
