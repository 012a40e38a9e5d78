package sampler_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
	"github.com/atmoslabs/comfort-engine/internal/sampler"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSource returns a synthetic distribution derived from the coordinate,
// so different samples are distinguishable. failAt marks coordinates whose
// fetch fails; hang simulates an unresponsive upstream.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	failAt func(domain.Coordinate) bool
	hang   bool
}

func (f *fakeSource) Climatology(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay) (domain.ClimateDistribution, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.hang {
		<-ctx.Done()
		return domain.ClimateDistribution{}, &domain.SourceUnavailableError{Coord: coord, Day: day, Err: ctx.Err()}
	}
	if f.failAt != nil && f.failAt(coord) {
		return domain.ClimateDistribution{}, &domain.SourceUnavailableError{Coord: coord, Day: day, Err: context.DeadlineExceeded}
	}

	return domain.ClimateDistribution{
		Coord:       coord,
		Day:         day,
		TempAvg:     15 + coord.Lat/10,
		TempMin:     10 + coord.Lat/10,
		TempMax:     20 + coord.Lat/10,
		WindAvg:     3,
		WindMax:     6,
		HumidityAvg: 60,
		PrecipAvg:   1,
		Clearness:   0.5,
		Years:       40,
		SourceTitle: "fixture",
	}, nil
}

func newSampler(src domain.ClimatologySource, workers int) *sampler.Sampler {
	return sampler.New(src, workers, time.Second, discardLogger, observability.NewMetricsForTesting())
}

func testBox(t *testing.T) domain.Polygon {
	t.Helper()
	return boxPolygon(t, 51.0, -0.5, 51.6, 0.1)
}

func TestSampleRegion_HappyPath(t *testing.T) {
	src := &fakeSource{}
	s := newSampler(src, 4)

	region, samples, err := s.SampleRegion(context.Background(), testBox(t), 9,
		domain.CalendarDay{Month: 7, Day: 15}, domain.DefaultProfile(), domain.DefaultWeights())
	require.NoError(t, err)

	require.Len(t, samples, 9)
	for i, sp := range samples {
		assert.Equal(t, i, sp.Index, "generation order preserved")
		assert.True(t, sp.OK)
		assert.NotNil(t, sp.Signature)
	}

	require.NotNil(t, region.Region)
	assert.Equal(t, 9, region.Region.Succeeded)
	assert.Zero(t, region.Region.Failed)
	assert.GreaterOrEqual(t, region.Composite, 0.0)
	assert.LessOrEqual(t, region.Composite, 100.0)
	assert.Equal(t, "fixture", region.Location)
}

func TestSampleRegion_SingleSampleMatchesPointPipeline(t *testing.T) {
	src := &fakeSource{}
	s := newSampler(src, 2)
	day := domain.CalendarDay{Month: 7, Day: 15}
	profile := domain.DefaultProfile()
	weights := domain.DefaultWeights()

	region, samples, err := s.SampleRegion(context.Background(), testBox(t), 1, day, profile, weights)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	// Re-run the point pipeline directly at the sampled coordinate.
	dist, err := src.Climatology(context.Background(), samples[0].Coord, day)
	require.NoError(t, err)
	point, err := domain.Evaluate(dist, profile, weights)
	require.NoError(t, err)

	assert.InDelta(t, point.Composite, region.Composite, 1e-9)
	assert.Equal(t, point.Factors, region.Factors)
	assert.Equal(t, point.Signature, region.Signature)
}

func TestSampleRegion_PartialFailureTolerated(t *testing.T) {
	// Fail exactly one generated coordinate; the region must still resolve
	// from the remaining samples, with the failed index kept in the list.
	poly := testBox(t)
	coords, err := sampler.GeneratePoints(poly, 9)
	require.NoError(t, err)
	require.Len(t, coords, 9)
	doomed := coords[3]

	src := &fakeSource{failAt: func(c domain.Coordinate) bool { return c == doomed }}
	s := newSampler(src, 3)

	region, samples, err := s.SampleRegion(context.Background(), poly, 9,
		domain.CalendarDay{Month: 7, Day: 15}, domain.DefaultProfile(), domain.DefaultWeights())
	require.NoError(t, err)

	require.Len(t, samples, 9)
	assert.False(t, samples[3].OK)
	assert.NotEmpty(t, samples[3].Error)
	assert.Nil(t, samples[3].Signature)
	for i, sp := range samples {
		assert.Equal(t, i, sp.Index)
		if i != 3 {
			assert.True(t, sp.OK)
		}
	}

	require.NotNil(t, region.Region)
	assert.Equal(t, 8, region.Region.Succeeded)
	assert.Equal(t, 1, region.Region.Failed)

	// The failed sample is excluded from aggregation: the composite equals
	// the mean of the eight successes.
	var sum float64
	for _, sp := range samples {
		if sp.OK {
			sum += sp.Composite
		}
	}
	assert.InDelta(t, sum/8, region.Composite, 1e-9)
}

func TestSampleRegion_AllSamplesFail(t *testing.T) {
	src := &fakeSource{failAt: func(domain.Coordinate) bool { return true }}
	s := newSampler(src, 4)

	_, samples, err := s.SampleRegion(context.Background(), testBox(t), 4,
		domain.CalendarDay{Month: 7, Day: 15}, domain.DefaultProfile(), domain.DefaultWeights())

	var insufficient *domain.InsufficientSamplesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Generated)
	assert.Zero(t, insufficient.Succeeded)
	assert.Len(t, samples, 4, "failed samples still reported for visualization")
}

func TestSampleRegion_TimeoutIsFailedSample(t *testing.T) {
	src := &fakeSource{hang: true}
	s := sampler.New(src, 4, 50*time.Millisecond, discardLogger, observability.NewMetricsForTesting())

	start := time.Now()
	_, _, err := s.SampleRegion(context.Background(), testBox(t), 2,
		domain.CalendarDay{Month: 7, Day: 15}, domain.DefaultProfile(), domain.DefaultWeights())
	elapsed := time.Since(start)

	var insufficient *domain.InsufficientSamplesError
	require.ErrorAs(t, err, &insufficient)
	assert.Less(t, elapsed, 2*time.Second, "per-sample timeout must bound the request")
}

func TestSampleRegion_DeterministicOrdering(t *testing.T) {
	day := domain.CalendarDay{Month: 3, Day: 3}

	// Two runs with different worker counts must produce identical sample
	// coordinates in identical order.
	first, firstSamples, err := newSampler(&fakeSource{}, 1).SampleRegion(
		context.Background(), testBox(t), 9, day, domain.DefaultProfile(), domain.DefaultWeights())
	require.NoError(t, err)
	second, secondSamples, err := newSampler(&fakeSource{}, 8).SampleRegion(
		context.Background(), testBox(t), 9, day, domain.DefaultProfile(), domain.DefaultWeights())
	require.NoError(t, err)

	require.Len(t, secondSamples, len(firstSamples))
	for i := range firstSamples {
		assert.Equal(t, firstSamples[i].Coord, secondSamples[i].Coord)
		assert.Equal(t, firstSamples[i].Composite, secondSamples[i].Composite)
	}
	assert.InDelta(t, first.Composite, second.Composite, 1e-9)
}

func TestSampleRegion_BoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	src := &concurrencyProbe{
		enter: func() {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
		},
		exit: func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		},
	}

	s := newSampler(src, 2)
	_, _, err := s.SampleRegion(context.Background(), testBox(t), 12,
		domain.CalendarDay{Month: 7, Day: 15}, domain.DefaultProfile(), domain.DefaultWeights())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2, "worker pool must bound concurrent fetches")
}

type concurrencyProbe struct {
	enter func()
	exit  func()
}

func (p *concurrencyProbe) Climatology(_ context.Context, coord domain.Coordinate, day domain.CalendarDay) (domain.ClimateDistribution, error) {
	p.enter()
	time.Sleep(5 * time.Millisecond)
	p.exit()
	return domain.ClimateDistribution{
		Coord: coord, Day: day,
		TempAvg: 18, TempMin: 12, TempMax: 24,
		WindAvg: 3, HumidityAvg: 60, PrecipAvg: 1, Clearness: 0.5,
	}, nil
}
