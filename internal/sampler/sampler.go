// Package sampler extends the single-point scoring pipeline to arbitrary
// polygons: it generates interior sample coordinates, fans the point pipeline
// out over a bounded worker pool, and aggregates the per-sample results into
// a region-level comfort signature.
package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
)

// Sampler runs the point pipeline across region samples.
type Sampler struct {
	source        domain.ClimatologySource
	workers       int
	sampleTimeout time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// New creates a Sampler. workers bounds concurrent climatology fetches;
// sampleTimeout bounds each individual sample's fetch+evaluate.
func New(source domain.ClimatologySource, workers int, sampleTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Sampler {
	if workers < 1 {
		workers = 1
	}
	return &Sampler{
		source:        source,
		workers:       workers,
		sampleTimeout: sampleTimeout,
		logger:        logger,
		metrics:       metrics,
	}
}

// sampleOutcome carries one sample's evaluation back to the collector,
// tagged with its generation index.
type sampleOutcome struct {
	index  int
	coord  domain.Coordinate
	result domain.ComfortResult
	err    error
}

// SampleRegion evaluates the polygon for the given day: sampleCount interior
// points, each run through the full point pipeline independently. Failed
// samples (source unreachable, timeout, no data) are recorded per-point and
// excluded from aggregation; the region result is valid as long as at least
// one sample succeeds. The returned sample list follows generation order,
// with failed indices preserved.
func (s *Sampler) SampleRegion(ctx context.Context, poly domain.Polygon, sampleCount int, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) (domain.ComfortResult, []domain.SamplePoint, error) {
	coords, err := GeneratePoints(poly, sampleCount)
	if err != nil {
		return domain.ComfortResult{}, nil, err
	}
	s.metrics.SampleCount.Observe(float64(len(coords)))

	outcomes := s.fanOut(ctx, coords, day, profile, weights)

	samples := make([]domain.SamplePoint, len(coords))
	succeeded := make([]domain.ComfortResult, 0, len(coords))
	for i, out := range outcomes {
		if out.err != nil {
			s.metrics.Samples.WithLabelValues("failed").Inc()
			s.logger.Warn("region sample failed",
				"index", out.index,
				"lat", out.coord.Lat,
				"lon", out.coord.Lon,
				"error", out.err,
			)
			samples[i] = domain.SamplePoint{
				Index: out.index,
				Coord: out.coord,
				OK:    false,
				Error: out.err.Error(),
			}
			continue
		}
		s.metrics.Samples.WithLabelValues("success").Inc()
		sig := out.result.Signature
		samples[i] = domain.SamplePoint{
			Index:     out.index,
			Coord:     out.coord,
			OK:        true,
			Composite: out.result.Composite,
			Signature: &sig,
		}
		succeeded = append(succeeded, out.result)
	}

	if len(succeeded) == 0 {
		return domain.ComfortResult{}, samples, &domain.InsufficientSamplesError{
			Requested: sampleCount,
			Generated: len(coords),
			Succeeded: 0,
		}
	}

	region := aggregateRegion(succeeded, poly, day)
	region.Region = &domain.RegionMetadata{
		Requested: sampleCount,
		Generated: len(coords),
		Succeeded: len(succeeded),
		Failed:    len(coords) - len(succeeded),
	}
	return region, samples, nil
}

// fanOut runs one pipeline invocation per coordinate on a bounded worker
// pool. Results are collected by generation index, so output ordering never
// depends on completion order.
func (s *Sampler) fanOut(ctx context.Context, coords []domain.Coordinate, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) []sampleOutcome {
	outcomes := make([]sampleOutcome, len(coords))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.evaluateSample(ctx, i, coords[i], day, profile, weights)
			}
		}()
	}

	for i := range coords {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// evaluateSample runs one full point pipeline with a per-sample deadline.
// A timed-out fetch is an ordinary failed sample, not a fatal error.
func (s *Sampler) evaluateSample(ctx context.Context, index int, coord domain.Coordinate, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) sampleOutcome {
	sampleCtx, cancel := context.WithTimeout(ctx, s.sampleTimeout)
	defer cancel()

	dist, err := s.source.Climatology(sampleCtx, coord, day)
	if err != nil {
		return sampleOutcome{index: index, coord: coord, err: err}
	}

	result, err := domain.Evaluate(dist, profile, weights)
	if err != nil {
		return sampleOutcome{index: index, coord: coord, err: err}
	}
	return sampleOutcome{index: index, coord: coord, result: result}
}

// aggregateRegion folds successful sample results into one region-level
// ComfortResult. Composite and all numeric signature fields are equal-weight
// arithmetic means (the sampling strategy already approximates area
// coverage); meets flags hold when the majority of samples meet. The
// location label comes from the first successful sample.
func aggregateRegion(results []domain.ComfortResult, poly domain.Polygon, day domain.CalendarDay) domain.ComfortResult {
	n := float64(len(results))

	region := domain.ComfortResult{
		Location:    results[0].Location,
		Coord:       centroid(poly),
		Day:         day,
		Specialty:   make(map[string]float64, len(results[0].Specialty)),
		EvaluatedAt: results[0].EvaluatedAt,
	}

	factorScores := make(map[string]float64)
	factorMeets := make(map[string]int)
	for _, r := range results {
		region.Composite += r.Composite / n
		for _, f := range r.Factors {
			factorScores[f.Name] += f.Score / n
			if f.Meets {
				factorMeets[f.Name]++
			}
		}
		for name, v := range r.Specialty {
			region.Specialty[name] += v / n
		}

		region.Signature.Temperature.Avg += r.Signature.Temperature.Avg / n
		region.Signature.Temperature.Min += r.Signature.Temperature.Min / n
		region.Signature.Temperature.Max += r.Signature.Temperature.Max / n
		region.Signature.Wind.Avg += r.Signature.Wind.Avg / n
		region.Signature.Wind.Max += r.Signature.Wind.Max / n
		region.Signature.Humidity.Avg += r.Signature.Humidity.Avg / n
		region.Signature.Precip.AvgDailyAmount += r.Signature.Precip.AvgDailyAmount / n
		region.Signature.Precip.EstimatedDailyChance += r.Signature.Precip.EstimatedDailyChance / n
		region.Signature.Sunlight.SunnyDayLikelihood += r.Signature.Sunlight.SunnyDayLikelihood / n
		region.Signature.Sunlight.ClearnessIndex += r.Signature.Sunlight.ClearnessIndex / n
	}

	majority := len(results)/2 + 1
	meets := func(name string) bool { return factorMeets[name] >= majority }

	region.Factors = []domain.FactorScore{
		{Name: domain.FactorTemperature, Score: factorScores[domain.FactorTemperature], Meets: meets(domain.FactorTemperature)},
		{Name: domain.FactorWind, Score: factorScores[domain.FactorWind], Meets: meets(domain.FactorWind)},
		{Name: domain.FactorRain, Score: factorScores[domain.FactorRain], Meets: meets(domain.FactorRain)},
		{Name: domain.FactorHumidity, Score: factorScores[domain.FactorHumidity], Meets: meets(domain.FactorHumidity)},
	}
	region.Signature.Temperature.Meets = meets(domain.FactorTemperature)
	region.Signature.Wind.Meets = meets(domain.FactorWind)
	region.Signature.Humidity.Meets = meets(domain.FactorHumidity)
	region.Signature.Precip.Meets = meets(domain.FactorRain)

	return region
}

func centroid(poly domain.Polygon) domain.Coordinate {
	verts := poly.Vertices()
	var c domain.Coordinate
	for _, v := range verts {
		c.Lat += v.Lat
		c.Lon += v.Lon
	}
	c.Lat /= float64(len(verts))
	c.Lon /= float64(len(verts))
	return c
}
