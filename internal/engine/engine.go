// Package engine orchestrates the scoring operations: it validates requests,
// pulls climate normals through the ClimatologySource, runs the domain
// pipeline, and hands successful results to the optional exporter. All
// business rules live in domain; the engine only sequences them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
	"github.com/atmoslabs/comfort-engine/internal/sampler"
)

// ResultExporter publishes a scored result to an external sink.
type ResultExporter interface {
	Export(ctx context.Context, result domain.ComfortResult) error
}

// healthReporter is implemented by sources that can report upstream health,
// such as the POWER client behind its circuit breaker.
type healthReporter interface {
	Healthy() error
}

// InferredProfile is the result of profile inference at a coordinate: the
// thresholds and weights a caller could start from, plus where they came from.
type InferredProfile struct {
	Profile  domain.ComfortProfile `json:"profile"`
	Weights  domain.WeightSet      `json:"weights"`
	Location string                `json:"location"`
	Coord    domain.Coordinate     `json:"coordinate"`
	Day      domain.CalendarDay    `json:"calendar_day"`
}

// Engine is the application service behind the HTTP transport.
type Engine struct {
	source         domain.ClimatologySource
	sampler        *sampler.Sampler
	exporter       ResultExporter // nil when export is disabled
	maxSampleCount int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// New creates an Engine. exporter may be nil.
func New(source domain.ClimatologySource, s *sampler.Sampler, exporter ResultExporter, maxSampleCount int, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:         source,
		sampler:        s,
		exporter:       exporter,
		maxSampleCount: maxSampleCount,
		logger:         logger,
		metrics:        metrics,
	}
}

// CheckReadiness reports whether the engine can serve scoring requests. It
// delegates to the source's health report when available; a source without
// one is assumed ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if hr, ok := e.source.(healthReporter); ok {
		return hr.Healthy()
	}
	return nil
}

// ScorePoint evaluates one coordinate for one calendar day. All inputs are
// validated before any network fetch, so bad requests never cost an upstream
// call.
func (e *Engine) ScorePoint(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) (domain.ComfortResult, error) {
	start := time.Now()

	if err := validateRequest(coord, day, profile, weights); err != nil {
		e.metrics.Requests.WithLabelValues("point", "error").Inc()
		return domain.ComfortResult{}, err
	}

	dist, err := e.source.Climatology(ctx, coord, day)
	if err != nil {
		e.metrics.Requests.WithLabelValues("point", "error").Inc()
		return domain.ComfortResult{}, err
	}

	result, err := domain.Evaluate(dist, profile, weights)
	if err != nil {
		e.metrics.Requests.WithLabelValues("point", "error").Inc()
		return domain.ComfortResult{}, err
	}

	e.metrics.Requests.WithLabelValues("point", "success").Inc()
	e.metrics.EvaluationDuration.WithLabelValues("point").Observe(time.Since(start).Seconds())
	e.export(ctx, result)
	return result, nil
}

// ScoreRegion evaluates a polygon by sampling sampleCount interior points and
// aggregating the successes. The sample list follows generation order, failed
// indices included.
func (e *Engine) ScoreRegion(ctx context.Context, vertices []domain.Coordinate, sampleCount int, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) (domain.ComfortResult, []domain.SamplePoint, error) {
	start := time.Now()

	fail := func(err error) (domain.ComfortResult, []domain.SamplePoint, error) {
		e.metrics.Requests.WithLabelValues("region", "error").Inc()
		return domain.ComfortResult{}, nil, err
	}

	poly, err := domain.NewPolygon(vertices)
	if err != nil {
		return fail(err)
	}
	if sampleCount < 1 || sampleCount > e.maxSampleCount {
		return fail(&domain.ValidationError{
			Field:  "sample_count",
			Reason: fmt.Sprintf("must be between 1 and %d", e.maxSampleCount),
		})
	}
	if err := day.Validate(); err != nil {
		return fail(err)
	}
	if err := profile.Validate(); err != nil {
		return fail(err)
	}
	if err := weights.Validate(); err != nil {
		return fail(err)
	}
	if weights.Sum() == 0 {
		return fail(domain.ErrDegenerateWeights)
	}

	result, samples, err := e.sampler.SampleRegion(ctx, poly, sampleCount, day, profile, weights)
	if err != nil {
		e.metrics.Requests.WithLabelValues("region", "error").Inc()
		return domain.ComfortResult{}, samples, err
	}

	e.metrics.Requests.WithLabelValues("region", "success").Inc()
	e.metrics.EvaluationDuration.WithLabelValues("region").Observe(time.Since(start).Seconds())
	e.export(ctx, result)
	return result, samples, nil
}

// InferProfile derives starter thresholds and weights from the local climate,
// so first-time callers get a profile the location can actually satisfy.
func (e *Engine) InferProfile(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay) (InferredProfile, error) {
	if err := coord.Validate(); err != nil {
		e.metrics.Requests.WithLabelValues("infer", "error").Inc()
		return InferredProfile{}, err
	}
	if err := day.Validate(); err != nil {
		e.metrics.Requests.WithLabelValues("infer", "error").Inc()
		return InferredProfile{}, err
	}

	dist, err := e.source.Climatology(ctx, coord, day)
	if err != nil {
		e.metrics.Requests.WithLabelValues("infer", "error").Inc()
		return InferredProfile{}, err
	}

	profile, weights := domain.InferDefaults(dist)
	e.metrics.Requests.WithLabelValues("infer", "success").Inc()
	return InferredProfile{
		Profile:  profile,
		Weights:  weights,
		Location: dist.SourceTitle,
		Coord:    coord,
		Day:      day,
	}, nil
}

// export publishes a result when an exporter is configured. Export failures
// are logged and counted, never surfaced to the caller.
func (e *Engine) export(ctx context.Context, result domain.ComfortResult) {
	if e.exporter == nil {
		return
	}
	if err := e.exporter.Export(ctx, result); err != nil {
		e.metrics.Exports.WithLabelValues("error").Inc()
		e.logger.Warn("result export failed", "error", err, "location", result.Location)
		return
	}
	e.metrics.Exports.WithLabelValues("success").Inc()
}

// validateRequest checks every point-scoring input before any fetch, so the
// degenerate-weights case is caught up front rather than after an upstream
// round trip.
func validateRequest(coord domain.Coordinate, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	if err := day.Validate(); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if weights.Sum() == 0 {
		return domain.ErrDegenerateWeights
	}
	return nil
}
