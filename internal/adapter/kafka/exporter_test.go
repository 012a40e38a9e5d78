package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslabs/comfort-engine/internal/domain"
)

type capturingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (c *capturingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *capturingWriter) Close() error {
	c.closed = true
	return nil
}

func sampleResult() domain.ComfortResult {
	return domain.ComfortResult{
		Composite:   87.5,
		Location:    "London, United Kingdom",
		Coord:       domain.Coordinate{Lat: 51.5074, Lon: -0.1278},
		Day:         domain.CalendarDay{Month: 7, Day: 15},
		EvaluatedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSerializeResult(t *testing.T) {
	msg, err := serializeResult(sampleResult())
	require.NoError(t, err)

	assert.Equal(t, []byte("51.5074,-0.1278|07-15"), msg.Key)
	assert.Contains(t, string(msg.Value), `"overall_score":87.5`)
	assert.Contains(t, string(msg.Value), `"location":"London, United Kingdom"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("point"), msg.Headers[0].Value)
	assert.Equal(t, "evaluated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-07-01T12:00:00Z"), msg.Headers[1].Value)
}

func TestSerializeResult_RegionMode(t *testing.T) {
	result := sampleResult()
	result.Region = &domain.RegionMetadata{Requested: 9, Generated: 9, Succeeded: 9}

	msg, err := serializeResult(result)
	require.NoError(t, err)
	assert.Equal(t, []byte("region"), msg.Headers[0].Value)
}

func TestExporter_PublishesResult(t *testing.T) {
	w := &capturingWriter{}
	e := &Exporter{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, e.Export(context.Background(), sampleResult()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("51.5074,-0.1278|07-15"), w.msgs[0].Key)
}

func TestExporter_PropagatesWriteError(t *testing.T) {
	w := &capturingWriter{err: context.DeadlineExceeded}
	e := &Exporter{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.Error(t, e.Export(context.Background(), sampleResult()))
}

func TestExporter_Close(t *testing.T) {
	w := &capturingWriter{}
	e := &Exporter{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, e.Close())
	assert.True(t, w.closed)
}
