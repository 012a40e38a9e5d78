package domain

import "context"

// ClimatologySource supplies the multi-decade climate distribution for a
// coordinate and calendar day. It is the external collaborator boundary:
// both scoring and profile inference go through it rather than duplicating
// fetch logic.
//
// Implementations return *NoClimatologyError when the source holds no record
// for the coordinate and *SourceUnavailableError when the fetch itself fails.
type ClimatologySource interface {
	Climatology(ctx context.Context, coord Coordinate, day CalendarDay) (ClimateDistribution, error)
}
