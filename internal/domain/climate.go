package domain

import "fmt"

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate lies on the globe.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: "lat", Reason: fmt.Sprintf("latitude %g outside [-90, 90]", c.Lat)}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Field: "lon", Reason: fmt.Sprintf("longitude %g outside [-180, 180]", c.Lon)}
	}
	return nil
}

// CalendarDay is a year-independent (month, day) pair.
type CalendarDay struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// daysInMonth allows February 29: climatology has no year to leap.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Validate checks that the day exists in the month.
func (d CalendarDay) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return &ValidationError{Field: "month", Reason: fmt.Sprintf("month %d outside [1, 12]", d.Month)}
	}
	if d.Day < 1 || d.Day > daysInMonth[d.Month] {
		return &ValidationError{Field: "day", Reason: fmt.Sprintf("day %d invalid for month %d", d.Day, d.Month)}
	}
	return nil
}

// ClimateDistribution holds the multi-decade climate statistics for one
// (coordinate, calendar day). Immutable once fetched; owned by the request
// that fetched it. Values use POWER units: °C, m/s, %, mm/day, kWh/m²/day.
type ClimateDistribution struct {
	Coord Coordinate
	Day   CalendarDay

	TempAvg float64
	TempMin float64 // mean daily minimum
	TempMax float64 // mean daily maximum

	WindAvg float64
	WindMax float64

	HumidityAvg float64

	PrecipAvg float64 // mm/day

	Clearness  float64 // clearness index KT, 0–1
	Insolation float64 // kWh/m²/day

	Years       int    // record length behind the normals
	SourceTitle string // human-readable location label from the source header
}

// rainChanceFactor converts climatological mm/day into an estimated chance of
// a rainy day. See the package doc.
const rainChanceFactor = 15.0

// RainChance estimates the probability (0–100) of a rainy day.
func (d ClimateDistribution) RainChance() float64 {
	chance := d.PrecipAvg * rainChanceFactor
	if chance > 100 {
		return 100
	}
	if chance < 0 {
		return 0
	}
	return chance
}

// TempDeviation proxies the day-to-day temperature spread. POWER climatology
// exposes monthly normals rather than per-year samples, so the spread is
// estimated from the mean daily range: (max − min) / 4, the usual
// normal-range heuristic.
func (d ClimateDistribution) TempDeviation() float64 {
	dev := (d.TempMax - d.TempMin) / 4
	if dev < 0 {
		return 0
	}
	return dev
}
