package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ComfortProfile holds the user's comfort thresholds. Temperature is a range;
// wind, rain chance, and humidity are ceilings.
type ComfortProfile struct {
	TempMin       float64 `json:"temp_min" validate:"gte=-90,lte=60"`
	TempMax       float64 `json:"temp_max" validate:"gte=-90,lte=60,gtefield=TempMin"`
	WindMax       float64 `json:"wind_max" validate:"gte=0,lte=150"`
	RainChanceMax float64 `json:"rain_chance_max" validate:"gte=0,lte=100"`
	HumidityMax   float64 `json:"humidity_max" validate:"gte=0,lte=100"`
}

// DefaultProfile returns the baseline thresholds used when a caller supplies
// none: a mild 10–25 °C band, 15 m/s wind, 20% rain chance, 80% humidity.
func DefaultProfile() ComfortProfile {
	return ComfortProfile{
		TempMin:       10,
		TempMax:       25,
		WindMax:       15,
		RainChanceMax: 20,
		HumidityMax:   80,
	}
}

// Validate checks the profile invariants: TempMin ≤ TempMax, all ceilings
// non-negative, percentage ceilings ≤ 100.
func (p ComfortProfile) Validate() error {
	return wrapStructError(validate.Struct(p))
}

// WeightSet holds per-factor importance weights, each in [0, 3]. An all-zero
// set is degenerate; see ErrDegenerateWeights.
type WeightSet struct {
	Temperature float64 `json:"temperature" validate:"gte=0,lte=3"`
	Wind        float64 `json:"wind" validate:"gte=0,lte=3"`
	Rain        float64 `json:"rain" validate:"gte=0,lte=3"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=3"`
}

// DefaultWeights weighs every factor equally.
func DefaultWeights() WeightSet {
	return WeightSet{Temperature: 1, Wind: 1, Rain: 1, Humidity: 1}
}

// Sum returns the total weight across all four factors.
func (w WeightSet) Sum() float64 {
	return w.Temperature + w.Wind + w.Rain + w.Humidity
}

// Validate checks every weight lies in [0, 3]. A zero sum is legal here;
// Aggregate reports it as ErrDegenerateWeights.
func (w WeightSet) Validate() error {
	return wrapStructError(validate.Struct(w))
}

// wrapStructError converts a validator error into the domain taxonomy,
// keeping the offending field name for the transport layer.
func wrapStructError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Field: "profile", Reason: err.Error()}
	}
	first := verrs[0]
	return &ValidationError{
		Field:  strings.ToLower(first.Field()),
		Reason: "fails constraint " + first.Tag(),
	}
}
