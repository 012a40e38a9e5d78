package domain

import "time"

// Signature is the per-location bundle of raw and derived climate values
// returned for visualization, mirroring the factor structure of the score.
type Signature struct {
	Temperature TemperatureBand `json:"temperature"`
	Wind        WindBand        `json:"wind"`
	Humidity    HumidityBand    `json:"humidity"`
	Precip      PrecipBand      `json:"precipitation"`
	Sunlight    SunlightBand    `json:"sunlight"`
}

// TemperatureBand reports the climatological temperature normals in °C.
type TemperatureBand struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Meets bool    `json:"meets_profile"`
}

// WindBand reports wind speed normals in m/s.
type WindBand struct {
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Meets bool    `json:"meets_profile"`
}

// HumidityBand reports relative humidity in %.
type HumidityBand struct {
	Avg   float64 `json:"avg"`
	Meets bool    `json:"meets_profile"`
}

// PrecipBand reports the daily precipitation amount (mm/day) and the derived
// rain chance (%).
type PrecipBand struct {
	AvgDailyAmount       float64 `json:"avg_daily_amount"`
	EstimatedDailyChance float64 `json:"estimated_daily_chance"`
	Meets                bool    `json:"meets_profile"`
}

// SunlightBand reports the clearness index and the derived sunny-day
// likelihood (%).
type SunlightBand struct {
	SunnyDayLikelihood float64 `json:"sunny_day_likelihood"`
	ClearnessIndex     float64 `json:"clearness_index"`
}

// RegionMetadata describes how a region result was sampled.
type RegionMetadata struct {
	Requested int `json:"requested_samples"`
	Generated int `json:"generated_samples"`
	Succeeded int `json:"succeeded_samples"`
	Failed    int `json:"failed_samples"`
}

// ComfortResult is the full evaluation of one point (or one region) for one
// calendar day. Built once per request and not mutated afterwards.
type ComfortResult struct {
	Composite   float64            `json:"overall_score"`
	Location    string             `json:"location"`
	Coord       Coordinate         `json:"coordinate"`
	Day         CalendarDay        `json:"calendar_day"`
	Factors     []FactorScore      `json:"factor_scores"`
	Signature   Signature          `json:"atmospheric_signature"`
	Specialty   map[string]float64 `json:"specialty_scores"`
	Region      *RegionMetadata    `json:"region,omitempty"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}

// SamplePoint is one region sample in generation order. Failed samples stay
// in the list (the index sequence is preserved for visualization) but are
// excluded from aggregation.
type SamplePoint struct {
	Index     int        `json:"index"`
	Coord     Coordinate `json:"coordinate"`
	OK        bool       `json:"ok"`
	Composite float64    `json:"overall_score"`
	Signature *Signature `json:"atmospheric_signature,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Evaluate runs the point scoring pipeline over an already-fetched
// distribution: factor scores in fixed order, weighted composite, specialty
// indices, signature assembly. Pure apart from the EvaluatedAt timestamp.
func Evaluate(dist ClimateDistribution, profile ComfortProfile, weights WeightSet) (ComfortResult, error) {
	factors := FactorScores(dist, profile)

	composite, err := Aggregate(factors, weights)
	if err != nil {
		return ComfortResult{}, err
	}

	return ComfortResult{
		Composite:   composite,
		Location:    dist.SourceTitle,
		Coord:       dist.Coord,
		Day:         dist.Day,
		Factors:     factors,
		Signature:   buildSignature(dist, factors),
		Specialty:   SpecialtyIndices(dist),
		EvaluatedAt: clock.Now().UTC(),
	}, nil
}

func buildSignature(dist ClimateDistribution, factors []FactorScore) Signature {
	meets := map[string]bool{}
	for _, f := range factors {
		meets[f.Name] = f.Meets
	}

	return Signature{
		Temperature: TemperatureBand{
			Avg:   dist.TempAvg,
			Min:   dist.TempMin,
			Max:   dist.TempMax,
			Meets: meets[FactorTemperature],
		},
		Wind: WindBand{
			Avg:   dist.WindAvg,
			Max:   dist.WindMax,
			Meets: meets[FactorWind],
		},
		Humidity: HumidityBand{
			Avg:   dist.HumidityAvg,
			Meets: meets[FactorHumidity],
		},
		Precip: PrecipBand{
			AvgDailyAmount:       dist.PrecipAvg,
			EstimatedDailyChance: dist.RainChance(),
			Meets:                meets[FactorRain],
		},
		Sunlight: SunlightBand{
			SunnyDayLikelihood: clamp100(dist.Clearness * 100),
			ClearnessIndex:     dist.Clearness,
		},
	}
}
