package domain

// Factor names, in the fixed aggregation order.
const (
	FactorTemperature = "temperature"
	FactorWind        = "wind"
	FactorRain        = "rain"
	FactorHumidity    = "humidity"
)

const (
	// tempFalloffMargin is how far (°C) outside the comfort band the
	// temperature score takes to decay from 100 to 0.
	tempFalloffMargin = 10.0

	// ceilingFalloffMultiple: a ceiling factor's score reaches 0 at
	// threshold × ceilingFalloffMultiple. With a zero threshold the score
	// saturates to 0 for any positive mean (no division).
	ceilingFalloffMultiple = 2.0
)

// FactorScore is one factor's continuous 0–100 match score plus the hard
// threshold verdict. Meets derives from the mean against the threshold alone,
// independent of the decay curve.
type FactorScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Meets bool    `json:"meets_profile"`
}

// ScoreRange scores a range factor: 100 when mean lies inside [low, high]
// (inclusive), decaying linearly to 0 over tempFalloffMargin beyond either
// edge. Pure and deterministic.
func ScoreRange(mean, low, high float64) (float64, bool) {
	if mean >= low && mean <= high {
		return 100, true
	}
	var overshoot float64
	if mean < low {
		overshoot = low - mean
	} else {
		overshoot = mean - high
	}
	score := 100 * (1 - overshoot/tempFalloffMargin)
	if score < 0 {
		score = 0
	}
	return score, false
}

// ScoreCeiling scores a ceiling factor: 100 when mean ≤ max, decaying
// linearly to 0 at max × ceilingFalloffMultiple. A zero ceiling saturates
// immediately rather than dividing by zero.
func ScoreCeiling(mean, max float64) (float64, bool) {
	if mean <= max {
		return 100, true
	}
	if max <= 0 {
		return 0, false
	}
	score := 100 * (1 - (mean-max)/(max*(ceilingFalloffMultiple-1)))
	if score < 0 {
		score = 0
	}
	return score, false
}

// FactorScores evaluates all four comfort factors against the profile, in
// the fixed order temperature, wind, rain, humidity.
func FactorScores(dist ClimateDistribution, profile ComfortProfile) []FactorScore {
	tempScore, tempMeets := ScoreRange(dist.TempAvg, profile.TempMin, profile.TempMax)
	windScore, windMeets := ScoreCeiling(dist.WindAvg, profile.WindMax)
	rainScore, rainMeets := ScoreCeiling(dist.RainChance(), profile.RainChanceMax)
	humScore, humMeets := ScoreCeiling(dist.HumidityAvg, profile.HumidityMax)

	return []FactorScore{
		{Name: FactorTemperature, Score: tempScore, Meets: tempMeets},
		{Name: FactorWind, Score: windScore, Meets: windMeets},
		{Name: FactorRain, Score: rainScore, Meets: rainMeets},
		{Name: FactorHumidity, Score: humScore, Meets: humMeets},
	}
}

// Aggregate combines factor scores into the weighted composite:
// Σ(score × weight) / Σ(weight). Returns ErrDegenerateWeights when the
// weight sum is zero.
func Aggregate(scores []FactorScore, weights WeightSet) (float64, error) {
	total := weights.Sum()
	if total == 0 {
		return 0, ErrDegenerateWeights
	}

	byName := map[string]float64{
		FactorTemperature: weights.Temperature,
		FactorWind:        weights.Wind,
		FactorRain:        weights.Rain,
		FactorHumidity:    weights.Humidity,
	}

	var weighted float64
	for _, s := range scores {
		weighted += s.Score * byName[s.Name]
	}
	return weighted / total, nil
}
