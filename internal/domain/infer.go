package domain

// Profile inference constants. The inferred band is centered on the
// historical normals; the margins are fixed so inference is deterministic.
const (
	tempBandMultiplier = 1.0 // band half-width in temperature deviations

	windSafetyMargin       = 4.0  // m/s above the mean wind
	rainChanceSafetyMargin = 10.0 // points above the estimated rain chance
	humiditySafetyMargin   = 10.0 // points above the mean humidity
)

// Legal profile bounds, matching the ComfortProfile validation tags.
const (
	profileTempFloor   = -90.0
	profileTempCeil    = 60.0
	profileWindCeil    = 150.0
	profilePercentCeil = 100.0
)

// InferDefaults derives a comfort profile from the location's own
// climatology: a temperature band of mean ± 1 deviation, and ceilings of the
// historical mean plus a fixed safety margin, all clamped to the legal
// profile range. Weights are a fixed equal baseline, not climatology-derived.
// The returned profile always satisfies the ComfortProfile invariants.
func InferDefaults(dist ClimateDistribution) (ComfortProfile, WeightSet) {
	halfBand := tempBandMultiplier * dist.TempDeviation()

	profile := ComfortProfile{
		TempMin:       clampRange(dist.TempAvg-halfBand, profileTempFloor, profileTempCeil),
		TempMax:       clampRange(dist.TempAvg+halfBand, profileTempFloor, profileTempCeil),
		WindMax:       clampRange(dist.WindAvg+windSafetyMargin, 0, profileWindCeil),
		RainChanceMax: clampRange(dist.RainChance()+rainChanceSafetyMargin, 0, profilePercentCeil),
		HumidityMax:   clampRange(dist.HumidityAvg+humiditySafetyMargin, 0, profilePercentCeil),
	}

	return profile, DefaultWeights()
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
