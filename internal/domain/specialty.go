package domain

import "math"

// Specialty index names. Indices are informational only and never feed the
// composite score.
const (
	IndexGoldenHour        = "golden_hour_quality"
	IndexSunnyDay          = "sunny_day_likelihood"
	IndexUncomfortableHeat = "uncomfortable_heat_chance"
	IndexOutdoorActivity   = "outdoor_activity_index"
)

// Fixed bands for the outdoor activity index. These are climatological
// constants, not user preferences: the index must depend on the distribution
// alone.
const (
	outdoorTempLow  = 15.0 // °C
	outdoorTempHigh = 25.0 // °C
	outdoorWindZero = 10.0 // m/s at which the wind component reaches 0
)

// HeatIndex calculates perceived temperature in °C from air temperature (°C)
// and relative humidity (%). A simplified version of the NOAA formula: the
// regression operates in Fahrenheit, with a cheaper linear form below 80 °F.
func HeatIndex(tempC, rh float64) float64 {
	tF := tempC*9/5 + 32

	var hiF float64
	if tF < 80 {
		hiF = 0.5 * (tF + 61.0 + (tF-68.0)*1.2 + rh*0.094)
	} else {
		hiF = -42.379 + 2.04901523*tF + 10.14333127*rh -
			0.22475541*tF*rh - 0.00683783*tF*tF - 0.05481717*rh*rh +
			0.00122874*tF*tF*rh + 0.00085282*tF*rh*rh - 0.00000199*tF*tF*rh*rh
	}

	return (hiF - 32) * 5 / 9
}

// SpecialtyIndices derives the secondary indices from the distribution.
// Every index is bounded to [0, 100] and monotonic in its documented
// direction.
func SpecialtyIndices(dist ClimateDistribution) map[string]float64 {
	return map[string]float64{
		IndexGoldenHour:        goldenHourQuality(dist),
		IndexSunnyDay:          sunnyDayLikelihood(dist),
		IndexUncomfortableHeat: uncomfortableHeatChance(dist),
		IndexOutdoorActivity:   outdoorActivityIndex(dist),
	}
}

// goldenHourQuality: clearer skies make better golden hours. Clearness index
// scaled to 0–100.
func goldenHourQuality(dist ClimateDistribution) float64 {
	return clamp100(dist.Clearness * 100)
}

// sunnyDayLikelihood uses the clearness index as a direct proxy for the
// chance of a predominantly sunny day.
func sunnyDayLikelihood(dist ClimateDistribution) float64 {
	return clamp100(dist.Clearness * 100)
}

// uncomfortableHeatChance estimates how likely heat plus humidity will feel
// oppressive. Zero below a 27 °C mean; above it, each heat-index degree past
// 27 °C adds 10 points.
func uncomfortableHeatChance(dist ClimateDistribution) float64 {
	if dist.TempAvg <= 27 {
		return 0
	}
	hi := HeatIndex(dist.TempAvg, dist.HumidityAvg)
	return clamp100((hi - 27) * 10)
}

// outdoorActivityIndex blends four equally-weighted components: dry days,
// calm wind, temperatures near a fixed 15–25 °C band, and clear skies. More
// rain or wind never raises it; temperatures further from the band never
// raise it.
func outdoorActivityIndex(dist ClimateDistribution) float64 {
	dry := 100 - dist.RainChance()

	calm := 100 * (1 - dist.WindAvg/outdoorWindZero)
	calm = clamp100(calm)

	temperate, _ := ScoreRange(dist.TempAvg, outdoorTempLow, outdoorTempHigh)

	clear := clamp100(dist.Clearness * 100)

	return (dry + calm + temperate + clear) / 4
}

func clamp100(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
