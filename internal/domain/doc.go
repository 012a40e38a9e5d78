// Package domain models climatological comfort scoring.
//
// # Data Source
//
// Climate statistics come from the NASA POWER temporal climatology point API
// (https://power.larc.nasa.gov/api/temporal/climatology/point), which exposes
// multi-decade normals per calendar month for a coordinate. Parameters used:
//
//	T2M, T2M_MAX, T2M_MIN    temperature at 2 m (°C): monthly mean, mean daily max/min
//	WS10M, WS10M_MAX         wind speed at 10 m (m/s): monthly mean, mean daily max
//	RH2M                     relative humidity at 2 m (%)
//	PRECTOTCORR              corrected precipitation (mm/day)
//	ALLSKY_SFC_SW_DWN        all-sky surface shortwave irradiance (kWh/m²/day)
//	KT                       clearness index (0–1)
//
// POWER encodes missing data as -999. A missing T2M means the cell has no
// usable climatology (open ocean, polar gaps); other parameters fall back to
// neutral defaults when absent.
//
// # Rain Chance
//
// POWER reports precipitation as a daily amount, not a probability. The
// estimated chance of a rainy day is min(amount × 15, 100): roughly, 1 mm/day
// of climatological precipitation corresponds to a 15% chance of rain on any
// given day. A heuristic, but stable and monotonic.
//
// # Scoring
//
// Each comfort factor maps the climatological mean against a user threshold
// to a 0–100 score. Temperature is a range factor: 100 inside
// [TempMin, TempMax], decaying linearly to 0 over a 10 °C margin beyond
// either edge. Wind, rain chance, and humidity are ceiling factors: 100 at or
// below the threshold, decaying linearly to 0 at twice the threshold. The
// composite is the weighted arithmetic mean over the fixed factor order
// temperature, wind, rain, humidity.
//
// # Calendar Days
//
// Climatology is year-agnostic: a request names a (month, day) pair and the
// year component is ignored by design. February 29 is a valid calendar day.
package domain
