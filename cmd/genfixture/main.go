// Command genfixture writes a deterministic NASA POWER style climatology
// response plus the comfort result the engine computes from it. The fixtures
// feed the adapter tests and give the frontend a stable payload to develop
// against.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -response-out data/fixtures/power_london.json \
//	  -result-out data/fixtures/result_london.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/atmoslabs/comfort-engine/internal/domain"
)

// Monthly normals for the fixture cell, loosely based on London averages.
type monthly struct {
	tempAvg, tempMin, tempMax float64
	windAvg, windMax          float64
	humidity, precip          float64
	clearness, insolation     float64
}

var months = [12]monthly{
	{5.2, 2.3, 8.1, 4.9, 9.4, 84, 1.8, 0.31, 0.8},
	{5.5, 2.1, 8.9, 4.8, 9.2, 80, 1.4, 0.35, 1.5},
	{7.9, 3.6, 12.1, 4.7, 9.0, 76, 1.3, 0.40, 2.6},
	{10.6, 5.2, 15.9, 4.3, 8.4, 72, 1.4, 0.44, 4.0},
	{13.9, 8.1, 19.6, 4.0, 7.8, 70, 1.5, 0.46, 5.1},
	{17.0, 11.2, 22.7, 3.9, 7.5, 69, 1.4, 0.47, 5.6},
	{18.5, 13.2, 23.8, 4.1, 7.9, 68, 1.2, 0.48, 5.4},
	{18.2, 13.0, 23.4, 4.0, 7.7, 69, 1.6, 0.46, 4.6},
	{15.5, 10.7, 20.2, 4.2, 8.1, 73, 1.5, 0.43, 3.4},
	{12.0, 8.0, 15.8, 4.4, 8.6, 78, 2.1, 0.38, 2.0},
	{8.1, 4.8, 11.2, 4.6, 9.0, 83, 2.2, 0.33, 1.1},
	{5.6, 2.6, 8.4, 4.8, 9.3, 85, 2.0, 0.29, 0.7},
}

var monthKeys = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	responseOut := flag.String("response-out", "", "output path for the POWER style response fixture")
	resultOut := flag.String("result-out", "", "output path for the expected comfort result fixture")
	lat := flag.Float64("lat", 51.5074, "fixture latitude")
	lon := flag.Float64("lon", -0.1278, "fixture longitude")
	month := flag.Int("month", 7, "calendar month for the expected result")
	day := flag.Int("day", 15, "calendar day for the expected result")
	title := flag.String("title", "London, United Kingdom", "location title in the response header")
	flag.Parse()

	if *responseOut == "" || *resultOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -response-out, -result-out")
	}

	// Fixed clock for a reproducible EvaluatedAt.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	if err := writeJSON(*responseOut, buildResponse(*title)); err != nil {
		return fmt.Errorf("writing response fixture: %w", err)
	}
	log.Printf("wrote response fixture: %s", *responseOut)

	coord := domain.Coordinate{Lat: *lat, Lon: *lon}
	calDay := domain.CalendarDay{Month: *month, Day: *day}
	if err := coord.Validate(); err != nil {
		return err
	}
	if err := calDay.Validate(); err != nil {
		return err
	}

	m := months[*month-1]
	dist := domain.ClimateDistribution{
		Coord:       coord,
		Day:         calDay,
		TempAvg:     m.tempAvg,
		TempMin:     m.tempMin,
		TempMax:     m.tempMax,
		WindAvg:     m.windAvg,
		WindMax:     m.windMax,
		HumidityAvg: m.humidity,
		PrecipAvg:   m.precip,
		Clearness:   m.clearness,
		Insolation:  m.insolation,
		Years:       40,
		SourceTitle: *title,
	}

	result, err := domain.Evaluate(dist, domain.DefaultProfile(), domain.DefaultWeights())
	if err != nil {
		return fmt.Errorf("evaluating fixture: %w", err)
	}

	if err := writeJSON(*resultOut, result); err != nil {
		return fmt.Errorf("writing result fixture: %w", err)
	}
	log.Printf("wrote result fixture: %s", *resultOut)

	log.Printf("composite: %.2f, factors: %d, specialty: %d",
		result.Composite, len(result.Factors), len(result.Specialty))
	return nil
}

// buildResponse assembles the POWER response shape: parameter name to monthly
// key to value.
func buildResponse(title string) map[string]any {
	params := map[string]map[string]float64{
		"T2M":               {},
		"T2M_MIN":           {},
		"T2M_MAX":           {},
		"WS10M":             {},
		"WS10M_MAX":         {},
		"RH2M":              {},
		"PRECTOTCORR":       {},
		"KT":                {},
		"ALLSKY_SFC_SW_DWN": {},
	}
	for i, key := range monthKeys {
		m := months[i]
		params["T2M"][key] = m.tempAvg
		params["T2M_MIN"][key] = m.tempMin
		params["T2M_MAX"][key] = m.tempMax
		params["WS10M"][key] = m.windAvg
		params["WS10M_MAX"][key] = m.windMax
		params["RH2M"][key] = m.humidity
		params["PRECTOTCORR"][key] = m.precip
		params["KT"][key] = m.clearness
		params["ALLSKY_SFC_SW_DWN"][key] = m.insolation
	}

	return map[string]any{
		"properties": map[string]any{"parameter": params},
		"header":     map[string]any{"title": title},
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
