// Command genmock generates synthetic input fixtures for local development
// and integration testing: a county time-series CSV and a matching city
// gazetteer CSV. The output is deterministic for a given seed and includes
// the awkward rows the normalizer must handle: special-case city labels,
// "Unknown" rows, and empty FIPS cells.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -timeseries-out data/mock/us-counties.csv \
//	  -gazetteer-out data/mock/uscities.csv \
//	  -days 120
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var startDate = time.Date(2020, time.January, 21, 0, 0, 0, 0, time.UTC)

// county is one synthetic reporting unit. Label is what appears in the
// county column of the time series; empty fips marks city-labeled rows.
type county struct {
	label string
	state string
	fips  string

	// Growth shape: rough population scale drives case magnitude.
	scale int
}

var counties = []county{
	{label: "King", state: "Washington", fips: "53033", scale: 2200},
	{label: "Snohomish", state: "Washington", fips: "53061", scale: 800},
	{label: "Cook", state: "Illinois", fips: "17031", scale: 5100},
	{label: "Travis", state: "Texas", fips: "48453", scale: 1200},
	{label: "Harris", state: "Texas", fips: "48201", scale: 4700},
	{label: "Jasper", state: "Missouri", fips: "29097", scale: 120},
	// City-labeled rows arrive with no FIPS; the engine remaps them.
	{label: "New York City", state: "New York", fips: "", scale: 8400},
	{label: "Kansas City", state: "Missouri", fips: "", scale: 500},
	{label: "Joplin", state: "Missouri", fips: "", scale: 50},
	// Unattributable rows the engine must drop.
	{label: "Unknown", state: "Rhode Island", fips: "", scale: 60},
}

// gazetteerRows covers every location the time series references plus a few
// cities that only matter for search and suggestions.
var gazetteerRows = [][]string{
	{"Seattle", "WA", "Washington", "53033", "King"},
	{"Everett", "WA", "Washington", "53061", "Snohomish"},
	{"Chicago", "IL", "Illinois", "17031", "Cook"},
	{"Austin", "TX", "Texas", "48453", "Travis"},
	{"Houston", "TX", "Texas", "48201", "Harris"},
	{"New York", "NY", "New York", "36061", "New York"},
	{"New York City", "NY", "New York", "36061", "New York"},
	{"Kansas City", "MO", "Missouri", "29095", "Jackson"},
	{"Independence", "MO", "Missouri", "29095", "Jackson"},
	{"Joplin", "MO", "Missouri", "29097", "Jasper"},
	{"Springfield", "MO", "Missouri", "29077", "Greene"},
	{"Providence", "RI", "Rhode Island", "44007", "Providence"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	timeseriesOut := flag.String("timeseries-out", "", "output path for the time-series CSV")
	gazetteerOut := flag.String("gazetteer-out", "", "output path for the gazetteer CSV")
	days := flag.Int("days", 120, "number of days to generate")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *timeseriesOut == "" || *gazetteerOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -timeseries-out, -gazetteer-out")
	}
	if *days < 1 {
		return fmt.Errorf("-days must be positive")
	}

	if err := writeGazetteer(*gazetteerOut); err != nil {
		return fmt.Errorf("writing gazetteer: %w", err)
	}
	log.Printf("wrote gazetteer fixture: %s (%d rows)", *gazetteerOut, len(gazetteerRows))

	rows, err := writeTimeSeries(*timeseriesOut, *days, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return fmt.Errorf("writing time series: %w", err)
	}
	log.Printf("wrote time-series fixture: %s (%d rows, %d days, %d locations)",
		*timeseriesOut, rows, *days, len(counties))
	return nil
}

func writeGazetteer(path string) error {
	w, f, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"city", "state_id", "state_name", "county_fips", "county_name"}); err != nil {
		return err
	}
	for _, row := range gazetteerRows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeTimeSeries emits cumulative counts following a staggered logistic-ish
// ramp: each location starts on a random day and grows until it plateaus.
// Counts never decrease, matching the cumulative contract.
func writeTimeSeries(path string, days int, rng *rand.Rand) (int, error) {
	w, f, err := createCSV(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"date", "county", "state", "fips", "cases", "deaths"}); err != nil {
		return 0, err
	}

	type track struct {
		firstDay int
		cases    int
		deaths   int
	}
	tracks := make([]track, len(counties))
	for i := range tracks {
		tracks[i].firstDay = rng.Intn(days/3 + 1)
	}

	rows := 0
	for d := 0; d < days; d++ {
		date := startDate.AddDate(0, 0, d).Format("2006-01-02")
		for i, c := range counties {
			tr := &tracks[i]
			if d < tr.firstDay {
				continue
			}

			// Daily growth proportional to scale, noisy, tapering with time.
			ramp := float64(days-d) / float64(days)
			growth := int(float64(c.scale) / 50 * ramp * rng.Float64())
			if d == tr.firstDay {
				growth = 1 + rng.Intn(3)
			}
			tr.cases += growth
			if tr.cases > 20 && rng.Float64() < 0.3 {
				tr.deaths += 1 + rng.Intn(2)
			}

			if err := w.Write([]string{
				date, c.label, c.state, c.fips,
				strconv.Itoa(tr.cases), strconv.Itoa(tr.deaths),
			}); err != nil {
				return rows, err
			}
			rows++
		}
	}

	w.Flush()
	return rows, w.Error()
}

func createCSV(path string) (*csv.Writer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewWriter(f), f, nil
}
