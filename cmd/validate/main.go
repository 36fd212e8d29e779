// Command validate performs end-to-end data integrity checks across the two
// input files: the county time-series CSV and the city gazetteer CSV. It
// verifies schema and parseability, location normalization invariants,
// period catalog shape, and aggregation consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -timeseries data/us-counties.csv \
//	  -gazetteer data/uscities.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/covid-data-engine/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-engine/internal/dataset"
	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported bounds per-phase error output so a systematically broken file
// does not flood the terminal.
const maxReported = 25

func main() {
	timeseries := flag.String("timeseries", "", "path to the county time-series CSV")
	gazetteer := flag.String("gazetteer", "", "path to the city gazetteer CSV")
	flag.Parse()

	if *timeseries == "" || *gazetteer == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*timeseries, *gazetteer); code != 0 {
		os.Exit(code)
	}
}

func run(timeseriesPath, gazetteerPath string) int {
	ctx := context.Background()

	fmt.Println("=== County Dataset Integrity Validation ===")
	fmt.Println()

	// ── Load both sources ──
	gazFile, err := os.Open(gazetteerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open gazetteer: %v\n", err)
		return 1
	}
	entries, err := csvfile.ParseGazetteer(ctx, gazFile)
	gazFile.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse gazetteer: %v\n", err)
		return 1
	}

	tsFile, err := os.Open(timeseriesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open time series: %v\n", err)
		return 1
	}
	raws, err := csvfile.ParseObservations(ctx, tsFile)
	tsFile.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse time series: %v\n", err)
		return 1
	}

	gaz := domain.NewGazetteer(entries)
	normalized, drops := normalizeAll(raws, gaz)
	store := dataset.NewStore(normalized)
	catalog := domain.NewPeriodCatalog(normalized)

	// ── Run validation phases ──
	phases := []*phase{
		validateGazetteer(entries, gaz),
		validateNormalization(raws, normalized, drops),
		validateCatalog(catalog, normalized),
		validateAggregation(store, catalog, normalized),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d gazetteer rows, %d time-series rows, %d normalized, %d dropped\n",
		len(entries), len(raws), len(normalized), drops)
	fmt.Printf("Dataset: %d locations, %d periods, latest %s\n",
		store.Locations(), catalog.Len(), store.LatestDate().Format("2006-01-02"))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func normalizeAll(raws []domain.RawObservation, gaz *domain.Gazetteer) ([]domain.NormalizedObservation, int) {
	out := make([]domain.NormalizedObservation, 0, len(raws))
	drops := 0
	for _, raw := range raws {
		obs, err := domain.Normalize(raw, gaz)
		if err != nil {
			drops++
			continue
		}
		out = append(out, obs)
	}
	return out, drops
}

// ── Phase 1: Gazetteer Shape ──
// The reference table must index at least one city and resolve every
// special-case city label the normalizer depends on.

func validateGazetteer(entries []domain.GazetteerEntry, gaz *domain.Gazetteer) *phase {
	p := &phase{name: "Phase 1: Gazetteer Shape"}

	if gaz.Len() == 0 {
		p.errorf("no cities indexed from %d rows", len(entries))
		return p
	}

	for city, state := range map[string]string{
		"New York City": "New York",
		"Kansas City":   "Missouri",
		"Joplin":        "Missouri",
	} {
		if _, err := gaz.CityFIPS(city, state); err == nil {
			continue
		}
		// The normalizer falls back to the target county, so a city miss is
		// only an error when the county is missing too.
		if info, err := gaz.ResolveCity(city); err == nil {
			if _, err := gaz.CountyFIPS(info.County, info.State); err == nil {
				continue
			}
		}
		p.errorf("special-case city %q, %q resolves to no FIPS", city, state)
	}

	for i, e := range entries {
		if e.CountyFIPS != "" && len(e.CountyFIPS) != 5 {
			p.errorf("row %d: county fips %q is not 5 digits", i+1, e.CountyFIPS)
		}
	}
	return p
}

// ── Phase 2: Normalization Invariants ──
// Every surviving row has a FIPS and a real county name; drop accounting
// balances.

func validateNormalization(raws []domain.RawObservation, normalized []domain.NormalizedObservation, drops int) *phase {
	p := &phase{name: "Phase 2: Normalization Invariants"}

	if len(normalized)+drops != len(raws) {
		p.errorf("accounting mismatch: %d normalized + %d dropped != %d raw", len(normalized), drops, len(raws))
	}

	for i, o := range normalized {
		if o.FIPS == "" {
			p.errorf("row %d (%s): empty fips survived normalization", i, o.CountyStateKey)
		}
		if domain.IsReservedLabel(o.County) {
			p.errorf("row %d: reserved label %q survived normalization", i, o.County)
		}
		if o.CountyStateKey != domain.LocationKey(o.County, o.State) {
			p.errorf("row %d: key %q does not match county/state", i, o.CountyStateKey)
		}
		if o.PeriodKey != domain.PeriodOf(o.Date) {
			p.errorf("row %d: period %q does not match date %s", i, o.PeriodKey, o.Date.Format("2006-01-02"))
		}
		if o.CasesPerThousand < 0 || o.CasesPerThousand > 11 {
			p.errorf("row %d: cases-per-thousand %.2f outside [0, 11]", i, o.CasesPerThousand)
		}
	}
	return p
}

// ── Phase 3: Period Catalog ──
// Ordinals must be dense, 1-based, and chronologically ordered.

func validateCatalog(catalog *domain.PeriodCatalog, normalized []domain.NormalizedObservation) *phase {
	p := &phase{name: "Phase 3: Period Catalog"}

	if catalog.Len() == 0 && len(normalized) > 0 {
		p.errorf("no periods cataloged from %d rows", len(normalized))
		return p
	}

	for ord := 1; ord <= catalog.Len(); ord++ {
		label, err := catalog.LabelFor(ord)
		if err != nil {
			p.errorf("ordinal %d: %v", ord, err)
			continue
		}
		back, err := catalog.OrdinalFor(label)
		if err != nil || back != ord {
			p.errorf("label %q: ordinal round trip gave %d, want %d", label, back, ord)
		}
	}

	seen := make(map[string]bool, catalog.Len())
	for _, o := range normalized {
		if seen[o.PeriodKey] {
			continue
		}
		seen[o.PeriodKey] = true
		if _, err := catalog.OrdinalFor(o.PeriodKey); err != nil {
			p.errorf("period %q present in data but absent from catalog", o.PeriodKey)
		}
	}
	return p
}

// ── Phase 4: Aggregation Consistency ──
// Per-location deltas must telescope to the final cumulative value, and
// state totals must equal the sum of their counties' period maxima.

func validateAggregation(store *dataset.Store, catalog *domain.PeriodCatalog, normalized []domain.NormalizedObservation) *phase {
	p := &phase{name: "Phase 4: Aggregation Consistency"}

	locations := make(map[string]string, store.Locations()) // key -> state
	for _, o := range normalized {
		locations[o.CountyStateKey] = o.State
	}

	for key := range locations {
		series := store.Series(key)
		if len(series) == 0 {
			p.errorf("%s: indexed location has no series", key)
			continue
		}

		var sumCases, sumDeaths int
		for _, d := range dataset.NewCounts(series) {
			sumCases += d.Cases
			sumDeaths += d.Deaths
		}
		final := series[len(series)-1]
		if sumCases != final.Cases || sumDeaths != final.Deaths {
			p.errorf("%s: deltas telescope to (%d, %d), final cumulative is (%d, %d)",
				key, sumCases, sumDeaths, final.Cases, final.Deaths)
		}
	}

	engine := dataset.NewEngine(store, catalog, 7)
	states := make(map[string]bool)
	for _, state := range locations {
		states[state] = true
	}
	for state := range states {
		for ord := 1; ord <= catalog.Len(); ord++ {
			snap, err := engine.StateSnapshot(state, ord)
			if err != nil {
				p.errorf("%s ordinal %d: %v", state, ord, err)
				continue
			}
			period, _ := catalog.LabelFor(ord)
			var wantCases, wantDeaths int
			for _, o := range store.StateCounties(state, period) {
				wantCases += o.Cases
				wantDeaths += o.Deaths
			}
			if snap.TotalCases != wantCases || snap.TotalDeaths != wantDeaths {
				p.errorf("%s %s: state total (%d, %d) != county sum (%d, %d)",
					state, period, snap.TotalCases, snap.TotalDeaths, wantCases, wantDeaths)
			}
		}
	}
	return p
}
