// Package csvfile implements the two flat tabular input contracts as file
// sources: the county time series and the city gazetteer.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// TimeSeriesFile reads the county time-series CSV: one row per (county,
// date) with columns date, county, state, fips, cases, deaths.
type TimeSeriesFile struct {
	path   string
	logger *slog.Logger
}

// NewTimeSeriesFile creates a source for the given path.
func NewTimeSeriesFile(path string, logger *slog.Logger) *TimeSeriesFile {
	return &TimeSeriesFile{path: path, logger: logger}
}

// ReadObservations opens and parses the whole file.
func (f *TimeSeriesFile) ReadObservations(ctx context.Context) ([]domain.RawObservation, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open time series: %w", err)
	}
	defer file.Close()

	obs, err := ParseObservations(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("parse time series %s: %w", f.path, err)
	}
	f.logger.Info("time series loaded", "path", f.path, "rows", len(obs))
	return obs, nil
}

// ParseObservations reads time-series rows from r. Columns are located by
// header name, tolerating a UTF-8 BOM and extra columns in any order. Empty
// count cells read as zero; a malformed date or count fails the load with
// the offending line number.
func ParseObservations(ctx context.Context, r io.Reader) ([]domain.RawObservation, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	cols, err := headerIndex(cr, "date", "county", "state", "fips", "cases", "deaths")
	if err != nil {
		return nil, err
	}

	var out []domain.RawObservation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		date, err := time.Parse("2006-01-02", field(rec, cols["date"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date: %w", line, err)
		}
		cases, err := parseCount(field(rec, cols["cases"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad cases: %w", line, err)
		}
		deaths, err := parseCount(field(rec, cols["deaths"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad deaths: %w", line, err)
		}

		out = append(out, domain.RawObservation{
			Date:   date,
			County: field(rec, cols["county"]),
			State:  field(rec, cols["state"]),
			FIPS:   normalizeFIPS(field(rec, cols["fips"])),
			Cases:  cases,
			Deaths: deaths,
		})
	}
	return out, nil
}

// headerIndex reads the header row and maps each required column name to
// its position. The first cell may carry a UTF-8 BOM.
func headerIndex(cr *csv.Reader, required ...string) (map[string]int, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(required))
	for i, name := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseCount parses a non-negative count cell. Empty cells mean the source
// had not started reporting the figure yet and read as zero.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative count %d", v)
	}
	return v, nil
}

// normalizeFIPS zero-pads a county FIPS code to 5 digits. Sources that
// store codes numerically lose the leading zero of states 01-09.
func normalizeFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 5 {
		code = "0" + code
	}
	return code
}
