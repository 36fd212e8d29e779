package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// GazetteerFile reads the static city reference CSV: columns city, state_id,
// state_name, county_fips, county_name, no ordering guarantee, possibly
// multiple rows per county.
type GazetteerFile struct {
	path   string
	logger *slog.Logger
}

// NewGazetteerFile creates a source for the given path.
func NewGazetteerFile(path string, logger *slog.Logger) *GazetteerFile {
	return &GazetteerFile{path: path, logger: logger}
}

// ReadGazetteer opens and parses the whole file.
func (f *GazetteerFile) ReadGazetteer(ctx context.Context) ([]domain.GazetteerEntry, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	defer file.Close()

	entries, err := ParseGazetteer(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("parse gazetteer %s: %w", f.path, err)
	}
	f.logger.Info("gazetteer loaded", "path", f.path, "rows", len(entries))
	return entries, nil
}

// ParseGazetteer reads gazetteer rows from r, locating columns by header
// name. Rows with an empty city are skipped; empty FIPS cells are kept (the
// index resolves duplicates by first non-empty match).
func ParseGazetteer(ctx context.Context, r io.Reader) ([]domain.GazetteerEntry, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	cols, err := headerIndex(cr, "city", "state_id", "state_name", "county_fips", "county_name")
	if err != nil {
		return nil, err
	}

	var out []domain.GazetteerEntry
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

		city := field(rec, cols["city"])
		if city == "" {
			continue
		}
		out = append(out, domain.GazetteerEntry{
			City:       city,
			StateAbbr:  field(rec, cols["state_id"]),
			StateName:  field(rec, cols["state_name"]),
			CountyName: field(rec, cols["county_name"]),
			CountyFIPS: normalizeFIPS(field(rec, cols["county_fips"])),
		})
	}
	return out, nil
}
