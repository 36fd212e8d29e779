package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrNotFound is returned by lookups for keys absent from the dataset:
// unknown cities, out-of-range period ordinals, and the like.
var ErrNotFound = errors.New("not found")

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" candidate for an unknown city query.
const maxSuggestDistance = 3

// Gazetteer indexes the static city/county/state reference table. All
// lookups are pure reads after construction; keys are case-insensitive.
//
// The source table carries many rows per county (one per city), so FIPS
// lookups take the first non-empty match rather than aggregating — summing
// duplicate identical codes would corrupt them.
type Gazetteer struct {
	byCity     map[string]CityInfo // city -> first matching row
	cityFIPS   map[string]string   // city|state -> first non-empty county fips
	countyFIPS map[string]string   // county|state -> first non-empty county fips
	cities     []string            // distinct city display names, insertion order
}

// NewGazetteer builds the index from the raw reference rows. Duplicate rows
// are tolerated; the first occurrence of each key wins.
func NewGazetteer(entries []GazetteerEntry) *Gazetteer {
	g := &Gazetteer{
		byCity:     make(map[string]CityInfo, len(entries)),
		cityFIPS:   make(map[string]string, len(entries)),
		countyFIPS: make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		city := strings.TrimSpace(e.City)
		if city == "" {
			continue
		}

		cityKey := foldKey(city)
		if _, ok := g.byCity[cityKey]; !ok {
			g.byCity[cityKey] = CityInfo{
				City:   city,
				County: strings.TrimSpace(e.CountyName),
				State:  strings.TrimSpace(e.StateName),
			}
			g.cities = append(g.cities, city)
		}

		fips := strings.TrimSpace(e.CountyFIPS)
		if fips == "" {
			continue
		}
		csKey := foldKey(city) + "|" + foldKey(e.StateName)
		if _, ok := g.cityFIPS[csKey]; !ok {
			g.cityFIPS[csKey] = fips
		}
		ctyKey := foldKey(e.CountyName) + "|" + foldKey(e.StateName)
		if _, ok := g.countyFIPS[ctyKey]; !ok {
			g.countyFIPS[ctyKey] = fips
		}
	}

	return g
}

// ResolveCity looks up a city label and returns its containing county and
// state. Duplicate city names across states resolve to the first row seen;
// callers can disambiguate via SuggestCities.
func (g *Gazetteer) ResolveCity(city string) (CityInfo, error) {
	info, ok := g.byCity[foldKey(city)]
	if !ok {
		return CityInfo{}, fmt.Errorf("city %q: %w", city, ErrNotFound)
	}
	return info, nil
}

// CityFIPS returns the county FIPS code for a (city, state) pair, taking the
// first non-empty code among matching rows.
func (g *Gazetteer) CityFIPS(city, state string) (string, error) {
	fips, ok := g.cityFIPS[foldKey(city)+"|"+foldKey(state)]
	if !ok {
		return "", fmt.Errorf("city %q, %q: %w", city, state, ErrNotFound)
	}
	return fips, nil
}

// CountyFIPS returns the FIPS code for a (county, state) pair, taking the
// first non-empty code among matching rows.
func (g *Gazetteer) CountyFIPS(county, state string) (string, error) {
	fips, ok := g.countyFIPS[foldKey(county)+"|"+foldKey(state)]
	if !ok {
		return "", fmt.Errorf("county %q, %q: %w", county, state, ErrNotFound)
	}
	return fips, nil
}

// SuggestCities returns up to limit city names closest to the query by edit
// distance, nearest first. Ties keep insertion order for stable output.
func (g *Gazetteer) SuggestCities(query string, limit int) []string {
	query = foldKey(query)
	if query == "" || limit <= 0 {
		return nil
	}

	type candidate struct {
		name string
		dist int
		pos  int
	}
	var found []candidate
	for i, name := range g.cities {
		d := levenshtein.ComputeDistance(query, foldKey(name))
		if d <= maxSuggestDistance {
			found = append(found, candidate{name: name, dist: d, pos: i})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].pos < found[j].pos
	})

	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.name
	}
	return out
}

// Len reports the number of distinct cities indexed.
func (g *Gazetteer) Len() int {
	return len(g.cities)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
