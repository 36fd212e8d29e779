package csvfile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservations(t *testing.T) {
	input := strings.Join([]string{
		"date,county,state,fips,cases,deaths",
		"2020-03-01,Snohomish,Washington,53061,1,0",
		"2020-03-02,New York City,New York,,12,",
		"2020-03-02,Autauga,Alabama,1001,3,1",
	}, "\n")

	obs, err := ParseObservations(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, "Snohomish", obs[0].County)
	assert.Equal(t, "53061", obs[0].FIPS)
	assert.Equal(t, 1, obs[0].Cases)

	assert.Empty(t, obs[1].FIPS, "city rows carry no fips")
	assert.Equal(t, 12, obs[1].Cases)
	assert.Zero(t, obs[1].Deaths, "empty count cells read as zero")

	assert.Equal(t, "01001", obs[2].FIPS, "numeric codes zero-padded to five digits")
}

func TestParseObservationsHeaderVariants(t *testing.T) {
	t.Run("byte order mark", func(t *testing.T) {
		input := "\uFEFFdate,county,state,fips,cases,deaths\n" +
			"2020-03-01,Snohomish,Washington,53061,1,0\n"
		obs, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, "Snohomish", obs[0].County)
	})

	t.Run("reordered and extra columns", func(t *testing.T) {
		input := "county,deaths,cases,notes,state,fips,date\n" +
			"Snohomish,0,1,first case,Washington,53061,2020-03-01\n"
		obs, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, 1, obs[0].Cases)
		assert.Equal(t, "Washington", obs[0].State)
	})

	t.Run("missing required column", func(t *testing.T) {
		input := "date,county,state,cases,deaths\n"
		_, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing column "fips"`)
	})
}

func TestParseObservationsBadRows(t *testing.T) {
	t.Run("malformed date", func(t *testing.T) {
		input := "date,county,state,fips,cases,deaths\n" +
			"03/01/2020,Snohomish,Washington,53061,1,0\n"
		_, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2: bad date")
	})

	t.Run("negative count", func(t *testing.T) {
		input := "date,county,state,fips,cases,deaths\n" +
			"2020-03-01,Snohomish,Washington,53061,1,0\n" +
			"2020-03-02,Snohomish,Washington,53061,-4,0\n"
		_, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3: bad cases")
	})

	t.Run("non-numeric count", func(t *testing.T) {
		input := "date,county,state,fips,cases,deaths\n" +
			"2020-03-01,Snohomish,Washington,53061,many,0\n"
		_, err := ParseObservations(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad cases")
	})
}

func TestNormalizeFIPS(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"1001", "01001"},
		{"53061", "53061"},
		{" 46 ", "00046"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeFIPS(tt.in), "input %q", tt.in)
	}
}
