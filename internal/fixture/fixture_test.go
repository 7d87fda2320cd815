package fixture_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/fixture"
)

func TestRecordsDeterministic(t *testing.T) {
	a := fixture.Records(2013, 50)
	b := fixture.Records(2013, 50)

	assert.Empty(t, cmp.Diff(a, b))

	c := fixture.Records(2014, 50)
	assert.NotEmpty(t, cmp.Diff(a, c))
}

func TestRecordsDomains(t *testing.T) {
	knownStates := map[int]bool{1: true, 6: true, 12: true, 36: true, 48: true}

	for _, rec := range fixture.Records(2013, 200) {
		assert.True(t, knownStates[rec.State], "state %d", rec.State)
		assert.GreaterOrEqual(t, rec.Month, 1)
		assert.LessOrEqual(t, rec.Month, 12)
		assert.GreaterOrEqual(t, rec.Fatals, 1)
		assert.Equal(t, 2013, rec.Year)

		if rec.Longitude > 900 {
			// Unknown positions always code both coordinates.
			assert.Greater(t, rec.Latitude, 90.0)
		} else {
			assert.Less(t, rec.Longitude, 0.0)
			assert.Greater(t, rec.Latitude, 20.0)
		}
	}
}

func TestRecordsIncludeUnknownCoordinates(t *testing.T) {
	unknown := 0
	for _, rec := range fixture.Records(2013, 500) {
		if rec.Longitude > 900 {
			unknown++
		}
	}

	// Roughly one in 25; with 500 records at least a handful must appear.
	assert.Greater(t, unknown, 3)
	assert.Less(t, unknown, 100)
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	recs := fixture.Records(2013, 40)

	path, err := fixture.Write(dir, 2013, recs)
	require.NoError(t, err)
	assert.Contains(t, path, "accident_2013.csv.bz2")

	ds, err := census.NewFileReader(dir).Read("accident_2013.csv.bz2")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(recs, ds.Records))
}
