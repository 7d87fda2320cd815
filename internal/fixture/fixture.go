// Package fixture generates synthetic FARS vintage files for tests and local
// runs. Records are deterministic per year, so fixtures are reproducible and
// assertions can re-derive expected values instead of hardcoding them.
package fixture

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dsnet/compress/bzip2"

	"github.com/couchcryptid/fars-analysis/internal/census"
)

// region is a rough bounding box used to scatter synthetic crashes inside a
// state.
type region struct {
	state  int
	lonMin float64
	lonMax float64
	latMin float64
	latMax float64
}

var regions = []region{
	{state: 1, lonMin: -88.4, lonMax: -85.0, latMin: 30.2, latMax: 35.0},   // Alabama
	{state: 6, lonMin: -124.4, lonMax: -114.1, latMin: 32.5, latMax: 42.0}, // California
	{state: 12, lonMin: -87.6, lonMax: -80.0, latMin: 24.5, latMax: 31.0},  // Florida
	{state: 36, lonMin: -79.7, lonMax: -71.9, latMin: 40.5, latMax: 45.0},  // New York
	{state: 48, lonMin: -106.6, lonMax: -93.5, latMin: 25.8, latMax: 36.5}, // Texas
}

// Coordinate codes the census uses for crashes whose position was not known.
const (
	unknownLongitude = 999.9999
	unknownLatitude  = 99.9999
)

// header mirrors the column layout of a real accident file closely enough to
// exercise the reader: the required columns plus a few that are carried or
// ignored.
var header = []string{
	"STATE", "ST_CASE", "VE_TOTAL", "PERSONS", "COUNTY", "CITY",
	"DAY", "MONTH", "YEAR", "DAY_WEEK", "HOUR", "FATALS",
	"LATITUDE", "LONGITUD",
}

// Records generates n synthetic records for a vintage. The generator is
// seeded by the year, so repeated calls produce identical slices. Roughly
// one record in 25 carries unknown coordinates. Coordinates are rounded to
// four decimals, matching the precision Write stores them at.
func Records(year, n int) []census.AccidentRecord {
	rng := rand.New(rand.NewSource(int64(year)))
	recs := make([]census.AccidentRecord, n)
	for i := range recs {
		reg := regions[rng.Intn(len(regions))]
		rec := census.AccidentRecord{
			State:     reg.state,
			Month:     1 + rng.Intn(12),
			Longitude: round4(reg.lonMin + rng.Float64()*(reg.lonMax-reg.lonMin)),
			Latitude:  round4(reg.latMin + rng.Float64()*(reg.latMax-reg.latMin)),
			Case:      10001 + i,
			Year:      year,
			Fatals:    1 + rng.Intn(3),
		}
		if rng.Intn(25) == 0 {
			rec.Longitude = unknownLongitude
			rec.Latitude = unknownLatitude
		}
		recs[i] = rec
	}
	return recs
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Write stores recs as accident_<year>.csv.bz2 under dir and returns the
// written path.
func Write(dir string, year int, recs []census.AccidentRecord) (string, error) {
	path := filepath.Join(dir, census.YearOf(year).Filename())
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeVintage(f, recs); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func writeVintage(w io.Writer, recs []census.AccidentRecord) error {
	bz, err := bzip2.NewWriter(w, nil)
	if err != nil {
		return fmt.Errorf("bzip2 writer: %w", err)
	}

	cw := csv.NewWriter(bz)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			strconv.Itoa(rec.State),
			strconv.Itoa(rec.Case),
			"1",
			strconv.Itoa(rec.Fatals),
			"0",
			"0",
			"15",
			strconv.Itoa(rec.Month),
			strconv.Itoa(rec.Year),
			"4",
			"12",
			strconv.Itoa(rec.Fatals),
			formatCoord(rec.Latitude),
			formatCoord(rec.Longitude),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bz.Close()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
