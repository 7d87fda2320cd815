// Package statemap builds per-state fatality location plots from a single
// census vintage.
//
// The flow is: read the vintage, validate the requested state against the
// data's own STATE domain, filter to that state, rewrite unknown-position
// coordinate codes to missing, and hand the cleaned points plus a
// data-driven viewport to a drawing collaborator. Unlike aggregation, a
// missing vintage file here is fatal; there is no other year to fall back
// on.
package statemap

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/golang/geo/s2"

	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/observability"
)

// Coordinate values above these thresholds are the census's in-domain codes
// for positions that were not known.
const (
	maxKnownLongitude = 900
	maxKnownLatitude  = 90
)

const earthRadiusKm = 6371.0

// Point is one cleaned coordinate pair. NaN marks a coordinate the census
// coded as unknown.
type Point struct {
	Lon float64
	Lat float64
}

// Missing reports whether the pair cannot be placed on a map.
func (p Point) Missing() bool {
	return math.IsNaN(p.Lon) || math.IsNaN(p.Lat)
}

// Bounds is the per-axis extent of the finite coordinates in a plot. Each
// axis is ranged independently, so a point missing only its longitude still
// stretches the latitude range.
type Bounds struct {
	LonMin, LonMax float64
	LatMin, LatMax float64
}

// MapPlot carries everything a drawing collaborator needs: a display name
// for the region, the vintage, the viewport, and the cleaned points.
// Renderers skip points whose coordinates are missing; they never substitute
// positions for them.
type MapPlot struct {
	Region string
	State  int
	Year   int
	Bounds Bounds
	Points []Point
}

// Renderer draws a prepared MapPlot.
type Renderer interface {
	Render(plot MapPlot) error
}

// Reader loads a single vintage file by its canonical filename.
type Reader interface {
	Read(filename string) (*census.Dataset, error)
}

// Mapper builds the per-state fatality location plot for one vintage.
type Mapper struct {
	reader   Reader
	renderer Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Mapper.
func New(reader Reader, renderer Renderer, logger *slog.Logger, metrics *observability.Metrics) *Mapper {
	return &Mapper{
		reader:   reader,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// RenderState draws the fatality locations of one state in one vintage.
//
// The state code must appear in the vintage's own STATE column; anything
// else, including input that never coerced to an integer, is an
// *InvalidStateError. A state that validates but yields zero records is not
// an error: a notice is logged and no drawing happens.
func (m *Mapper) RenderState(state census.StateCode, year census.Year) error {
	start := time.Now()

	ds, err := m.reader.Read(year.Filename())
	if err != nil {
		m.metrics.ReadFailures.WithLabelValues(readFailureReason(err)).Inc()
		return err
	}
	m.metrics.DatasetsRead.Inc()
	m.metrics.RowsRead.Add(float64(ds.Len()))

	if !state.Valid || !ds.StateSet()[state.Value] {
		return &census.InvalidStateError{Code: state}
	}

	subset := ds.FilterState(state.Value)
	if len(subset) == 0 {
		m.logger.Info("no accidents to plot", "state", state.String(), "year", year.String())
		return nil
	}

	points := cleanPoints(subset)
	bounds, err := pointBounds(points)
	if err != nil {
		return fmt.Errorf("state %s year %s: %w", state, year, err)
	}

	plot := MapPlot{
		Region: census.StateName(state.Value),
		State:  state.Value,
		Year:   year.Value,
		Bounds: bounds,
		Points: points,
	}
	if err := m.renderer.Render(plot); err != nil {
		return fmt.Errorf("render state map: %w", err)
	}

	plottable := 0
	for _, p := range points {
		if !p.Missing() {
			plottable++
		}
	}
	m.metrics.MapsRendered.Inc()
	m.metrics.MapPoints.Observe(float64(plottable))
	m.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	m.logger.Info("state map rendered",
		"state", state.String(),
		"region", plot.Region,
		"year", year.String(),
		"points", plottable,
		"unknown_positions", len(points)-plottable,
		"fatalities", totalFatals(subset),
		"span_km", math.Round(viewportSpanKm(bounds)),
	)
	return nil
}

// cleanPoints copies the subset's coordinates, rewriting unknown-position
// codes to NaN. The records themselves are left untouched.
func cleanPoints(recs []census.AccidentRecord) []Point {
	points := make([]Point, len(recs))
	for i, rec := range recs {
		p := Point{Lon: rec.Longitude, Lat: rec.Latitude}
		if p.Lon > maxKnownLongitude {
			p.Lon = math.NaN()
		}
		if p.Lat > maxKnownLatitude {
			p.Lat = math.NaN()
		}
		points[i] = p
	}
	return points
}

// pointBounds computes the viewport from the finite coordinates, each axis
// independently. With no finite value on some axis there is no viewport and
// nothing can be drawn.
func pointBounds(points []Point) (Bounds, error) {
	lonMin, lonMax := math.Inf(1), math.Inf(-1)
	latMin, latMax := math.Inf(1), math.Inf(-1)

	for _, p := range points {
		if !math.IsNaN(p.Lon) {
			lonMin = math.Min(lonMin, p.Lon)
			lonMax = math.Max(lonMax, p.Lon)
		}
		if !math.IsNaN(p.Lat) {
			latMin = math.Min(latMin, p.Lat)
			latMax = math.Max(latMax, p.Lat)
		}
	}

	if math.IsInf(lonMin, 1) || math.IsInf(latMin, 1) {
		return Bounds{}, errors.New("no known coordinates to plot")
	}
	return Bounds{LonMin: lonMin, LonMax: lonMax, LatMin: latMin, LatMax: latMax}, nil
}

// viewportSpanKm returns the great-circle distance across the viewport
// diagonal, logged as a sanity signal for the rendered extent.
func viewportSpanKm(b Bounds) float64 {
	sw := s2.LatLngFromDegrees(b.LatMin, b.LonMin)
	ne := s2.LatLngFromDegrees(b.LatMax, b.LonMax)
	return sw.Distance(ne).Radians() * earthRadiusKm
}

func totalFatals(recs []census.AccidentRecord) int {
	total := 0
	for _, rec := range recs {
		total += rec.Fatals
	}
	return total
}

func readFailureReason(err error) string {
	var missing *census.MissingFileError
	if errors.As(err, &missing) {
		return observability.ReasonMissingFile
	}
	return observability.ReasonParse
}
