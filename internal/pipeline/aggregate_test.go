package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/fixture"
	"github.com/couchcryptid/fars-analysis/internal/observability"
	"github.com/couchcryptid/fars-analysis/internal/pipeline"
)

// --- helpers ---

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// newCapturedLogger returns a JSON logger writing into the returned buffer,
// one record per line.
func newCapturedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

// warnLines returns the logged WARN records in emission order.
func warnLines(buf *bytes.Buffer) []string {
	var warns []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"level":"WARN"`) {
			warns = append(warns, line)
		}
	}
	return warns
}

// writeVintage stores a deterministic synthetic vintage under dir and
// returns its records.
func writeVintage(t *testing.T, dir string, year, rows int) []census.AccidentRecord {
	t.Helper()
	recs := fixture.Records(year, rows)
	_, err := fixture.Write(dir, year, recs)
	require.NoError(t, err)
	return recs
}

// monthCounts re-derives the expected per-month totals from fixture records.
func monthCounts(recs []census.AccidentRecord) map[int]int {
	counts := make(map[int]int)
	for _, rec := range recs {
		counts[rec.Month]++
	}
	return counts
}

// --- tests ---

func TestAggregator_ProjectYear(t *testing.T) {
	dir := t.TempDir()
	recs := writeVintage(t, dir, 2013, 100)
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	res := agg.ProjectYear(census.ParseYear("2013"))

	require.NoError(t, res.Err)
	require.NotNil(t, res.Table)
	assert.Equal(t, 2013, res.Table.Year)
	require.Len(t, res.Table.Months, len(recs))
	for i, rec := range recs {
		assert.Equal(t, rec.Month, res.Table.Months[i])
	}
}

func TestAggregator_ProjectYear_TagsRequestedYear(t *testing.T) {
	// The file on disk is named for 2020 but its YEAR column says 2013; the
	// projection must carry the requested year, not the recorded one.
	dir := t.TempDir()
	_, err := fixture.Write(dir, 2020, fixture.Records(2013, 20))
	require.NoError(t, err)
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	res := agg.ProjectYear(census.YearOf(2020))

	require.NoError(t, res.Err)
	assert.Equal(t, 2020, res.Table.Year)
}

func TestAggregator_ReadYears_MixedBatch(t *testing.T) {
	dir := t.TempDir()
	writeVintage(t, dir, 2013, 100)
	writeVintage(t, dir, 2015, 80)
	logger, buf := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	years := census.ParseYears([]string{"2013", "bogus", "2015"})
	results, err := agg.ReadYears(context.Background(), years)

	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Table)
	assert.Equal(t, 2013, results[0].Table.Year)
	assert.Len(t, results[0].Table.Months, 100)

	assert.Nil(t, results[1].Table)
	var missing *census.MissingFileError
	require.ErrorAs(t, results[1].Err, &missing)
	assert.Equal(t, "accident_NA.csv.bz2", missing.Filename)

	require.NotNil(t, results[2].Table)
	assert.Len(t, results[2].Table.Months, 80)

	warns := warnLines(buf)
	require.Len(t, warns, 1, "exactly one warning per failed year")
	assert.Contains(t, warns[0], `"bogus"`)
}

func TestAggregator_ReadYears_MissingVintage(t *testing.T) {
	dir := t.TempDir()
	writeVintage(t, dir, 2013, 50)
	logger, buf := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	results, err := agg.ReadYears(context.Background(), census.ParseYears([]string{"2013", "2014"}))

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Table)
	assert.Nil(t, results[1].Table)

	var missing *census.MissingFileError
	require.ErrorAs(t, results[1].Err, &missing)
	assert.Equal(t, "accident_2014.csv.bz2", missing.Filename)

	warns := warnLines(buf)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "2014")
}

func TestAggregator_ReadYears_DuplicateYears(t *testing.T) {
	dir := t.TempDir()
	writeVintage(t, dir, 2013, 40)
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	results, err := agg.ReadYears(context.Background(), census.ParseYears([]string{"2013", "2013"}))

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0].Table)
	require.NotNil(t, results[1].Table)
	assert.Len(t, results[1].Table.Months, 40)

	// Each projection owns its slice.
	results[0].Table.Months[0] = -1
	assert.NotEqual(t, -1, results[1].Table.Months[0])
}

func TestAggregator_ReadYears_ParallelPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	writeVintage(t, dir, 2010, 30)
	writeVintage(t, dir, 2012, 30)
	writeVintage(t, dir, 2014, 30)
	logger, buf := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 4)

	inputs := []string{"2010", "2011", "2012", "2013", "2014"}
	results, err := agg.ReadYears(context.Background(), census.ParseYears(inputs))

	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, raw := range inputs {
		assert.Equal(t, raw, results[i].Year.String(), "result %d out of order", i)
	}
	assert.NotNil(t, results[0].Table)
	assert.Nil(t, results[1].Table)
	assert.NotNil(t, results[2].Table)
	assert.Nil(t, results[3].Table)
	assert.NotNil(t, results[4].Table)

	// Warnings follow request order even though reads ran concurrently.
	warns := warnLines(buf)
	require.Len(t, warns, 2)
	assert.Contains(t, warns[0], "2011")
	assert.Contains(t, warns[1], "2013")
}

func TestAggregator_ReadYears_ContextCancelled(t *testing.T) {
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(t.TempDir()), logger, newTestMetrics(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.ReadYears(ctx, census.ParseYears([]string{"2013"}))

	require.ErrorIs(t, err, context.Canceled)
}

func TestAggregator_Summarize_TwoVintages(t *testing.T) {
	dir := t.TempDir()
	recs2013 := writeVintage(t, dir, 2013, 100)
	recs2014 := writeVintage(t, dir, 2014, 50)
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	table, err := agg.Summarize(context.Background(), census.ParseYears([]string{"2013", "2014"}))

	require.NoError(t, err)
	assert.Equal(t, []int{2013, 2014}, table.Years)

	want2013 := monthCounts(recs2013)
	want2014 := monthCounts(recs2014)
	for m := 1; m <= 12; m++ {
		if n, ok := table.Count(m, 2013); ok {
			assert.Equal(t, want2013[m], n, "month %d year 2013", m)
		} else {
			assert.Zero(t, want2013[m], "month %d year 2013 missing from table", m)
		}
		if n, ok := table.Count(m, 2014); ok {
			assert.Equal(t, want2014[m], n, "month %d year 2014", m)
		} else {
			assert.Zero(t, want2014[m], "month %d year 2014 missing from table", m)
		}
	}

	assert.Equal(t, len(recs2013), table.TotalForYear(2013))
	assert.Equal(t, len(recs2014), table.TotalForYear(2014))
}

func TestAggregator_Summarize_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	recs := writeVintage(t, dir, 2013, 60)
	logger, buf := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	table, err := agg.Summarize(context.Background(), census.ParseYears([]string{"2013", "2024"}))

	require.NoError(t, err, "one good year is enough")
	assert.Equal(t, []int{2013}, table.Years)
	assert.Equal(t, len(recs), table.TotalForYear(2013))
	assert.Len(t, warnLines(buf), 1)
}

func TestAggregator_Summarize_DuplicateYearsDoubleCount(t *testing.T) {
	dir := t.TempDir()
	recs := writeVintage(t, dir, 2013, 40)
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), 1)

	table, err := agg.Summarize(context.Background(), census.ParseYears([]string{"2013", "2013"}))

	require.NoError(t, err)
	want := monthCounts(recs)
	for m, n := range want {
		got, ok := table.Count(m, 2013)
		require.True(t, ok)
		assert.Equal(t, 2*n, got, "month %d", m)
	}
}

func TestAggregator_Summarize_AllYearsFail(t *testing.T) {
	logger, buf := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(t.TempDir()), logger, newTestMetrics(), 1)

	_, err := agg.Summarize(context.Background(), census.ParseYears([]string{"bogus", "2099"}))

	var empty *pipeline.EmptyAggregationError
	require.ErrorAs(t, err, &empty)
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), "2099")
	assert.Len(t, warnLines(buf), 2)
}

func TestAggregator_Summarize_NoYears(t *testing.T) {
	logger, _ := newCapturedLogger()
	agg := pipeline.New(census.NewFileReader(t.TempDir()), logger, newTestMetrics(), 1)

	_, err := agg.Summarize(context.Background(), nil)

	var empty *pipeline.EmptyAggregationError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "no years requested", err.Error())
}

func TestAggregator_Summarize_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	writeVintage(t, dir, 2010, 80)
	writeVintage(t, dir, 2011, 70)
	writeVintage(t, dir, 2013, 60)
	years := census.ParseYears([]string{"2010", "2011", "2012", "2013"})

	run := func(workers int) (string, []string) {
		logger, buf := newCapturedLogger()
		agg := pipeline.New(census.NewFileReader(dir), logger, newTestMetrics(), workers)
		table, err := agg.Summarize(context.Background(), years)
		require.NoError(t, err)
		var csvBuf bytes.Buffer
		require.NoError(t, table.WriteCSV(&csvBuf))
		return csvBuf.String(), warnLines(buf)
	}

	seqCSV, seqWarns := run(1)
	parCSV, parWarns := run(4)

	assert.Equal(t, seqCSV, parCSV)
	require.Len(t, parWarns, len(seqWarns))
	assert.Contains(t, parWarns[0], "2012")
}
