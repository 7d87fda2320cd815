package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/observability"
)

// Reader loads a single vintage file by its canonical filename.
type Reader interface {
	Read(filename string) (*census.Dataset, error)
}

// ProjectedYear is one vintage reduced to the per-record MONTH values,
// tagged with the year the caller requested (not the YEAR column the file
// happens to carry).
type ProjectedYear struct {
	Year   int
	Months []int
}

// YearResult is the outcome of projecting a single requested year. Table is
// nil when the year produced no data; Err then carries the reason. A failed
// year never aborts the batch it belongs to.
type YearResult struct {
	Year  census.Year
	Table *ProjectedYear
	Err   error
}

// Aggregator runs the multi-year read-project-summarize flow.
type Aggregator struct {
	reader  Reader
	logger  *slog.Logger
	metrics *observability.Metrics
	workers int
}

// New creates an Aggregator. workers bounds concurrent vintage reads; values
// below 1 are treated as 1 (sequential).
func New(reader Reader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		reader:  reader,
		logger:  logger,
		metrics: metrics,
		workers: workers,
	}
}

// ProjectYear resolves, reads, and projects one vintage. Failures are
// captured in the result rather than returned, so callers can keep going
// with the rest of a batch.
func (a *Aggregator) ProjectYear(year census.Year) YearResult {
	ds, err := a.reader.Read(year.Filename())
	if err != nil {
		a.metrics.ReadFailures.WithLabelValues(failureReason(err)).Inc()
		return YearResult{Year: year, Err: err}
	}
	a.metrics.DatasetsRead.Inc()
	a.metrics.RowsRead.Add(float64(ds.Len()))

	months := make([]int, ds.Len())
	for i := range ds.Records {
		months[i] = ds.Records[i].Month
	}
	return YearResult{Year: year, Table: &ProjectedYear{Year: year.Value, Months: months}}
}

// ReadYears projects every requested year, preserving input order and
// duplicates. Each element is either a projected table or a no-data marker;
// exactly one warning is logged per failed year, in input order, whatever
// the worker count. The only error ReadYears itself returns is context
// cancellation.
func (a *Aggregator) ReadYears(ctx context.Context, years []census.Year) ([]YearResult, error) {
	results := make([]YearResult, len(years))

	if a.workers == 1 {
		for i, year := range years {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = a.ProjectYear(year)
		}
	} else {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers)
		for i, year := range years {
			i, year := i, year
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = a.ProjectYear(year)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// Warnings are emitted after all reads complete so their order follows
	// the request, not goroutine scheduling.
	for i := range results {
		if results[i].Err != nil {
			a.logger.Warn("invalid year, skipping",
				"year", results[i].Year.String(),
				"error", results[i].Err,
			)
			a.metrics.YearsSkipped.Inc()
		}
	}
	return results, nil
}

// Summarize builds the wide month-by-year crash count table for the
// requested years. Failed years are dropped after their warning; duplicates
// count twice. If not a single year yields a table, the result is an
// *EmptyAggregationError.
func (a *Aggregator) Summarize(ctx context.Context, years []census.Year) (*SummaryTable, error) {
	start := time.Now()

	results, err := a.ReadYears(ctx, years)
	if err != nil {
		return nil, err
	}

	counts := make(map[cell]int)
	survived := 0
	for _, res := range results {
		if res.Table == nil {
			continue
		}
		survived++
		for _, m := range res.Table.Months {
			counts[cell{month: m, year: res.Table.Year}]++
		}
	}
	if survived == 0 {
		return nil, &EmptyAggregationError{Years: years}
	}

	table := newSummaryTable(counts)
	a.metrics.SummariesBuilt.Inc()
	a.metrics.SummarizeDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("summary built",
		"requested_years", len(years),
		"years_included", survived,
		"months", len(table.Months),
	)
	return table, nil
}

func failureReason(err error) string {
	var missing *census.MissingFileError
	if errors.As(err, &missing) {
		return observability.ReasonMissingFile
	}
	return observability.ReasonParse
}
