package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/fars-analysis/internal/census"
)

// EmptyAggregationError reports that no requested year produced any data, so
// there is nothing to concatenate into a summary.
type EmptyAggregationError struct {
	Years []census.Year
}

func (e *EmptyAggregationError) Error() string {
	if len(e.Years) == 0 {
		return "no years requested"
	}
	names := make([]string, len(e.Years))
	for i, y := range e.Years {
		names[i] = y.String()
	}
	return fmt.Sprintf("no accident data for years %s", strings.Join(names, ", "))
}

// cell addresses one count in the wide table.
type cell struct {
	month int
	year  int
}

// SummaryTable is the wide month-by-year table of crash counts: one row per
// MONTH value observed, one column per year that contributed data. A
// month-year combination that never occurred has no cell.
type SummaryTable struct {
	Months      []int
	Years       []int
	GeneratedAt time.Time

	counts map[cell]int
}

func newSummaryTable(counts map[cell]int) *SummaryTable {
	monthSet := make(map[int]bool)
	yearSet := make(map[int]bool)
	for c := range counts {
		monthSet[c.month] = true
		yearSet[c.year] = true
	}

	months := make([]int, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Ints(months)

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	return &SummaryTable{
		Months:      months,
		Years:       years,
		GeneratedAt: census.Now(),
		counts:      counts,
	}
}

// Count returns the cell value and whether the month-year combination
// occurred at all.
func (t *SummaryTable) Count(month, year int) (int, bool) {
	n, ok := t.counts[cell{month: month, year: year}]
	return n, ok
}

// TotalForYear sums the column for one year.
func (t *SummaryTable) TotalForYear(year int) int {
	total := 0
	for _, m := range t.Months {
		if n, ok := t.Count(m, year); ok {
			total += n
		}
	}
	return total
}

// WriteTable renders the aligned text form, empty cells left blank.
func (t *SummaryTable) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprint(tw, "MONTH")
	for _, y := range t.Years {
		fmt.Fprintf(tw, "\t%d", y)
	}
	fmt.Fprintln(tw)

	for _, m := range t.Months {
		fmt.Fprintf(tw, "%d", m)
		for _, y := range t.Years {
			if n, ok := t.Count(m, y); ok {
				fmt.Fprintf(tw, "\t%d", n)
			} else {
				fmt.Fprint(tw, "\t")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteCSV renders the table as CSV with a MONTH header column, empty cells
// as empty strings.
func (t *SummaryTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.Years)+1)
	header = append(header, "MONTH")
	for _, y := range t.Years {
		header = append(header, strconv.Itoa(y))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, m := range t.Months {
		row := make([]string, 0, len(t.Years)+1)
		row = append(row, strconv.Itoa(m))
		for _, y := range t.Years {
			if n, ok := t.Count(m, y); ok {
				row = append(row, strconv.Itoa(n))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalJSON renders the table with one object per month row and null for
// combinations that never occurred, so consumers can tell zero from absent.
func (t *SummaryTable) MarshalJSON() ([]byte, error) {
	type row struct {
		Month  int             `json:"month"`
		Counts map[string]*int `json:"counts"`
	}

	out := struct {
		GeneratedAt time.Time `json:"generated_at"`
		Years       []int     `json:"years"`
		Rows        []row     `json:"rows"`
	}{
		GeneratedAt: t.GeneratedAt,
		Years:       t.Years,
		Rows:        make([]row, 0, len(t.Months)),
	}

	for _, m := range t.Months {
		r := row{Month: m, Counts: make(map[string]*int, len(t.Years))}
		for _, y := range t.Years {
			if n, ok := t.Count(m, y); ok {
				v := n
				r.Counts[strconv.Itoa(y)] = &v
			} else {
				r.Counts[strconv.Itoa(y)] = nil
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return json.Marshal(out)
}
