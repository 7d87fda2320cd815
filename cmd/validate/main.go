// Command validate performs integrity checks over FARS accident vintage
// files before they are fed to aggregation or mapping: file readability,
// MONTH domain, coordinate plausibility against the unknown-position codes,
// and case/fatality sanity.
//
// Usage:
//
//	go run ./cmd/validate -dir data -years 2013,2014,2015
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/fars-analysis/internal/census"
)

// Plausible coordinate ranges for known positions. FARS covers the fifty
// states, DC, Puerto Rico, and the Virgin Islands; the latitude band runs
// from the Caribbean territories up to northern Alaska, and the far
// Aleutians put a handful of legitimate positive longitudes in play.
const (
	minPlausibleLat = 15.0
	maxPlausibleLat = 72.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing accident_<year>.csv.bz2 files")
	years := flag.String("years", "", "comma-separated vintage years to validate")
	flag.Parse()

	if *dir == "" || *years == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *years); code != 0 {
		os.Exit(code)
	}
}

func run(dir, yearsArg string) int {
	fmt.Println("=== FARS Vintage Integrity Validation ===")
	fmt.Println()

	datasets, loadPhase := loadVintages(dir, yearsArg)

	phases := []*phase{
		loadPhase,
		validateMonths(datasets),
		validateCoordinates(datasets),
		validateCases(datasets),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	total := 0
	for _, ds := range datasets {
		total += ds.Len()
	}
	fmt.Println()
	fmt.Printf("Records: %d across %d vintage(s)\n", total, len(datasets))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: File Integrity ──
// Every requested vintage must resolve, read, and contain data rows.

func loadVintages(dir, yearsArg string) (map[int]*census.Dataset, *phase) {
	p := &phase{name: "Phase 1: File Integrity"}
	reader := census.NewFileReader(dir)
	datasets := make(map[int]*census.Dataset)

	for _, field := range strings.Split(yearsArg, ",") {
		yearNum, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			p.errorf("bad year %q: not an integer", field)
			continue
		}

		year := census.YearOf(yearNum)
		ds, err := reader.Read(year.Filename())
		if err != nil {
			p.errorf("%d: %v", yearNum, err)
			continue
		}
		if ds.Len() == 0 {
			p.errorf("%d: file has a header but no data rows", yearNum)
			continue
		}

		datasets[yearNum] = ds
		fmt.Printf("loaded %s: %d records, %d states\n",
			year.Filename(), ds.Len(), len(ds.StateSet()))
	}
	return datasets, p
}

// ── Phase 2: Month Domain ──
// MONTH drives the summary rows; every value must be a real month.

func validateMonths(datasets map[int]*census.Dataset) *phase {
	p := &phase{name: "Phase 2: Month Domain (1-12)"}

	for year, ds := range datasets {
		for i, rec := range ds.Records {
			if rec.Month < 1 || rec.Month > 12 {
				p.errorf("%d record %d: MONTH %d out of range", year, i, rec.Month)
			}
		}
	}
	return p
}

// ── Phase 3: Coordinate Plausibility ──
// A coordinate is either an unknown-position code or a plausible US
// position. Values in between point at corrupt rows.

func validateCoordinates(datasets map[int]*census.Dataset) *phase {
	p := &phase{name: "Phase 3: Coordinate Plausibility"}

	for year, ds := range datasets {
		unknown := 0
		for i, rec := range ds.Records {
			lonUnknown := rec.Longitude > 900
			latUnknown := rec.Latitude > 90
			if lonUnknown || latUnknown {
				unknown++
				continue
			}
			if rec.Longitude < -180 || rec.Longitude > 180 {
				p.errorf("%d record %d: LONGITUD %.4f outside [-180, 180] yet below the unknown code", year, i, rec.Longitude)
			}
			if rec.Latitude < minPlausibleLat || rec.Latitude > maxPlausibleLat {
				p.errorf("%d record %d: LATITUDE %.4f outside plausible band [%.0f, %.0f]", year, i, rec.Latitude, minPlausibleLat, maxPlausibleLat)
			}
		}
		if unknown > 0 {
			fmt.Printf("  note: %d: %d record(s) with unknown-position codes\n", year, unknown)
		}
	}
	return p
}

// ── Phase 4: Case and Fatality Sanity ──
// FARS is a census of fatal crashes: ST_CASE, where present, must be unique
// within its vintage, and every record must carry at least one fatality.

func validateCases(datasets map[int]*census.Dataset) *phase {
	p := &phase{name: "Phase 4: Case and Fatality Sanity"}

	for year, ds := range datasets {
		seen := make(map[int]int, ds.Len())
		for i, rec := range ds.Records {
			if rec.Case != 0 {
				if prev, dup := seen[rec.Case]; dup {
					p.errorf("%d record %d: ST_CASE %d already used by record %d", year, i, rec.Case, prev)
				} else {
					seen[rec.Case] = i
				}
			}
			if rec.Fatals < 1 {
				p.errorf("%d record %d: FATALS %d in a fatality census", year, i, rec.Fatals)
			}
			if rec.Year != 0 && rec.Year != year {
				p.errorf("%d record %d: YEAR column says %d", year, i, rec.Year)
			}
		}
	}
	return p
}
