// Command genfixture writes synthetic FARS accident vintage files for tests
// and local runs. It uses the actual census and fixture packages so the
// files exercise the same reader the analysis commands use. Records are
// deterministic per year, so regenerating produces identical fixtures.
//
// Usage:
//
//	go run ./cmd/genfixture -dir testdata -years 2013,2014,2015 -rows 500
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", ".", "output directory for vintage files")
	years := flag.String("years", "", "comma-separated vintage years, e.g. 2013,2014,2015")
	rows := flag.Int("rows", 500, "records per vintage")
	flag.Parse()

	if *years == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -years")
	}
	if *rows < 1 {
		return fmt.Errorf("-rows must be positive, got %d", *rows)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}

	for _, field := range strings.Split(*years, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("bad year %q: %w", field, err)
		}

		recs := fixture.Records(year, *rows)
		path, err := fixture.Write(*dir, year, recs)
		if err != nil {
			return err
		}
		log.Printf("%s: %d records", path, len(recs))
		printStats(year, recs)
	}
	return nil
}

// printStats summarizes one vintage the way the analysis will see it, handy
// when eyeballing a regenerated fixture.
func printStats(year int, recs []census.AccidentRecord) {
	months := map[int]int{}
	states := map[int]int{}
	unknown := 0
	fatals := 0
	for _, rec := range recs {
		months[rec.Month]++
		states[rec.State]++
		fatals += rec.Fatals
		if rec.Longitude > 900 {
			unknown++
		}
	}

	fmt.Printf("%d: fatalities=%d unknown_positions=%d\n", year, fatals, unknown)

	keys := make([]int, 0, len(states))
	for s := range states {
		keys = append(keys, s)
	}
	sort.Ints(keys)
	fmt.Print("  states:")
	for _, s := range keys {
		fmt.Printf(" %s=%d", census.StateName(s), states[s])
	}
	fmt.Println()

	fmt.Print("  months:")
	for m := 1; m <= 12; m++ {
		fmt.Printf(" %d=%d", m, months[m])
	}
	fmt.Println()
}
