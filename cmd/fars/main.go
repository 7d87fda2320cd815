// Command fars analyzes FARS traffic fatality census files: it aggregates
// monthly crash counts across vintages and renders per-state fatality maps.
//
// Usage:
//
//	fars summarize 2013 2014 2015
//	fars summarize 2013 2014 --format csv --out counts.csv
//	fars map --state 1 --year 2013 --out alabama_2013.png
//
// Configuration comes from FARS_-prefixed environment variables; see
// internal/config.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/fars-analysis/internal/adapter/gonumplot"
	"github.com/couchcryptid/fars-analysis/internal/census"
	"github.com/couchcryptid/fars-analysis/internal/config"
	"github.com/couchcryptid/fars-analysis/internal/observability"
	"github.com/couchcryptid/fars-analysis/internal/pipeline"
	"github.com/couchcryptid/fars-analysis/internal/statemap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		slog.Error("fars failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	app := &cli.Command{
		Name:  "fars",
		Usage: "traffic fatality census analysis",
		Commands: []*cli.Command{
			summarizeCommand(cfg, logger, metrics),
			mapCommand(cfg, logger, metrics),
		},
	}

	runErr := app.Run(ctx, args)

	// Final counter values are written even after a failed run; a failure
	// that shows up in read_failures_total is the point of exporting them.
	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(prometheus.DefaultGatherer, cfg.MetricsFile); err != nil {
			logger.Error("write metrics file", "error", err)
		}
	}
	return runErr
}

func summarizeCommand(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *cli.Command {
	var format, out string

	return &cli.Command{
		Name:      "summarize",
		Usage:     "aggregate monthly crash counts across vintages",
		ArgsUsage: "year [year...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format: table, csv, or json",
				Value:       "table",
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "write output to a file instead of stdout",
				Destination: &out,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw := c.Args().Slice()
			if len(raw) == 0 {
				return errors.New("at least one year is required")
			}

			reader := census.NewCachedReader(census.NewFileReader(cfg.DataDir), cfg.CacheSize)
			agg := pipeline.New(reader, logger, metrics, cfg.Workers)
			table, err := agg.Summarize(ctx, census.ParseYears(raw))
			if err != nil {
				return err
			}
			return writeSummary(table, format, out)
		},
	}
}

func mapCommand(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *cli.Command {
	var stateArg, yearArg, out string
	var width, height float64

	return &cli.Command{
		Name:  "map",
		Usage: "render fatality locations for one state and year",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "state",
				Usage:       "GSA state code, e.g. 1 for Alabama",
				Required:    true,
				Destination: &stateArg,
			},
			&cli.StringFlag{
				Name:        "year",
				Usage:       "vintage year, e.g. 2013",
				Required:    true,
				Destination: &yearArg,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output image path (.png, .svg, .pdf); derived from state and year when empty",
				Destination: &out,
			},
			&cli.FloatFlag{
				Name:        "width",
				Usage:       "canvas width in inches",
				Value:       8,
				Destination: &width,
			},
			&cli.FloatFlag{
				Name:        "height",
				Usage:       "canvas height in inches",
				Value:       6,
				Destination: &height,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			state := census.ParseState(stateArg)
			year := census.ParseYear(yearArg)
			if out == "" {
				out = defaultMapPath(state, year)
			}

			renderer := gonumplot.New(out)
			renderer.Width = vg.Length(width) * vg.Inch
			renderer.Height = vg.Length(height) * vg.Inch

			reader := census.NewCachedReader(census.NewFileReader(cfg.DataDir), cfg.CacheSize)
			m := statemap.New(reader, renderer, logger, metrics)
			if err := m.RenderState(state, year); err != nil {
				return err
			}
			logger.Info("map written", "path", out)
			return nil
		},
	}
}

func writeSummary(table *pipeline.SummaryTable, format, out string) error {
	if out == "" {
		return renderSummary(os.Stdout, table, format)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := renderSummary(f, table, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderSummary(w io.Writer, table *pipeline.SummaryTable, format string) error {
	switch format {
	case "table":
		return table.WriteTable(w)
	case "csv":
		return table.WriteCSV(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	default:
		return fmt.Errorf("unknown format %q (want table, csv, or json)", format)
	}
}

// defaultMapPath derives an output filename like fatalities_alabama_2013.png
// from the request. Invalid inputs still produce a printable name; the map
// command will have failed before anything is written to it.
func defaultMapPath(state census.StateCode, year census.Year) string {
	region := state.String()
	if state.Valid {
		region = census.StateName(state.Value)
	}
	region = strings.ToLower(strings.ReplaceAll(region, " ", "_"))
	return fmt.Sprintf("fatalities_%s_%s.png", region, year)
}
