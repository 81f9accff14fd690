// Command retireplan-seed imports a plan table into the configured store.
//
// The table comes from -file, from the plan tab of the configured Google
// spreadsheet with -sheet, or from the table built into the binary. Entries
// are upserted by year.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"retireplan/internal/cli"
	"retireplan/internal/config"
	applog "retireplan/internal/log"
	"retireplan/internal/seed"
	"retireplan/internal/services"
)

func main() {
	file := flag.String("file", "", "tab separated plan table to import")
	fromSheet := flag.Bool("sheet", false, "import the plan tab of the configured spreadsheet")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	result, source, err := load(ctx, logger, cfg, *file, *fromSheet)
	if err != nil {
		logger.Error("Failed to read plan table", applog.FieldError, err, "source", source)
		os.Exit(1)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, "skipped:", e)
	}
	if *dryRun {
		fmt.Printf("%d entries parsed from %s\n", len(result.Entries), source)
		return
	}

	res := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}()

	plans := services.NewPlanService(res.Backend, res.Publisher,
		applog.NewStructuredLogger(logger.WithComponent(applog.ComponentSeed)))
	n, err := plans.Import(ctx, result.Entries)
	if err != nil {
		logger.Error("Import failed", applog.FieldError, err, "imported", n)
		os.Exit(1)
	}
	fmt.Printf("%d entries imported from %s (%d skipped, %d warnings)\n",
		n, source, len(result.Errors), len(result.Warnings))
}

func load(ctx context.Context, logger *applog.Logger, cfg *config.Config, file string, fromSheet bool) (seed.Result, string, error) {
	switch {
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return seed.Result{}, file, err
		}
		defer f.Close()
		res, err := seed.ParsePlanTable(f)
		return res, file, err
	case fromSheet:
		if !cfg.SheetsEnabled() {
			return seed.Result{}, "sheet", fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
		}
		client, err := cli.OpenSheets(ctx, logger, cfg)
		if err != nil {
			return seed.Result{}, "sheet", err
		}
		res, err := client.ReadPlanEntries(ctx)
		return res, "sheet " + cfg.GooglePlanSheet, err
	default:
		res, err := seed.Default()
		return res, "built-in table", err
	}
}
