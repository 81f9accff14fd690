package sheets

import (
	"context"

	"retireplan/internal/core"
	"retireplan/internal/seed"
)

// Ports for spreadsheet adapters.
type (
	// SummaryExporter replaces the exported year summary.
	SummaryExporter interface {
		ExportSummaries(ctx context.Context, summary []core.YearSummary) error
	}

	// PlanReader reads a plan table maintained in a spreadsheet.
	PlanReader interface {
		ReadPlanEntries(ctx context.Context) (seed.Result, error)
	}
)
