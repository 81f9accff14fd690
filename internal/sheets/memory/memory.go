// Package memory is an in-process spreadsheet used when Google Sheets is not
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"retireplan/internal/core"
	"retireplan/internal/seed"
	ports "retireplan/internal/sheets"
)

var (
	_ ports.SummaryExporter = (*Sheet)(nil)
	_ ports.PlanReader      = (*Sheet)(nil)
)

type Sheet struct {
	mu      sync.Mutex
	plan    [][]string
	summary []core.YearSummary
	exports int
}

// New returns a sheet whose plan tab holds the given entries.
func New(plan []core.PlanEntry) *Sheet {
	return &Sheet{plan: seed.Rows(plan)}
}

func (s *Sheet) ExportSummaries(_ context.Context, summary []core.YearSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = append([]core.YearSummary(nil), summary...)
	s.exports++
	return nil
}

func (s *Sheet) ReadPlanEntries(_ context.Context) (seed.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seed.ParseRows(s.plan), nil
}

// Exported returns the last exported summary and how many exports ran.
func (s *Sheet) Exported() ([]core.YearSummary, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.YearSummary(nil), s.summary...), s.exports
}
