package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"retireplan/internal/core"
	"retireplan/internal/ports"
)

// Report is everything derived from one consistent read of the store.
type Report struct {
	Config  core.ProjectionConfig
	Plans   []core.PlanEntry
	Summary []core.YearSummary
}

// Dashboard is the data shown on the landing page.
type Dashboard struct {
	Report
	// Current is the floor year summary; nil only when Summary is empty.
	Current      *core.YearSummary
	SelectedYear int
	Projection   []core.YearSummary
}

// ChartData is the plan series plotted on the dashboard.
type ChartData struct {
	Labels  []int   `json:"labels"`
	Pension []int64 `json:"pension"`
	ISA     []int64 `json:"isa"`
	General []int64 `json:"general"`
	Total   []int64 `json:"total"`
}

// ProgressService compares recorded balances with the plan. Every call
// re-reads the store and recomputes from scratch.
type ProgressService struct {
	plans ports.PlanStore
	txs   ports.TransactionStore
	cfg   core.ProjectionConfig
}

func NewProgressService(plans ports.PlanStore, txs ports.TransactionStore, cfg core.ProjectionConfig) *ProgressService {
	return &ProgressService{plans: plans, txs: txs, cfg: cfg}
}

func (s *ProgressService) Config() core.ProjectionConfig {
	return s.cfg
}

// Report loads plans and transactions concurrently and summarizes them.
func (s *ProgressService) Report(ctx context.Context) (Report, error) {
	var (
		plans []core.PlanEntry
		txs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if plans, err = s.plans.ListPlanEntries(gctx); err != nil {
			return fmt.Errorf("list plan entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if txs, err = s.txs.ListTransactions(gctx); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	core.SortPlanEntries(plans)
	return Report{
		Config:  s.cfg,
		Plans:   plans,
		Summary: core.Summarize(s.cfg, plans, txs),
	}, nil
}

// Summary returns the gapless per-year summary.
func (s *ProgressService) Summary(ctx context.Context) ([]core.YearSummary, error) {
	r, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return r.Summary, nil
}

// Dashboard builds the landing page. selectedYear <= 0 selects the floor
// year; the projection covers it and the following ProjectionSpan years.
func (s *ProgressService) Dashboard(ctx context.Context, selectedYear int) (Dashboard, error) {
	r, err := s.Report(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	if selectedYear <= 0 {
		selectedYear = s.cfg.FloorYear
	}

	d := Dashboard{
		Report:       r,
		SelectedYear: selectedYear,
		Projection:   core.Window(r.Summary, selectedYear, core.ProjectionSpan),
	}
	if cur, ok := core.Find(r.Summary, s.cfg.FloorYear); ok {
		d.Current = &cur
	}
	return d, nil
}

// ChartData returns the plan targets per year.
func (s *ProgressService) ChartData(ctx context.Context) (ChartData, error) {
	plans, err := s.plans.ListPlanEntries(ctx)
	if err != nil {
		return ChartData{}, fmt.Errorf("list plan entries: %w", err)
	}
	core.SortPlanEntries(plans)

	data := ChartData{
		Labels:  make([]int, 0, len(plans)),
		Pension: make([]int64, 0, len(plans)),
		ISA:     make([]int64, 0, len(plans)),
		General: make([]int64, 0, len(plans)),
		Total:   make([]int64, 0, len(plans)),
	}
	for _, p := range plans {
		data.Labels = append(data.Labels, p.Year)
		data.Pension = append(data.Pension, p.Pension)
		data.ISA = append(data.ISA, p.ISA)
		data.General = append(data.General, p.General)
		data.Total = append(data.Total, p.Total)
	}
	return data, nil
}
