package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"retireplan/internal/amqp"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/ports"
)

// PlanInput is a plan entry as submitted by a form, before normalization.
type PlanInput struct {
	Year                string
	Age                 string
	Pension             string
	ISA                 string
	General             string
	HealthInsuranceNote string
	TaxNote             string
	StrategyNote        string
}

// ParsePlanInput converts form values into a normalized entry. The total is
// always recomputed from the three targets.
func ParsePlanInput(in PlanInput) (core.PlanEntry, error) {
	year, err := strconv.Atoi(strings.TrimSpace(in.Year))
	if err != nil {
		return core.PlanEntry{}, fmt.Errorf("%w: %q", core.ErrInvalidYear, in.Year)
	}
	age := 0
	if s := strings.TrimSpace(in.Age); s != "" {
		if age, err = strconv.Atoi(s); err != nil {
			return core.PlanEntry{}, fmt.Errorf("%w: %q", core.ErrInvalidAge, in.Age)
		}
	}

	var p core.PlanEntry
	p.Year, p.Age = year, age
	for _, f := range []struct {
		name string
		raw  string
		dst  *int64
	}{
		{"pension", in.Pension, &p.Pension},
		{"isa", in.ISA, &p.ISA},
		{"general", in.General, &p.General},
	} {
		v, err := core.ParseAmount(f.raw)
		if err != nil {
			return core.PlanEntry{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	p.HealthInsuranceNote = in.HealthInsuranceNote
	p.TaxNote = in.TaxNote
	p.StrategyNote = in.StrategyNote

	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return core.PlanEntry{}, err
	}
	return p, nil
}

// PlanService manages the yearly targets.
type PlanService struct {
	store     ports.PlanStore
	publisher Publisher
	log       *applog.StructuredLogger
}

// NewPlanService wires a plan store. publisher and logger may be nil.
func NewPlanService(store ports.PlanStore, publisher Publisher, logger *applog.StructuredLogger) *PlanService {
	return &PlanService{
		store:     store,
		publisher: publisher,
		log:       structuredLogger(logger),
	}
}

func (s *PlanService) List(ctx context.Context) ([]core.PlanEntry, error) {
	entries, err := s.store.ListPlanEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}
	return entries, nil
}

func (s *PlanService) Get(ctx context.Context, id int64) (core.PlanEntry, error) {
	p, err := s.store.GetPlanEntry(ctx, id)
	if err != nil {
		return core.PlanEntry{}, fmt.Errorf("get plan entry %d: %w", id, err)
	}
	return p, nil
}

// Create stores a new entry. A year that already has an entry fails with
// core.ErrDuplicateYear.
func (s *PlanService) Create(ctx context.Context, in PlanInput) (core.PlanEntry, error) {
	p, err := ParsePlanInput(in)
	if err != nil {
		return core.PlanEntry{}, err
	}
	id, err := s.store.CreatePlanEntry(ctx, p)
	if err != nil {
		s.log.LogError(ctx, "Failed to create plan entry", err, applog.ComponentPlan, applog.OpCreate,
			applog.LogFields{applog.FieldYear: p.Year})
		return core.PlanEntry{}, fmt.Errorf("create plan entry: %w", err)
	}
	p.ID = id
	s.log.LogPlanEntrySaved(ctx, applog.OpCreate, id, p.Year, p.Total)
	notify(ctx, s.publisher, amqp.EntityPlan, id, p.Year)
	return p, nil
}

// Update replaces the entry with the given id. Moving it onto a year held by
// another entry fails with core.ErrDuplicateYear.
func (s *PlanService) Update(ctx context.Context, id int64, in PlanInput) (core.PlanEntry, error) {
	p, err := ParsePlanInput(in)
	if err != nil {
		return core.PlanEntry{}, err
	}
	p.ID = id
	if err := s.store.UpdatePlanEntry(ctx, p); err != nil {
		s.log.LogError(ctx, "Failed to update plan entry", err, applog.ComponentPlan, applog.OpUpdate,
			applog.LogFields{applog.FieldID: id, applog.FieldYear: p.Year})
		return core.PlanEntry{}, fmt.Errorf("update plan entry %d: %w", id, err)
	}
	s.log.LogPlanEntrySaved(ctx, applog.OpUpdate, id, p.Year, p.Total)
	notify(ctx, s.publisher, amqp.EntityPlan, id, p.Year)
	return p, nil
}

func (s *PlanService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePlanEntry(ctx, id); err != nil {
		return fmt.Errorf("delete plan entry %d: %w", id, err)
	}
	s.log.LogPlanEntrySaved(ctx, applog.OpDelete, id, 0, 0)
	notify(ctx, s.publisher, amqp.EntityPlan, id, 0)
	return nil
}

// Import upserts entries by year and returns how many were written. It
// stops at the first store error.
func (s *PlanService) Import(ctx context.Context, entries []core.PlanEntry) (int, error) {
	n := 0
	for _, e := range entries {
		e = e.Normalize()
		if err := e.Validate(); err != nil {
			return n, fmt.Errorf("plan entry %d: %w", e.Year, err)
		}
		id, err := s.store.UpsertPlanEntry(ctx, e)
		if err != nil {
			return n, fmt.Errorf("upsert plan entry %d: %w", e.Year, err)
		}
		s.log.LogPlanEntrySaved(ctx, applog.OpUpsert, id, e.Year, e.Total)
		n++
	}
	if n > 0 {
		notify(ctx, s.publisher, amqp.EntityFull, 0, 0)
	}
	return n, nil
}
