package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	DefaultFloorYear = 2026

	// ProjectionSpan is the number of years shown after the selected one.
	ProjectionSpan = 3
)

// ProjectionConfig carries everything the projector needs besides the data:
// the first tracked year and the balances held before the tracked history.
type ProjectionConfig struct {
	FloorYear int
	Start     Balances
}

// DefaultProjectionConfig returns the balances the plan was drawn up with.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		FloorYear: DefaultFloorYear,
		Start:     Balances{Pension: 7000, ISA: 0, General: 20000},
	}
}

// YearSummary is the derived state of the portfolio at the end of a year.
type YearSummary struct {
	Year int
	// Age comes from the matching plan entry, 0 when there is none.
	Age int
	// Balances are the running per-account totals.
	Balances Balances
	// Inputs are the transaction deltas recorded in this year only.
	Inputs      Balances
	Total       int64
	Goal        int64
	Gap         int64
	Achievement decimal.Decimal
	Plan        *PlanEntry
}

// HasGoal reports whether a plan target exists for the year.
func (s YearSummary) HasGoal() bool {
	return s.Goal != 0
}

// Aggregate buckets transactions by calendar year and sums each account.
// Years without transactions are absent from the result.
func Aggregate(txs []Transaction) map[int]Balances {
	out := make(map[int]Balances)
	for _, t := range txs {
		y := t.Date.Year()
		out[y] = out[y].Add(t.Amounts)
	}
	return out
}

// Project walks every year from cfg.FloorYear to the last year present in
// either the plan or the deltas and accumulates running balances.
//
// Deltas dated before the floor year are folded into the opening balance so
// that the running total of any year is always the starting balance plus
// every amount dated up to and including that year.
func Project(cfg ProjectionConfig, deltas map[int]Balances, plans []PlanEntry) []YearSummary {
	plansByYear := make(map[int]PlanEntry, len(plans))
	maxYear := cfg.FloorYear
	for _, p := range plans {
		plansByYear[p.Year] = p
		if p.Year > maxYear {
			maxYear = p.Year
		}
	}

	running := cfg.Start
	for y, d := range deltas {
		if y > maxYear {
			maxYear = y
		}
		if y < cfg.FloorYear {
			running = running.Add(d)
		}
	}

	out := make([]YearSummary, 0, maxYear-cfg.FloorYear+1)
	for year := cfg.FloorYear; year <= maxYear; year++ {
		inputs := deltas[year]
		running = running.Add(inputs)
		total := running.Total()

		s := YearSummary{
			Year:     year,
			Balances: running,
			Inputs:   inputs,
			Total:    total,
		}
		if p, ok := plansByYear[year]; ok {
			p := p
			s.Plan = &p
			s.Age = p.Age
			s.Goal = p.Total
		}
		s.Gap = total - s.Goal
		s.Achievement = Achievement(total, s.Goal)
		out = append(out, s)
	}
	return out
}

// Summarize aggregates the transactions and projects them against the plan.
func Summarize(cfg ProjectionConfig, plans []PlanEntry, txs []Transaction) []YearSummary {
	return Project(cfg, Aggregate(txs), plans)
}

// Achievement returns actual/goal as a percentage rounded to one decimal
// place. A zero goal yields zero. Results are not clamped.
func Achievement(actual, goal int64) decimal.Decimal {
	if goal == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(actual).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(goal), 16).
		Round(1)
}

// Window returns the summaries for the years from..from+span inclusive.
func Window(summary []YearSummary, from, span int) []YearSummary {
	var out []YearSummary
	for _, s := range summary {
		if s.Year >= from && s.Year <= from+span {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the summary for year, if present.
func Find(summary []YearSummary, year int) (YearSummary, bool) {
	i := sort.Search(len(summary), func(i int) bool { return summary[i].Year >= year })
	if i < len(summary) && summary[i].Year == year {
		return summary[i], true
	}
	return YearSummary{}, false
}

// SortPlanEntries orders entries by ascending year in place.
func SortPlanEntries(entries []PlanEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Year < entries[j].Year })
}

// SortTransactions orders transactions newest first, then by descending id.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].ID > txs[j].ID
	})
}
