package http

import (
	"net/http"
	"strconv"
	"strings"

	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/services"
)

// selectedYear reads proj_year; anything unusable selects the floor year.
func selectedYear(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("proj_year"))
	if v == "" {
		return 0
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 0 {
		return 0
	}
	return y
}

type dashboardData struct {
	services.Dashboard
	Years []int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.progress.Dashboard(r.Context(), selectedYear(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard load failed",
			applog.FieldComponent, applog.ComponentProgress,
			applog.FieldError, err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	data := dashboardData{Dashboard: d, Years: make([]int, 0, len(d.Summary))}
	for _, y := range d.Summary {
		data.Years = append(data.Years, y.Year)
	}
	s.render(w, r, http.StatusOK, "dashboard.html", page{Title: "Dashboard", Active: "dashboard", Data: data})
}

type inputData struct {
	Transactions []core.Transaction
	Summary      []core.YearSummary
	Today        string
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	txs, err := s.txs.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", applog.FieldError, err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}
	summary, err := s.progress.Summary(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary failed", applog.FieldError, err)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "input.html", page{
		Title:  "Input",
		Active: "input",
		Data: inputData{
			Transactions: txs,
			Summary:      summary,
			Today:        s.txs.Today().String(),
		},
	})
}

// manageRow pairs a plan entry with what was actually reached that year.
type manageRow struct {
	Plan   core.PlanEntry
	Actual core.YearSummary
	// Tracked is false for plan years before the floor year.
	Tracked bool
}

func (s *Server) handleManage(w http.ResponseWriter, r *http.Request) {
	report, err := s.progress.Report(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report failed", applog.FieldError, err)
		http.Error(w, "failed to load plan", http.StatusInternalServerError)
		return
	}
	rows := make([]manageRow, 0, len(report.Plans))
	for _, p := range report.Plans {
		actual, ok := core.Find(report.Summary, p.Year)
		rows = append(rows, manageRow{Plan: p, Actual: actual, Tracked: ok})
	}
	s.render(w, r, http.StatusOK, "manage.html", page{Title: "Manage plan", Active: "manage", Data: rows})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	data, err := s.progress.ChartData(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart data failed", applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load chart data"})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type balancesJSON struct {
	Pension int64 `json:"pension"`
	ISA     int64 `json:"isa"`
	General int64 `json:"general"`
}

type yearSummaryJSON struct {
	Year        int          `json:"year"`
	Age         int          `json:"age,omitempty"`
	Balances    balancesJSON `json:"balances"`
	Inputs      balancesJSON `json:"inputs"`
	Total       int64        `json:"total"`
	Goal        int64        `json:"goal"`
	Gap         int64        `json:"gap"`
	Achievement float64      `json:"achievement"`
}

type summaryResponse struct {
	FloorYear    int               `json:"floor_year"`
	SelectedYear int               `json:"selected_year"`
	Summary      []yearSummaryJSON `json:"summary"`
	Projection   []yearSummaryJSON `json:"projection"`
}

func toSummaryJSON(in []core.YearSummary) []yearSummaryJSON {
	out := make([]yearSummaryJSON, 0, len(in))
	for _, s := range in {
		out = append(out, yearSummaryJSON{
			Year:        s.Year,
			Age:         s.Age,
			Balances:    balancesJSON(s.Balances),
			Inputs:      balancesJSON(s.Inputs),
			Total:       s.Total,
			Goal:        s.Goal,
			Gap:         s.Gap,
			Achievement: s.Achievement.InexactFloat64(),
		})
	}
	return out
}

func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	d, err := s.progress.Dashboard(r.Context(), selectedYear(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary API failed", applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load summary"})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		FloorYear:    d.Config.FloorYear,
		SelectedYear: d.SelectedYear,
		Summary:      toSummaryJSON(d.Summary),
		Projection:   toSummaryJSON(d.Projection),
	})
}
