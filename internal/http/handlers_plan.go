package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"retireplan/internal/core"
	"retireplan/internal/services"
)

func planInput(p *RequestBodyParser) services.PlanInput {
	return services.PlanInput{
		Year:                p.Get("year"),
		Age:                 p.Get("age"),
		Pension:             p.Get("pension"),
		ISA:                 p.Get("isa"),
		General:             p.Get("general"),
		HealthInsuranceNote: p.Get("health_insurance"),
		TaxNote:             p.Get("tax"),
		StrategyNote:        p.Get("strategy"),
	}
}

type planJSON struct {
	ID              int64  `json:"id"`
	Year            int    `json:"year"`
	Age             int    `json:"age"`
	Pension         int64  `json:"pension"`
	ISA             int64  `json:"isa"`
	General         int64  `json:"general"`
	Total           int64  `json:"total"`
	HealthInsurance string `json:"health_insurance"`
	Tax             string `json:"tax"`
	Strategy        string `json:"strategy"`
}

func toPlanJSON(e core.PlanEntry) planJSON {
	return planJSON{
		ID:              e.ID,
		Year:            e.Year,
		Age:             e.Age,
		Pension:         e.Pension,
		ISA:             e.ISA,
		General:         e.General,
		Total:           e.Total,
		HealthInsurance: e.HealthInsuranceNote,
		Tax:             e.TaxNote,
		Strategy:        e.StrategyNote,
	}
}

func (s *Server) failPlan(w http.ResponseWriter, r *http.Request, year string, err error) {
	if errors.Is(err, core.ErrDuplicateYear) {
		s.fail(w, r, http.StatusUnprocessableEntity, "/manage", "A plan entry for "+year+" already exists.")
		return
	}
	s.failInput(w, r, "/manage", err)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	in := planInput(p)
	e, err := s.plans.Create(r.Context(), in)
	if err != nil {
		s.failPlan(w, r, in.Year, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.planWrites, 1)
	s.succeed(w, r, http.StatusCreated, "/manage",
		"Plan for "+strconv.Itoa(e.Year)+" added.",
		NewHTMXResponse().TriggerPlanSaved(e.ID, e.Year).TriggerSummaryRefresh(),
		toPlanJSON(e))
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "/manage", err.Error())
		return
	}
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	in := planInput(p)
	e, err := s.plans.Update(r.Context(), id, in)
	if err != nil {
		s.failPlan(w, r, in.Year, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.planWrites, 1)
	s.succeed(w, r, http.StatusOK, "/manage",
		"Plan for "+strconv.Itoa(e.Year)+" updated.",
		NewHTMXResponse().TriggerPlanSaved(e.ID, e.Year).TriggerSummaryRefresh(),
		toPlanJSON(e))
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "/manage", err.Error())
		return
	}
	if err := s.plans.Delete(r.Context(), id); err != nil {
		s.failInput(w, r, "/manage", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.planWrites, 1)
	s.succeed(w, r, http.StatusOK, "/manage", "Plan entry deleted.",
		NewHTMXResponse().TriggerPlanDeleted(id).TriggerSummaryRefresh(),
		map[string]int64{"deleted": id})
}
