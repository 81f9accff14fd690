package http

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"retireplan/internal/core"
	"retireplan/internal/services"
)

func transactionInput(p *RequestBodyParser) services.TransactionInput {
	return services.TransactionInput{
		Date:    p.Get("date"),
		Pension: p.Get("pension"),
		ISA:     p.Get("isa"),
		General: p.Get("general"),
	}
}

type transactionJSON struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Pension int64  `json:"pension"`
	ISA     int64  `json:"isa"`
	General int64  `json:"general"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:      t.ID,
		Date:    t.Date.String(),
		Pension: t.Amounts.Pension,
		ISA:     t.Amounts.ISA,
		General: t.Amounts.General,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	t, err := s.txs.Record(r.Context(), transactionInput(p))
	if err != nil {
		s.failInput(w, r, "/input", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsWritten, 1)
	s.succeed(w, r, http.StatusCreated, "/input",
		"Transaction of "+t.Date.String()+" recorded.",
		NewHTMXResponse().TriggerTransactionSaved(t.ID, t.Date.Year()).TriggerSummaryRefresh(),
		toTransactionJSON(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "/input", err.Error())
		return
	}
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	t, err := s.txs.Update(r.Context(), id, transactionInput(p))
	if err != nil {
		s.failInput(w, r, "/input", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsWritten, 1)
	s.succeed(w, r, http.StatusOK, "/input",
		"Transaction #"+strconv.FormatInt(id, 10)+" updated.",
		NewHTMXResponse().TriggerTransactionSaved(t.ID, t.Date.Year()).TriggerSummaryRefresh(),
		toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "/input", err.Error())
		return
	}
	if err := s.txs.Delete(r.Context(), id); err != nil {
		s.failInput(w, r, "/input", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsWritten, 1)
	s.succeed(w, r, http.StatusOK, "/input",
		"Transaction #"+strconv.FormatInt(id, 10)+" deleted.",
		NewHTMXResponse().TriggerTransactionDeleted(id).TriggerSummaryRefresh(),
		map[string]int64{"deleted": id})
}
