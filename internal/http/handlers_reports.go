package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"mstore/internal/core"
	"mstore/internal/report"
)

type statsResponse struct {
	Kind   core.Kind `json:"kind"`
	Period string    `json:"period"`
	report.Stats
}

type profitResponse struct {
	Period string          `json:"period"`
	Profit decimal.Decimal `json:"profit"`
}

type counterpartiesResponse struct {
	Kind           core.Kind                     `json:"kind"`
	Label          string                        `json:"label"`
	Counterparties []*report.CounterpartySummary `json:"counterparties"`
}

type monthResponse struct {
	Kind  core.Kind    `json:"kind"`
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Days  []report.Day `json:"days"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]any{"rows": s.ledger.Dashboard()}).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	p, err := queryPeriod(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	st, err := s.ledger.Stats(kind, p)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(statsResponse{Kind: kind, Period: p.String(), Stats: st}).Write(w)
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	p, err := queryPeriod(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(profitResponse{Period: p.String(), Profit: s.ledger.Profit(p)}).Write(w)
}

func (s *Server) handleCounterparties(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	summaries, err := s.ledger.Counterparties(kind)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if summaries == nil {
		summaries = []*report.CounterpartySummary{}
	}
	NewResponse().JSON(counterpartiesResponse{
		Kind:           kind,
		Label:          kind.CounterpartyLabel(),
		Counterparties: summaries,
	}).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	year, month, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	days, err := s.ledger.Month(kind, year, month)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(monthResponse{Kind: kind, Year: year, Month: int(month), Days: days}).Write(w)
}
