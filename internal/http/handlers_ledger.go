package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"mstore/internal/core"
	applog "mstore/internal/log"
)

type recordsResponse struct {
	Kind    core.Kind     `json:"kind"`
	DateKey string        `json:"dateKey"`
	Records []core.Record `json:"records"`
}

type recordResponse struct {
	Kind    core.Kind   `json:"kind"`
	DateKey string      `json:"dateKey"`
	Record  core.Record `json:"record"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	dateKey, err := pathDateKey(r, s.ledger.Today)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	records, err := s.ledger.Records(kind, dateKey)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	NewResponse().JSON(recordsResponse{Kind: kind, DateKey: dateKey, Records: records}).Write(w)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	kind, err := pathKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	dateKey, err := pathDateKey(r, s.ledger.Today)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
			return
		}
		BadRequestError("invalid request body").Write(w)
		return
	}

	rec, err := s.ledger.AddRecord(r.Context(), kind, dateKey, parser.RecordFields(kind))
	if err != nil {
		logger.InfoContext(r.Context(), "Rejected record", applog.FieldKind, kind, applog.FieldDateKey, dateKey, "error", err)
		ErrorFor(err).Write(w)
		return
	}
	atomic.AddInt64(&s.recordsAdded, 1)

	NewResponse().
		Status(http.StatusCreated).
		JSON(recordResponse{Kind: kind, DateKey: dateKey, Record: rec}).
		Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	dateKey, err := pathDateKey(r, s.ledger.Today)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rec, err := s.ledger.DeleteRecord(r.Context(), kind, dateKey, index)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	atomic.AddInt64(&s.recordsDeleted, 1)
	NewResponse().JSON(recordResponse{Kind: kind, DateKey: dateKey, Record: rec}).Write(w)
}
