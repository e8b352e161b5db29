package http

import (
	"net/http"
	"sync/atomic"
)

const csvContentType = "text/csv; charset=utf-8"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	p, err := queryPeriod(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	filename, body, err := s.ledger.Export(kind, p)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	atomic.AddInt64(&s.exports, 1)
	NewResponse().Attachment(filename, csvContentType, body).Write(w)
}

func (s *Server) handleExportCounterparties(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	filename, body, err := s.ledger.ExportCounterparties(kind)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	atomic.AddInt64(&s.exports, 1)
	NewResponse().Attachment(filename, csvContentType, body).Write(w)
}

func (s *Server) handleExportDashboard(w http.ResponseWriter, _ *http.Request) {
	filename, body := s.ledger.ExportDashboard()
	atomic.AddInt64(&s.exports, 1)
	NewResponse().Attachment(filename, csvContentType, body).Write(w)
}
