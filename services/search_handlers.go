package services

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Abh1nav004/Really/catalog"
)

type searchRequest struct {
	Query string `json:"query"`
}

type searchView struct {
	Query   string            `json:"query"`
	Results []catalog.Product `json:"results"`
	History []string          `json:"history"`
}

type historyView struct {
	History []string `json:"history"`
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	r, span := s.startSpan(r, "Search", attribute.String("search.query", req.Query))
	defer span.End()

	history, err := s.History.Record(r.Context(), sessionID(r.Context()), req.Query)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	results := s.Catalog.Search(req.Query)
	if results == nil {
		results = []catalog.Product{}
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	writeJSON(w, http.StatusOK, searchView{Query: req.Query, Results: results, History: history})
}

func (s *Server) searchHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.History.List(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	if history == nil {
		history = []string{}
	}
	writeJSON(w, http.StatusOK, historyView{History: history})
}

func (s *Server) clearSearchHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.History.Clear(r.Context(), sessionID(r.Context())); err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
