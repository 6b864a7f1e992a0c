package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hyperjump/medfinder/internal/models"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// issueCallerID returns the request's caller ID, generating one when absent.
// The ID is echoed in the response header.
func issueCallerID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(CallerHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(CallerHeader, id)
	return id
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.CombinedQuery
	if !s.decode(w, r, &query) {
		return
	}
	callerID := issueCallerID(w, r)
	s.logger.Debug("search request", zap.String("caller_id", callerID), zap.String("text", query.Text))
	resp, err := s.service.Find(callerID, query.Text)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp.CallerID = callerID
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchName(w http.ResponseWriter, r *http.Request) {
	var query models.NameQuery
	if !s.decode(w, r, &query) {
		return
	}
	callerID := issueCallerID(w, r)
	s.logger.Debug("name search request", zap.String("caller_id", callerID), zap.String("query", query.Query))
	resp, err := s.service.ByName(callerID, query.Query)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp.CallerID = callerID
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchSpeciality(w http.ResponseWriter, r *http.Request) {
	var query models.SpecialityQuery
	if !s.decode(w, r, &query) {
		return
	}
	callerID := issueCallerID(w, r)
	s.logger.Debug("speciality search request",
		zap.String("caller_id", callerID),
		zap.String("speciality", query.Speciality),
		zap.String("location", query.Location),
	)
	resp, err := s.service.BySpeciality(callerID, query.Speciality, query.Location)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp.CallerID = callerID
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	callerID := issueCallerID(w, r)
	resp, err := s.service.All(callerID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp.CallerID = callerID
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get(CallerHeader)
	if callerID == "" {
		s.respondErr(w, fmt.Errorf("%w: %s header required", models.ErrNoSession, CallerHeader))
		return
	}
	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondErr(w, fmt.Errorf("%w: page must be an integer", models.ErrInvalidQuery))
			return
		}
		page = n
	}
	p, err := s.service.Page(callerID, page)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	index, ok := s.recordIndex(w, r)
	if !ok {
		return
	}
	fromResults := r.URL.Query().Get("from") == "results"
	detail, err := s.service.Detail(r.Header.Get(CallerHeader), index, fromResults)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	index, ok := s.recordIndex(w, r)
	if !ok {
		return
	}
	report, err := s.service.Market(index)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondErr(w, fmt.Errorf("%w: record index must be an integer", models.ErrInvalidQuery))
		return 0, false
	}
	return index, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", "invalid_query")
		return false
	}
	return true
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrDataSourceMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrEmptyStore),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondError(w, status, err.Error(), models.ErrorKind(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, kind string) {
	s.respondJSON(w, status, errorBody{Error: message, Kind: kind})
}
