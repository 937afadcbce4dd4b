package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/session"
)

type collectionResponse struct {
	UserID  string              `json:"user_id"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
	Records []collection.Record `json:"records"`
}

// handleListCollection returns a user's records, filtered by the optional
// year, city, coin and condition query parameters.
func (s *Server) handleListCollection(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	if s.records == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "store not configured")
		return
	}

	all, err := s.records.Load(r.Context(), userID)
	if err != nil {
		s.logger.Warn("collection lookup failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	matched := collection.Match(criteriaFromQuery(r), all)
	if matched == nil {
		matched = []collection.Record{}
	}
	respondJSON(w, http.StatusOK, collectionResponse{
		UserID:  userID,
		Count:   len(matched),
		Total:   len(all),
		Records: matched,
	})
}

func criteriaFromQuery(r *http.Request) collection.Criteria {
	q := r.URL.Query()
	field := func(name string) *string {
		if !q.Has(name) {
			return nil
		}
		v := q.Get(name)
		return &v
	}
	c := collection.Criteria{
		Year:     field("year"),
		City:     field("city"),
		CoinType: field("coin"),
	}
	// An empty ?condition= selects coins recorded without a condition.
	if v := field("condition"); v != nil {
		c.Condition, c.NoCondition = collection.ConditionFilter(*v)
	}
	return c
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	before, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if before.Status == session.StatusActive {
		s.metrics.SessionEnded("ended_by_operator")
	}
	respondJSON(w, http.StatusOK, sess)
}
