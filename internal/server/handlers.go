package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

type errorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Index  *index.Stats `json:"index,omitempty"`
}

// ReindexRequest is the body of POST /v1/admin/reindex. Zero fields keep the
// current setting.
type ReindexRequest struct {
	IndexType      string `json:"index_type,omitempty"`
	GraphDegree    int    `json:"graph_degree,omitempty"`
	EfConstruction int    `json:"ef_construction,omitempty"`
	EfSearch       int    `json:"ef_search,omitempty"`
	Partitions     int    `json:"partitions,omitempty"`
	Probes         int    `json:"probes,omitempty"`
}

func (rr ReindexRequest) apply(c *index.Config) {
	if rr.GraphDegree != 0 {
		c.GraphDegree = rr.GraphDegree
	}
	if rr.EfConstruction != 0 {
		c.EfConstruction = rr.EfConstruction
	}
	if rr.EfSearch != 0 {
		c.EfSearch = rr.EfSearch
	}
	if rr.Partitions != 0 {
		c.Partitions = rr.Partitions
	}
	if rr.Probes != 0 {
		c.Probes = rr.Probes
	}
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if !s.sem.TryAcquire(1) {
		w.Header().Set("Retry-After", "1")
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "too many requests in flight",
			Category:  "overloaded",
			RequestID: chimiddleware.GetReqID(r.Context()),
		})
		return
	}
	defer s.sem.Release(1)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, &model.InvalidIntentError{Reason: "unreadable body: " + err.Error()})
		return
	}

	in, err := model.ParseIntent(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.rec.Recommend(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req ReindexRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, &model.ConfigurationError{Option: "body", Reason: err.Error()})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, r, &model.ConfigurationError{Option: "body", Reason: "malformed JSON: " + err.Error()})
			return
		}
	}

	var kind index.Kind
	if req.IndexType != "" {
		if kind, err = index.ParseKind(req.IndexType); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	// A disconnecting client does not abort the rebuild.
	ctx := context.WithoutCancel(r.Context())
	if err := s.rec.Reindex(ctx, kind, req.apply); err != nil {
		s.writeError(w, r, err)
		return
	}

	stats, err := s.rec.IndexStats()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Index: &stats})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.rec.IndexStats()
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Index: &stats})
}

// statusOf maps an error category to an HTTP status and a category name.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidIntent):
		return http.StatusBadRequest, "invalid_intent"
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusBadRequest, "configuration"
	case errors.Is(err, recgo.ErrReindexInProgress):
		return http.StatusConflict, "reindex_in_progress"
	case errors.Is(err, model.ErrIndexNotReady):
		return http.StatusServiceUnavailable, "index_not_ready"
	case errors.Is(err, model.ErrCollaborator):
		return http.StatusBadGateway, "collaborator"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	case errors.Is(err, model.ErrMissingArtifact):
		return http.StatusInternalServerError, "missing_artifact"
	case errors.Is(err, model.ErrDimensionMismatch):
		return http.StatusInternalServerError, "dimension_mismatch"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, category := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.ErrorContext(r.Context(), "request failed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	s.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Category:  category,
		RequestID: chimiddleware.GetReqID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
