package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/cache"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/store"
	"github.com/sells-group/underwriter/internal/validation"
	"github.com/sells-group/underwriter/internal/valuation"
)

func (s *server) creditReview(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeLoanRequest(raw)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	if s.Reviews != nil {
		if a, hit := s.Reviews.Get(r.Context(), req); hit {
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, a)
			return
		}
	}

	a, err := s.Scorer.Assess(r.Context(), req)
	if err != nil {
		writeUnavailable(w, "credit review", err)
		return
	}
	s.Metrics.ObserveAssessment(string(a.LoanType), string(a.Fraud.Severity))

	if s.Reviews != nil {
		if err := s.Reviews.Put(r.Context(), req, a); err != nil {
			zap.L().Warn("api: cache review", zap.Error(err))
		}
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) committeeReview(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeCommitteeRequest(raw)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	if req.ApplicationID == "" {
		req.ApplicationID = "CR-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	res, err := s.Committee.Deliberate(r.Context(), req)
	if err != nil {
		writeUnavailable(w, "committee review", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) runWorkflow(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeWorkflowRequest(raw)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	res, err := s.Workflow.Run(r.Context(), req)
	if err != nil {
		writeUnavailable(w, "workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) valuate(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeValuationRequest(raw)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	input := req.ValuationInput
	v := valuation.Resolve(r.Context(), s.Valuation, req.LoanAmount, &model.Property{Region: req.Region}, &input)
	if v.Mode == model.ValuationModeSynthesized {
		s.Metrics.ObserveFallback("valuation")
	}
	writeJSON(w, http.StatusOK, v)
}

type reviewResponse struct {
	model.Run
	Phases []model.RunPhase `json:"phases"`
}

func (s *server) getReview(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	id := chi.URLParam(r, "id")

	run, err := s.Runs.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	if err != nil {
		writeUnavailable(w, "get review", err)
		return
	}
	phases, err := s.Runs.ListPhases(r.Context(), id)
	if err != nil {
		writeUnavailable(w, "list phases", err)
		return
	}
	if phases == nil {
		phases = []model.RunPhase{}
	}
	writeJSON(w, http.StatusOK, reviewResponse{Run: *run, Phases: phases})
}

func (s *server) listReviews(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status:   model.RunStatus(q.Get("status")),
		LoanType: model.LoanType(q.Get("loan_type")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := s.Runs.ListRuns(r.Context(), filter)
	if err != nil {
		writeUnavailable(w, "list reviews", err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	hours, err := intParam(r.URL.Query().Get("hours"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours must be a non-negative integer")
		return
	}
	if hours == 0 {
		hours = s.StatsLookbackHours
	}

	snap, err := s.Stats.Collect(r.Context(), hours)
	if err != nil {
		writeUnavailable(w, "collect stats", err)
		return
	}
	s.Metrics.SetSnapshot(snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.Tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "session tokens not configured")
		return
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if body.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "invalid request",
			Fields: []validation.FieldError{{Field: "user_id", Message: "is required"}},
		})
		return
	}

	tok, err := s.Tokens.Issue(r.Context(), body.UserID)
	if err != nil {
		writeUnavailable(w, "issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

func (s *server) validateToken(w http.ResponseWriter, r *http.Request) {
	s.lookupToken(w, r, s.Tokens.Validate)
}

func (s *server) consumeToken(w http.ResponseWriter, r *http.Request) {
	s.lookupToken(w, r, s.Tokens.Consume)
}

func (s *server) lookupToken(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, token string) (*cache.SessionToken, error)) {
	if s.Tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "session tokens not configured")
		return
	}
	tok, err := fn(r.Context(), chi.URLParam(r, "token"))
	if errors.Is(err, cache.ErrTokenInvalid) {
		writeError(w, http.StatusNotFound, "token invalid or expired")
		return
	}
	if err != nil {
		writeUnavailable(w, "token lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
