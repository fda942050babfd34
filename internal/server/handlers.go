package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/analysis"
	"github.com/spigell/interview-screener/internal/dashboard"
	"github.com/spigell/interview-screener/internal/interview"
	logfields "github.com/spigell/interview-screener/internal/logger"
	"github.com/spigell/interview-screener/internal/storage"
)

const maxBodySize = 64 << 10

type handler struct {
	machine   *interview.Machine
	sessions  storage.SessionStore
	results   storage.ResultRepo
	dashboard *dashboard.Service
	locks     *keyedMutex
	logger    *zap.Logger
}

type catalogResponse struct {
	Questions []interview.Question     `json:"questions"`
	Sections  interview.SectionCounts `json:"sections"`
}

type sessionResponse struct {
	Session         interview.Session   `json:"session"`
	Message         string              `json:"message,omitempty"`
	CurrentQuestion *interview.Question `json:"current_question,omitempty"`
}

type createSessionRequest struct {
	CandidateID string `json:"candidate_id"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	Session interview.Session `json:"session"`
	Reply   interview.Reply   `json:"reply"`
}

type analysisResponse struct {
	Analysis analysis.Analysis `json:"analysis"`
	Feedback string            `json:"feedback"`
}

// Catalog handles GET /v1/catalog
func (h *handler) Catalog(w http.ResponseWriter, _ *http.Request) {
	c := h.machine.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Questions: c.Questions(),
		Sections:  c.SectionCounts(),
	})
}

// CreateSession handles POST /v1/sessions
func (h *handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidateID := req.CandidateID
	if candidateID == "" {
		candidateID = r.URL.Query().Get("id")
	}

	session := h.machine.NewSession(candidateID)
	if err := h.sessions.Save(r.Context(), session); err != nil {
		h.logger.Error("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	h.logger.Info("interview started", logfields.SessionFields(session.ID, session.CandidateID)...)

	resp := sessionResponse{Session: session, Message: h.machine.Welcome()}
	if q, ok := h.machine.CurrentQuestion(session); ok {
		resp.CurrentQuestion = &q
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /v1/sessions/{id}
func (h *handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	resp := sessionResponse{Session: session}
	if q, ok := h.machine.CurrentQuestion(session); ok {
		resp.CurrentQuestion = &q
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /v1/sessions/{id}. It abandons an interview
// or drops a finished one once its results were read.
func (h *handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	unlock := h.locks.Lock(mux.Vars(r)["id"])
	defer unlock()

	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), session.ID); err != nil {
		h.logger.Error("failed to delete session", zap.String("session_id", session.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	h.logger.Info("session deleted", logfields.SessionFields(session.ID, session.CandidateID)...)
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAnswer handles POST /v1/sessions/{id}/answers
func (h *handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unlock := h.locks.Lock(mux.Vars(r)["id"])
	defer unlock()

	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	next, reply, err := h.machine.Submit(r.Context(), session, req.Answer)
	switch {
	case errors.Is(err, interview.ErrEmptyAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "evaluation was interrupted, please resubmit the answer")
		return
	case err != nil:
		h.logger.Error("failed to submit answer", zap.String("session_id", session.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit answer")
		return
	}

	if err := h.sessions.Save(r.Context(), next); err != nil {
		h.logger.Error("failed to save session", zap.String("session_id", next.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	// Delivery starts only once the completed session is stored, so a failed
	// save followed by a resubmission cannot deliver the result twice.
	if reply.Completes() {
		h.machine.Finalize(r.Context(), next)
	}

	writeJSON(w, http.StatusOK, answerResponse{Session: next, Reply: reply})
}

// Analysis handles GET /v1/sessions/{id}/analysis
func (h *handler) Analysis(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if !session.IsComplete {
		writeError(w, http.StatusConflict, "interview is not complete")
		return
	}

	a, err := analysis.Analyze(session.Answers, session.AverageScore, session.OverallLevel)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analysisResponse{Analysis: a, Feedback: analysis.Synthesize(a)})
}

// Results handles GET /v1/results
func (h *handler) Results(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result storage is not configured")
		return
	}

	filter := storage.ListFilter{CandidateID: strings.TrimSpace(r.URL.Query().Get("candidate_id"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	records, err := h.results.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list results", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Dashboard handles GET /v1/dashboard
func (h *handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.dashboard == nil {
		writeError(w, http.StatusServiceUnavailable, "result storage is not configured")
		return
	}

	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (h *handler) loadSession(w http.ResponseWriter, r *http.Request) (interview.Session, bool) {
	id := mux.Vars(r)["id"]

	session, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return interview.Session{}, false
	}
	if err != nil {
		h.logger.Error("failed to load session", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return interview.Session{}, false
	}

	return session, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
