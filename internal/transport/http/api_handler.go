package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"quiztaker/internal/domain"
	"quiztaker/internal/grading"
	"quiztaker/internal/infra/httpapi"
	"quiztaker/internal/logging"
	"quiztaker/internal/metrics"
)

// QuizSource supplies quiz content to the reference API.
type QuizSource interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionRecorder stores graded submissions. Optional.
type SubmissionRecorder interface {
	Record(ctx context.Context, quizID string, answers []domain.AnswerSubmission, resp domain.SubmitResponse) error
}

// APIHandler serves the quiz service consumed by the engine's HTTP client.
type APIHandler struct {
	quizzes       QuizSource
	recorder      SubmissionRecorder
	revealAnswers bool
	log           logrus.FieldLogger
	metrics       *metrics.Metrics
}

type APIOption func(*APIHandler)

func WithRecorder(r SubmissionRecorder) APIOption { return func(h *APIHandler) { h.recorder = r } }

func WithRevealAnswers(reveal bool) APIOption {
	return func(h *APIHandler) { h.revealAnswers = reveal }
}

func WithAPILogger(log logrus.FieldLogger) APIOption { return func(h *APIHandler) { h.log = log } }

func WithAPIMetrics(m *metrics.Metrics) APIOption { return func(h *APIHandler) { h.metrics = m } }

func NewAPIHandler(quizzes QuizSource, opts ...APIOption) *APIHandler {
	h := &APIHandler{quizzes: quizzes, log: logging.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the router: quiz endpoints, health and metrics.
func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(h.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}
	r.Get("/quiz/{id}", h.getQuiz)
	r.Post("/quiz/{id}/submit", h.submitQuiz)
	return r
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.LoadQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainErr(w, r, err)
		return
	}
	if !h.revealAnswers {
		quiz = quiz.WithoutAnswers()
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *APIHandler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")
	var req httpapi.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	quiz, err := h.quizzes.LoadQuiz(r.Context(), quizID)
	if err != nil {
		h.writeDomainErr(w, r, err)
		return
	}
	resp, err := grading.Grade(quiz, req.Answers)
	if err != nil {
		h.writeDomainErr(w, r, err)
		return
	}
	if h.recorder != nil {
		if err := h.recorder.Record(r.Context(), quizID, req.Answers, resp); err != nil {
			h.log.WithError(err).WithField("quiz_id", quizID).Warn("record submission failed")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeErr(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, domain.ErrValidation):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *APIHandler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.ObserveRequest(route, strconv.Itoa(status), started)
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"route":  route,
			"status": status,
			"took":   time.Since(started).String(),
		}).Debug("request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
