package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"coatvision/internal/analysis"
	"coatvision/internal/model"
	"coatvision/internal/records"
	"coatvision/internal/scoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Store 抽象本地记录存储接口。
type Store interface {
	ListJobs(ctx context.Context) []model.Job
	GetJob(ctx context.Context, id string) (model.Job, bool)
	AddJob(ctx context.Context, in records.JobInput) (model.Job, error)
	ListPanels(ctx context.Context, jobID string) []model.Panel
	AddPanel(ctx context.Context, jobID string, in records.PanelInput) (model.Panel, error)
	GetHistory(ctx context.Context) []model.HistoryEntry
	GetHistoryEntry(ctx context.Context, id string) (model.HistoryEntry, bool)
	AddHistoryEntry(ctx context.Context, in records.HistoryInput) (model.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// persistedHeader 为 false 时表示记录已生成但未写入存储。
const persistedHeader = "X-Persisted"

type handler struct {
	store    Store
	analyzer analysis.Analyzer
	pricing  scoring.PricingDefaults
	log      zerolog.Logger
}

// NewHandler 构造 HTTP 路由。
func NewHandler(store Store, analyzer analysis.Analyzer, pricing scoring.PricingDefaults, log zerolog.Logger) http.Handler {
	h := &handler{store: store, analyzer: analyzer, pricing: pricing, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.listJobs)
			r.Post("/", h.addJob)
			r.Get("/{id}", h.getJob)
			r.Get("/{id}/panels", h.listPanels)
			r.Post("/{id}/panels", h.addPanel)
		})
		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.listHistory)
			r.Delete("/", h.clearHistory)
			r.Get("/{id}", h.getHistoryEntry)
		})
		r.Post("/analyze/image", h.analyzeImage)
		r.Post("/analyze/live", h.analyzeLive)
		r.Route("/scores", func(r chi.Router) {
			r.Post("/dc", h.scoreDC)
			r.Post("/cqi", h.scoreCQI)
			r.Post("/cvi", h.scoreCVI)
			r.Post("/price", h.scorePrice)
		})
	})

	return r
}

// writeCreated 写入新建记录；err 包装 ErrNotPersisted 时仍返回 201 并标记未持久化。
func (h *handler) writeCreated(w http.ResponseWriter, v any, err error) {
	if err != nil {
		if !errors.Is(err, records.ErrNotPersisted) {
			h.writeError(w, err)
			return
		}
		w.Header().Set(persistedHeader, "false")
	} else {
		w.Header().Set(persistedHeader, "true")
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *analysis.APIError
	switch {
	case errors.Is(err, records.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, records.ErrInvalidInput),
		errors.Is(err, scoring.ErrInvalidArgument),
		errors.Is(err, analysis.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": apiErr.Message, "code": apiErr.Code})
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
