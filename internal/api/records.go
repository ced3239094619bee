package api

import (
	"net/http"

	"coatvision/internal/analysis"
	"coatvision/internal/model"
	"coatvision/internal/records"
	"coatvision/internal/scoring"

	"github.com/go-chi/chi/v5"
)

// jobDetail 为施工单详情页数据。
type jobDetail struct {
	Job     model.Job          `json:"job"`
	Panels  []model.Panel      `json:"panels"`
	Summary scoring.JobSummary `json:"summary"`
}

func (h *handler) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListJobs(r.Context()))
}

func (h *handler) addJob(w http.ResponseWriter, r *http.Request) {
	var in records.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := h.store.AddJob(r.Context(), in)
	h.writeCreated(w, job, err)
}

func (h *handler) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := h.store.GetJob(r.Context(), id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	panels := h.store.ListPanels(r.Context(), id)
	summary, err := scoring.SummarizeJob(job, panels, h.pricing)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobDetail{Job: job, Panels: panels, Summary: summary})
}

func (h *handler) listPanels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListPanels(r.Context(), chi.URLParam(r, "id")))
}

func (h *handler) addPanel(w http.ResponseWriter, r *http.Request) {
	var in records.PanelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	panel, err := h.store.AddPanel(r.Context(), chi.URLParam(r, "id"), in)
	h.writeCreated(w, panel, err)
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetHistory(r.Context()))
}

func (h *handler) getHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.GetHistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearHistory(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("clear history not persisted")
		w.Header().Set(persistedHeader, "false")
	}
	w.WriteHeader(http.StatusNoContent)
}

// analyzeImage 调用分析服务并记录到历史。
func (h *handler) analyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analysis.ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.analyzer.AnalyzeImage(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := h.store.AddHistoryEntry(r.Context(), records.HistoryInput{
		Mode:     model.ModeImage,
		Source:   model.SourceAnalyzeScreen,
		ImageURI: req.ImageURI,
		Result:   res,
	})
	h.writeCreated(w, entry, err)
}

func (h *handler) analyzeLive(w http.ResponseWriter, r *http.Request) {
	var req analysis.LiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.analyzer.AnalyzeLive(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := h.store.AddHistoryEntry(r.Context(), records.HistoryInput{
		Mode:   model.ModeLive,
		Source: model.SourceLiveScreen,
		Result: res,
	})
	h.writeCreated(w, entry, err)
}
