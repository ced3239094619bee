package api

import (
	"net/http"

	"coatvision/internal/scoring"
)

func (h *handler) scoreDC(w http.ResponseWriter, r *http.Request) {
	var in scoring.DCInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"dc": scoring.ComputeDC(in)})
}

func (h *handler) scoreCQI(w http.ResponseWriter, r *http.Request) {
	var in scoring.CQIInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cqi": scoring.ComputeCQI(in)})
}

func (h *handler) scoreCVI(w http.ResponseWriter, r *http.Request) {
	var in scoring.CVIInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cvi": scoring.ComputeCVI(in)})
}

func (h *handler) scorePrice(w http.ResponseWriter, r *http.Request) {
	var in scoring.PriceInput
	if !decodeJSON(w, r, &in) {
		return
	}
	est, err := scoring.EstimatePrice(in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}
