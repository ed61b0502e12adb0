package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tenderwatch/db"
	"tenderwatch/models"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 10}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

type tenderListResponse struct {
	Data  []models.Tender `json:"data"`
	Total int             `json:"total"`
}

func (h *Handler) listTenders(w http.ResponseWriter, r *http.Request, f db.TenderFilter) {
	params := parsePaginationParams(r)
	f.Limit = params.Limit
	f.Offset = params.Offset

	tenders, total, err := h.Store.GetTenders(r.Context(), f)
	if err != nil {
		http.Error(w, "Failed to get tenders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tenderListResponse{Data: tenders, Total: total})
}

// GetTendersHandler lists tenders newest-first with optional filters:
// status (repeatable), source, country.
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	f := db.TenderFilter{
		Statuses: r.URL.Query()["status"],
		Source:   r.URL.Query().Get("source"),
		Country:  r.URL.Query().Get("country"),
	}
	h.listTenders(w, r, f)
}

// GetActiveHandler lists tenders whose submission deadline has not
// passed.
func (h *Handler) GetActiveHandler(w http.ResponseWriter, r *http.Request) {
	h.listTenders(w, r, db.TenderFilter{ActiveOnly: true})
}

// GetAdjudicationsHandler lists awarded tenders.
func (h *Handler) GetAdjudicationsHandler(w http.ResponseWriter, r *http.Request) {
	adjudication := true
	h.listTenders(w, r, db.TenderFilter{IsAdjudication: &adjudication})
}

// GetMinorContractsHandler lists tenders seen through the
// minor-contracts feed.
func (h *Handler) GetMinorContractsHandler(w http.ResponseWriter, r *http.Request) {
	minor := true
	h.listTenders(w, r, db.TenderFilter{IsMinorContract: &minor})
}

// GetCounterHandler returns the total number of live tenders.
func (h *Handler) GetCounterHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.Store.CountTenders(r.Context())
	if err != nil {
		http.Error(w, "Failed to count tenders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"count": count})
}

// GetTenderHandler returns one tender with its CPV codes and source
// attributions.
func (h *Handler) GetTenderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tenderId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid tender id", http.StatusBadRequest)
		return
	}

	tender, err := h.Store.GetTender(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Tender not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get tender", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tender)
}
