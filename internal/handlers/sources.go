package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenderwatch/internal/ingest"
)

const maxPayloadBytes = 1 << 20

// SourceIngestHandler handles POST /api/sources/{source}: one scraper
// delivery for one of the configured feeds.
func (h *Handler) SourceIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Unauthorized"})
		return
	}

	cfg, ok := ingest.Sources[chi.URLParam(r, "source")]
	if !ok {
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "Unknown source"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload ingest.RawTenderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid JSON format"})
		return
	}

	result, err := h.Tender.Process(r.Context(), cfg, &payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: err.Error()})
		return
	}
	writeResult(w, result, "Tender")
}

// OrganizationIngestHandler handles POST /api/sources/organizaciones.
func (h *Handler) OrganizationIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload ingest.RawOrganizationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid JSON format"})
		return
	}

	result, err := h.Orgs.Process(r.Context(), &payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: err.Error()})
		return
	}
	writeResult(w, result, "Organization")
}

func writeResult(w http.ResponseWriter, result *ingest.Result, entity string) {
	switch result.Outcome {
	case ingest.OutcomeCreated:
		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Message: entity + " created successfully",
			Data:    result.Tender,
		})
	case ingest.OutcomeUpdated:
		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Message: entity + " already exists. An update was performed.",
		})
	default:
		status := http.StatusBadRequest
		if result.Reason == ingest.ReasonDuplicate {
			// Redelivery is not the scraper's fault; acknowledge it so
			// the sender stops retrying.
			status = http.StatusOK
		}
		writeJSON(w, status, apiResponse{Success: false, Message: result.Reason})
	}
}
