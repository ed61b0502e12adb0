package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler wires the HTTP surface to the ingestion pipelines and the
// tender store.
type Handler struct {
	Store  StorageInterface
	Tender TenderIngestor
	Orgs   OrganizationIngestor
	APIKey string
}

func NewHandler(store StorageInterface, tender TenderIngestor, orgs OrganizationIngestor, apiKey string) *Handler {
	return &Handler{Store: store, Tender: tender, Orgs: orgs, APIKey: apiKey}
}

// Routes mounts every endpoint under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.PingHandler)

	r.Route("/sources", func(r chi.Router) {
		r.Post("/{source}", h.SourceIngestHandler)
		r.Post("/organizaciones", h.OrganizationIngestHandler)
	})

	r.Route("/tenders", func(r chi.Router) {
		r.Get("/", h.GetTendersHandler)
		r.Get("/counter", h.GetCounterHandler)
		r.Get("/active", h.GetActiveHandler)
		r.Get("/adjudications", h.GetAdjudicationsHandler)
		r.Get("/minor-contracts", h.GetMinorContractsHandler)
		r.Get("/{tenderId}", h.GetTenderHandler)
	})
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// apiResponse is the envelope every ingest endpoint answers with.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// authorized checks the scraper API key header.
func (h *Handler) authorized(r *http.Request) bool {
	return h.APIKey != "" && r.Header.Get("X-Api-Key") == h.APIKey
}
