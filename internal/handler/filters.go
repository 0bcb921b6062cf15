package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ordering/internal/filter"
)

// FilterHandler exposes the filter normalizer so list screens can turn
// their form state into query parameters.
type FilterHandler struct{}

func NewFilterHandler() *FilterHandler {
	return &FilterHandler{}
}

// RegisterRoutes registers filter endpoints on the given Chi router.
func (h *FilterHandler) RegisterRoutes(r chi.Router) {
	r.Get("/normalize", h.NormalizeQuery)
	r.Post("/normalize", h.NormalizeBody)
}

type normalizeResponse struct {
	Payload filter.Payload `json:"payload"`
	Query   string         `json:"query"`
}

// NormalizeQuery reads the draft from query parameters.
func (h *FilterHandler) NormalizeQuery(w http.ResponseWriter, r *http.Request) {
	h.respond(w, filter.ParseDraft(r.URL.Query()))
}

// NormalizeBody reads the draft from a JSON body.
func (h *FilterHandler) NormalizeBody(w http.ResponseWriter, r *http.Request) {
	var d filter.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, d)
}

func (h *FilterHandler) respond(w http.ResponseWriter, d filter.Draft) {
	p := filter.Normalize(d)
	writeJSON(w, http.StatusOK, normalizeResponse{Payload: p, Query: p.Values().Encode()})
}
