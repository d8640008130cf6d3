package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/brightsun/solarsite/internal/domain/entities"
)

const maxQuoteBody = 64 << 10

// Catalog proxies the partner component catalog, status and body as received
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	resp, err := h.kits.Catalog(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeRawJSON(w, resp.StatusCode, resp.BodyOrNull())
}

// Quote forwards a kit quote request and answers {raw, pv_kits} with the partner status
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	req := entities.NewQuoteRequest()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxQuoteBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.kits.Quote(r.Context(), req)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, result.StatusCode, result)
}

// Diagnostics reports which partner settings are present, never their values
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.partner.Credentials().Presence())
}
