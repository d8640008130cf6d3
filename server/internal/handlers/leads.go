package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/services"
)

const maxLeadBody = 16 << 10

type createLeadResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type listLeadsResponse struct {
	Leads []*entities.Lead `json:"leads"`
	Total int64            `json:"total"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// CreateLead handles POST /rpc/leads.create
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var in entities.LeadInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxLeadBody)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	lead, err := h.leads.CreateLead(r.Context(), in)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: verr.Fields})
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createLeadResponse{ID: lead.ID, CreatedAt: lead.CreatedAt})
}

// ListLeads handles GET /rpc/leads.list
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) || !h.requireAdmin(w, r) {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	leads, total, err := h.leads.ListLeads(r.Context(), limit, offset)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if leads == nil {
		leads = []*entities.Lead{}
	}
	writeJSON(w, http.StatusOK, listLeadsResponse{Leads: leads, Total: total})
}

// GetLead handles GET /rpc/leads.get?id=
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) || !h.requireAdmin(w, r) {
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	lead, err := h.leads.GetLead(r.Context(), id)
	if err != nil {
		if services.IsLeadNotFound(err) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// requireAdmin checks the bearer token against the configured bcrypt hash.
// Without a configured hash the lead listing is closed to everyone.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if len(h.adminTokenHash) == 0 {
		writeError(w, http.StatusForbidden, "admin access is not configured")
		return false
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="solarsite"`)
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return false
	}

	if err := bcrypt.CompareHashAndPassword(h.adminTokenHash, []byte(token)); err != nil {
		h.log.Warn("rejected admin token", "path", r.URL.Path, "client_ip", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", `Bearer realm="solarsite"`)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
