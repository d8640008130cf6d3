// Package handlers implements the HTTP boundary of the solarsite API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brightsun/solarsite/internal/content"
	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/fortlev"
	"github.com/brightsun/solarsite/internal/pkg/logger"
)

// KitProvider answers catalog and quote lookups
type KitProvider interface {
	Catalog(ctx context.Context) (*fortlev.Response, error)
	Quote(ctx context.Context, req entities.QuoteRequest) (*entities.QuoteResult, error)
}

// LeadManager stores and lists sales leads
type LeadManager interface {
	CreateLead(ctx context.Context, in entities.LeadInput) (*entities.Lead, error)
	GetLead(ctx context.Context, id string) (*entities.Lead, error)
	ListLeads(ctx context.Context, limit, offset int) ([]*entities.Lead, int64, error)
}

// PartnerConfig exposes the partner settings for diagnostics
type PartnerConfig interface {
	Credentials() fortlev.Credentials
}

// Deps groups what the handlers need
type Deps struct {
	Kits           KitProvider
	Leads          LeadManager
	Partner        PartnerConfig
	Content        *content.Store
	AdminTokenHash string
	Logger         *slog.Logger
}

// Handler holds dependencies for all HTTP handlers
type Handler struct {
	kits           KitProvider
	leads          LeadManager
	partner        PartnerConfig
	content        *content.Store
	adminTokenHash []byte
	log            *slog.Logger
}

// New creates a new handler with dependencies
func New(deps Deps) *Handler {
	h := &Handler{
		kits:    deps.Kits,
		leads:   deps.Leads,
		partner: deps.Partner,
		content: deps.Content,
		log:     logger.WithComponent(deps.Logger, "http_handler"),
	}
	if deps.AdminTokenHash != "" {
		h.adminTokenHash = []byte(deps.AdminTokenHash)
	}
	return h
}

// allowMethod rejects the request with 405 unless it uses the given method
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already encoded JSON document
func writeRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and reports its message as a 500
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// Register mounts every API route on router. Method checks happen inside the
// handlers so a wrong method never reaches the partner.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/fortlev/catalog", h.Catalog)
	router.HandleFunc("/api/fortlev/quote", h.Quote)
	router.HandleFunc("/api/fortlev/diagnostics", h.Diagnostics)

	router.HandleFunc("/rpc/leads.create", h.CreateLead)
	router.HandleFunc("/rpc/leads.list", h.ListLeads)
	router.HandleFunc("/rpc/leads.get", h.GetLead)

	router.HandleFunc("/api/blog", h.BlogPosts)
	router.HandleFunc("/api/blog/{slug}", h.BlogPost)
	router.HandleFunc("/api/cities", h.Cities)
	router.HandleFunc("/api/cities/{slug}", h.City)
}
