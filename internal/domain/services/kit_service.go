package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/fortlev"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

// Default partner resource paths
const (
	DefaultCatalogPath = "/component/search"
	DefaultQuotePath   = "/order/quote"
)

// PartnerClient is the authenticated partner API surface used by KitService
type PartnerClient interface {
	Do(ctx context.Context, path string, req fortlev.Request) (*http.Response, error)
}

// KitService proxies catalog and quote lookups to the partner API
type KitService struct {
	partner     PartnerClient
	catalogPath string
	quotePath   string
	log         *slog.Logger
}

// NewKitService creates a new kit service. Empty paths fall back to the defaults.
func NewKitService(partner PartnerClient, catalogPath, quotePath string, logger *slog.Logger) *KitService {
	if catalogPath == "" {
		catalogPath = DefaultCatalogPath
	}
	if quotePath == "" {
		quotePath = DefaultQuotePath
	}
	return &KitService{
		partner:     partner,
		catalogPath: catalogPath,
		quotePath:   quotePath,
		log:         logger.With(slog.String("component", "kit_service")),
	}
}

// Catalog returns the partner's full component catalog, status and body untouched
func (s *KitService) Catalog(ctx context.Context) (*fortlev.Response, error) {
	resp, err := s.partner.Do(ctx, s.catalogPath, fortlev.Request{Method: http.MethodGet})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	out, err := fortlev.ReadResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if out.Body == nil {
		s.log.Warn("partner catalog body is not JSON", slog.Int("status", out.StatusCode))
	}
	return out, nil
}

// Quote forwards an order quote request and flattens the kits of every returned order
func (s *KitService) Quote(ctx context.Context, req entities.QuoteRequest) (*entities.QuoteResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote request: %w", err)
	}

	resp, err := s.partner.Do(ctx, s.quotePath, fortlev.Request{Method: http.MethodPost, Body: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to request quote: %w", err)
	}
	out, err := fortlev.ReadResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote: %w", err)
	}

	kits := FlattenKits(out.Body)
	metrics.QuoteKitsReturned.Observe(float64(len(kits)))
	s.log.Debug("quote answered",
		slog.Int("status", out.StatusCode),
		slog.Int("kits", len(kits)))

	return &entities.QuoteResult{
		StatusCode: out.StatusCode,
		Raw:        out.BodyOrNull(),
		PVKits:     kits,
	}, nil
}

// FlattenKits concatenates the pv_kits list of every order in a partner quote
// body. Anything other than a JSON array yields an empty list; orders without
// a pv_kits array contribute nothing.
func FlattenKits(body json.RawMessage) []json.RawMessage {
	kits := []json.RawMessage{}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return kits
	}

	var orders []json.RawMessage
	if err := json.Unmarshal(trimmed, &orders); err != nil {
		return kits
	}

	for _, order := range orders {
		var o struct {
			PVKits []json.RawMessage `json:"pv_kits"`
		}
		if err := json.Unmarshal(order, &o); err != nil {
			continue
		}
		kits = append(kits, o.PVKits...)
	}
	return kits
}
