package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightsun/solarsite/internal/content"
	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/repositories"
	"github.com/brightsun/solarsite/internal/domain/services"
	"github.com/brightsun/solarsite/internal/fortlev"
)

// partnerStub is a fake distributor API with a login endpoint and two resources
type partnerStub struct {
	srv         *httptest.Server
	quoteBody   string
	resourceHit atomic.Int32
}

func newPartnerStub(t *testing.T) *partnerStub {
	t.Helper()
	p := &partnerStub{quoteBody: `[]`}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"access_token":"tok","expires_in":600}`)
		case services.DefaultCatalogPath:
			p.resourceHit.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"items":[{"sku":"MOD-550","power":550},{"sku":"INV-5K"}]}`)
		case services.DefaultQuotePath:
			p.resourceHit.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, p.quoteBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLeads struct {
	createErr error
	getErr    error
	leads     []*entities.Lead
	gotLimit  int
}

func (s *stubLeads) CreateLead(ctx context.Context, in entities.LeadInput) (*entities.Lead, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &entities.Lead{ID: "7001", Name: in.Name, CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}, nil
}

func (s *stubLeads) GetLead(ctx context.Context, id string) (*entities.Lead, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &entities.Lead{ID: id, Name: "Ana"}, nil
}

func (s *stubLeads) ListLeads(ctx context.Context, limit, offset int) ([]*entities.Lead, int64, error) {
	s.gotLimit = limit
	return s.leads, int64(len(s.leads)), nil
}

const adminToken = "painel-secreto"

func newTestRouter(t *testing.T, partner *partnerStub, leads LeadManager, withAdmin bool) http.Handler {
	t.Helper()

	client := fortlev.New(fortlev.Credentials{
		BaseURL:  partner.srv.URL,
		Username: "integrador",
		Password: "senha",
	}, fortlev.WithHTTPClient(partner.srv.Client()), fortlev.WithLogger(discardLogger()))

	store, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}

	deps := Deps{
		Kits:    services.NewKitService(client, "", "", discardLogger()),
		Leads:   leads,
		Partner: client,
		Content: store,
		Logger:  discardLogger(),
	}
	if withAdmin {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		deps.AdminTokenHash = string(hash)
	}

	router := mux.NewRouter()
	New(deps).Register(router)
	return router
}

func serve(h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCatalog_ProxiesStatusAndBody(t *testing.T) {
	partner := newPartnerStub(t)
	router := newTestRouter(t, partner, &stubLeads{}, false)

	rec := serve(router, http.MethodGet, "/api/fortlev/catalog", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	want := `{"items":[{"sku":"MOD-550","power":550},{"sku":"INV-5K"}]}`
	if rec.Body.String() != want {
		t.Errorf("body = %s, want %s", rec.Body, want)
	}
}

func TestQuote_FlattensKits(t *testing.T) {
	tests := []struct {
		name      string
		partner   string
		wantKits  string
		wantRawOK bool
	}{
		{"list of orders", `[{"pv_kits":[{"id":1}]},{"pv_kits":[{"id":2}]}]`, `[{"id":1},{"id":2}]`, true},
		{"error object", `{"error":"x"}`, `[]`, true},
		{"not JSON", `<html>oops</html>`, `[]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partner := newPartnerStub(t)
			partner.quoteBody = tt.partner
			router := newTestRouter(t, partner, &stubLeads{}, false)

			rec := serve(router, http.MethodPost, "/api/fortlev/quote", `{"power":5.5,"city":"Goiânia"}`, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}

			var got struct {
				Raw    json.RawMessage `json:"raw"`
				PVKits json.RawMessage `json:"pv_kits"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if string(got.PVKits) != tt.wantKits {
				t.Errorf("pv_kits = %s, want %s", got.PVKits, tt.wantKits)
			}
			if tt.wantRawOK && string(got.Raw) != tt.partner {
				t.Errorf("raw = %s, want %s", got.Raw, tt.partner)
			}
			if !tt.wantRawOK && string(got.Raw) != "null" {
				t.Errorf("raw = %s, want null", got.Raw)
			}
		})
	}
}

func TestQuote_EmptyBodyUsesDefaults(t *testing.T) {
	partner := newPartnerStub(t)
	router := newTestRouter(t, partner, &stubLeads{}, false)

	rec := serve(router, http.MethodPost, "/api/fortlev/quote", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestQuote_InvalidJSON(t *testing.T) {
	partner := newPartnerStub(t)
	router := newTestRouter(t, partner, &stubLeads{}, false)

	rec := serve(router, http.MethodPost, "/api/fortlev/quote", `{"power":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if partner.resourceHit.Load() != 0 {
		t.Error("partner should not be called for invalid input")
	}
}

func TestMethodGuard(t *testing.T) {
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/fortlev/catalog"},
		{http.MethodDelete, "/api/fortlev/catalog"},
		{http.MethodPut, "/api/fortlev/diagnostics"},
		{http.MethodGet, "/api/fortlev/quote"},
		{http.MethodPost, "/api/blog"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			partner := newPartnerStub(t)
			router := newTestRouter(t, partner, &stubLeads{}, false)

			rec := serve(router, tt.method, tt.path, `{}`, nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
			if partner.resourceHit.Load() != 0 {
				t.Error("partner was called")
			}
		})
	}
}

func TestDiagnostics_ReportsPresenceOnly(t *testing.T) {
	partner := newPartnerStub(t)
	router := newTestRouter(t, partner, &stubLeads{}, false)

	rec := serve(router, http.MethodGet, "/api/fortlev/diagnostics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "senha") || strings.Contains(rec.Body.String(), "integrador") {
		t.Errorf("diagnostics leaked a value: %s", rec.Body)
	}

	var got map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !got["base_url"] || !got["username"] || !got["password"] {
		t.Errorf("presence = %v", got)
	}
}

func TestCatalog_MissingConfigurationIs500(t *testing.T) {
	store, _ := content.Default()
	client := fortlev.New(fortlev.Credentials{BaseURL: "http://127.0.0.1:1"}, fortlev.WithLogger(discardLogger()))
	router := mux.NewRouter()
	New(Deps{
		Kits:    services.NewKitService(client, "", "", discardLogger()),
		Leads:   &stubLeads{},
		Partner: client,
		Content: store,
		Logger:  discardLogger(),
	}).Register(router)

	rec := serve(router, http.MethodGet, "/api/fortlev/catalog", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !strings.Contains(body["error"], fortlev.EnvUsername) || !strings.Contains(body["error"], fortlev.EnvPassword) {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCreateLead(t *testing.T) {
	partner := newPartnerStub(t)

	t.Run("created", func(t *testing.T) {
		router := newTestRouter(t, partner, &stubLeads{}, false)
		rec := serve(router, http.MethodPost, "/rpc/leads.create", `{"name":"Ana","email":"ana@example.com"}`, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		if !strings.Contains(rec.Body.String(), `"id":"7001"`) || !strings.Contains(rec.Body.String(), `"created_at":"2025-05-01T10:00:00Z"`) {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("validation", func(t *testing.T) {
		leads := &stubLeads{createErr: &services.ValidationError{Fields: map[string]string{"name": "is required"}}}
		router := newTestRouter(t, partner, leads, false)
		rec := serve(router, http.MethodPost, "/rpc/leads.create", `{}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var body validationResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("body: %v", err)
		}
		if body.Fields["name"] != "is required" {
			t.Errorf("fields = %v", body.Fields)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		router := newTestRouter(t, partner, &stubLeads{createErr: errors.New("failed to create lead: connection refused")}, false)
		rec := serve(router, http.MethodPost, "/rpc/leads.create", `{"name":"Ana"}`, nil)
		if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "connection refused") {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		router := newTestRouter(t, partner, &stubLeads{}, false)
		rec := serve(router, http.MethodPost, "/rpc/leads.create", `nope`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestAdminGuard(t *testing.T) {
	partner := newPartnerStub(t)
	bearer := func(tok string) http.Header { return http.Header{"Authorization": {"Bearer " + tok}} }

	tests := []struct {
		name      string
		withAdmin bool
		header    http.Header
		want      int
	}{
		{"not configured", false, bearer(adminToken), http.StatusForbidden},
		{"missing token", true, nil, http.StatusUnauthorized},
		{"wrong token", true, bearer("chute"), http.StatusUnauthorized},
		{"valid token", true, bearer(adminToken), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads := &stubLeads{}
			router := newTestRouter(t, partner, leads, tt.withAdmin)
			rec := serve(router, http.MethodGet, "/rpc/leads.list?limit=5", "", tt.header)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if rec.Body.String() != "{\"leads\":[],\"total\":0}\n" {
					t.Errorf("body = %q", rec.Body)
				}
				if leads.gotLimit != 5 {
					t.Errorf("limit = %d", leads.gotLimit)
				}
			}
		})
	}
}

func TestGetLead(t *testing.T) {
	partner := newPartnerStub(t)
	auth := http.Header{"Authorization": {"Bearer " + adminToken}}

	router := newTestRouter(t, partner, &stubLeads{}, true)
	if rec := serve(router, http.MethodGet, "/rpc/leads.get?id=42", "", auth); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"42"`) {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := serve(router, http.MethodGet, "/rpc/leads.get", "", auth); rec.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d", rec.Code)
	}

	notFound := newTestRouter(t, partner, &stubLeads{getErr: repositories.ErrLeadNotFound}, true)
	if rec := serve(notFound, http.MethodGet, "/rpc/leads.get?id=9", "", auth); rec.Code != http.StatusNotFound {
		t.Errorf("not found status = %d", rec.Code)
	}
}

func TestContentEndpoints(t *testing.T) {
	partner := newPartnerStub(t)
	router := newTestRouter(t, partner, &stubLeads{}, false)

	rec := serve(router, http.MethodGet, "/api/blog", "", nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"html"`) {
		t.Errorf("blog list status = %d body %s", rec.Code, rec.Body)
	}

	rec = serve(router, http.MethodGet, "/api/blog/quanto-custa-energia-solar", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"canonical":"/blog/quanto-custa-energia-solar"`) {
		t.Errorf("blog post status = %d body %s", rec.Code, rec.Body)
	}

	if rec = serve(router, http.MethodGet, "/api/blog/nao-existe", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing post status = %d", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/api/cities/goiania-go", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"irradiation_kwh_m2_day":5.38`) {
		t.Errorf("city status = %d body %s", rec.Code, rec.Body)
	}

	rec = serve(router, http.MethodGet, "/api/cities", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cities":[`) {
		t.Errorf("cities status = %d", rec.Code)
	}
}
