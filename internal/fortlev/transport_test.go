package fortlev

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePartnerRoute(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"login untouched", "/user/login", "/user/login"},
		{"numeric id", "/order/123", "/order/:id"},
		{"numeric id mid path", "/order/123/kits", "/order/:id/kits"},
		{"adjacent ids", "/order/123/456", "/order/:id/:id"},
		{"uuid", "/kit/3f2c1b7e-9a4d-4c8e-b1f2-0a9e8d7c6b5a/components", "/kit/:uuid/components"},
		{"object id", "/component/64b7f0c2e13a4d5f6a7b8c9d", "/component/:oid"},
		{"digits inside segment kept", "/v2/component/search", "/v2/component/search"},
		{"empty", "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePartnerRoute(tt.path); got != tt.expected {
				t.Errorf("normalizePartnerRoute(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestMetricsTransport_PassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewMetricsTransport(nil)}
	resp, err := client.Get(server.URL + "/order/77")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}
}

func TestReadResponse_NonJSONBodyBecomesNull(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	rec.WriteString("<html>upstream error</html>")

	resp, err := ReadResponse(rec.Result())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Body != nil {
		t.Errorf("expected nil body, got %s", resp.Body)
	}
	if string(resp.BodyOrNull()) != "null" {
		t.Errorf("BodyOrNull = %s", resp.BodyOrNull())
	}
}

func TestReadResponse_JSONBodyKept(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteString(`{"items":[1,2]}`)

	resp, err := ReadResponse(rec.Result())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if !strings.EqualFold(string(resp.Body), `{"items":[1,2]}`) {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestCredentials_Presence(t *testing.T) {
	p := Credentials{BaseURL: "https://partner.example", Password: "x"}.Presence()
	if !p.BaseURL || p.Username || !p.Password {
		t.Errorf("unexpected presence %+v", p)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://partner.example")
	t.Setenv(EnvUsername, "installer")
	t.Setenv(EnvPassword, "")

	creds := CredentialsFromEnv()
	if creds.BaseURL != "https://partner.example" || creds.Username != "installer" {
		t.Errorf("unexpected credentials %+v", creds)
	}
	if err := creds.Validate(); err == nil || !strings.Contains(err.Error(), EnvPassword) {
		t.Errorf("expected missing password error, got %v", err)
	}
}
