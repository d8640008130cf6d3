package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brightsun/solarsite/internal/fortlev"
)

// setupCLI points the CLI at a temporary config file and the given partner URL
func setupCLI(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "solarctl.yaml"))
	t.Setenv(fortlev.EnvBaseURL, baseURL)
	t.Setenv(fortlev.EnvUsername, "integrador")
	t.Setenv(fortlev.EnvPassword, "senha")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fakePartner(t *testing.T, quoteStatus int, quoteBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			if r.FormValue("password") != "senha" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"Bearer"}`)
		case "/component/search":
			_, _ = io.WriteString(w, `{"items":[{"sku":"MOD-550"}]}`)
		case "/order/quote":
			w.WriteHeader(quoteStatus)
			_, _ = io.WriteString(w, quoteBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCatalogCommand(t *testing.T) {
	srv := fakePartner(t, http.StatusOK, `[]`)
	setupCLI(t, srv.URL)

	out, err := runCLI(t, "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, `"sku": "MOD-550"`) {
		t.Errorf("output = %s", out)
	}
}

func TestQuoteCommand(t *testing.T) {
	srv := fakePartner(t, http.StatusOK, `[{"pv_kits":[{"id":1}]},{"pv_kits":[{"id":2}]}]`)
	setupCLI(t, srv.URL)

	out, err := runCLI(t, "quote", "--power", "5.5", "--city", "Goiânia")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	want := "[\n  {\n    \"id\": 1\n  },\n  {\n    \"id\": 2\n  }\n]\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestQuoteCommand_PartnerErrorStatus(t *testing.T) {
	srv := fakePartner(t, http.StatusBadGateway, `{"error":"x"}`)
	setupCLI(t, srv.URL)

	out, err := runCLI(t, "quote", "--raw")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status error, got %v", err)
	}
	if !strings.Contains(out, `"error": "x"`) {
		t.Errorf("raw body should still be printed: %s", out)
	}
}

func TestCatalogCommand_MissingPassword(t *testing.T) {
	srv := fakePartner(t, http.StatusOK, `[]`)
	setupCLI(t, srv.URL)
	t.Setenv(fortlev.EnvPassword, "")

	_, err := runCLI(t, "catalog")
	if err == nil || !strings.Contains(err.Error(), fortlev.EnvPassword) {
		t.Errorf("expected configuration error naming the password, got %v", err)
	}
}

func TestDiagCommand(t *testing.T) {
	setupCLI(t, "")
	t.Setenv(fortlev.EnvPassword, "")

	out, err := runCLI(t, "diag")
	if err != nil {
		t.Fatalf("diag: %v", err)
	}
	if strings.Contains(out, "integrador") {
		t.Error("diag must not print values")
	}
	for _, want := range []string{"FORTLEV_BASE_URL  missing", "FORTLEV_USERNAME  set", "FORTLEV_PASSWORD  missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBlogCommands(t *testing.T) {
	setupCLI(t, "")

	out, err := runCLI(t, "blog", "list")
	if err != nil {
		t.Fatalf("blog list: %v", err)
	}
	if !strings.Contains(out, "como-dimensionar-um-kit") {
		t.Errorf("list output = %s", out)
	}

	out, err = runCLI(t, "blog", "show", "como-dimensionar-um-kit")
	if err != nil {
		t.Fatalf("blog show: %v", err)
	}
	// not a terminal, so the markdown is printed as-is
	if !strings.HasPrefix(out, "# Como dimensionar um kit fotovoltaico\n") {
		t.Errorf("show output = %s", out)
	}

	if _, err := runCLI(t, "blog", "show", "nada"); err == nil {
		t.Error("expected error for unknown post")
	}
}

func TestConfigContexts(t *testing.T) {
	setupCLI(t, "")

	if _, err := runCLI(t, "config", "add-context", "staging", "--base-url", "http://partner.internal", "--username", "ops"); err != nil {
		t.Fatalf("add-context: %v", err)
	}
	if _, err := runCLI(t, "config", "use-context", "staging"); err != nil {
		t.Fatalf("use-context: %v", err)
	}

	out, err := runCLI(t, "config", "current-context")
	if err != nil || strings.TrimSpace(out) != "staging" {
		t.Errorf("current-context = %q, %v", out, err)
	}

	if _, err := runCLI(t, "config", "delete-context", "staging"); err == nil {
		t.Error("deleting the current context should fail")
	}

	out, err = runCLI(t, "config", "list-contexts")
	if err != nil || !strings.Contains(out, "http://partner.internal") {
		t.Errorf("list-contexts = %s, %v", out, err)
	}
}

func TestResolveCredentials_ContextThenEnv(t *testing.T) {
	t.Setenv(fortlev.EnvBaseURL, "")
	t.Setenv(fortlev.EnvUsername, "from-env")
	t.Setenv(fortlev.EnvPassword, "")

	ctx := &Context{}
	ctx.Fortlev.BaseURL = "http://ctx"
	ctx.Fortlev.Username = "from-ctx"

	creds, err := resolveCredentials(ctx, false, os.Stdin, io.Discard)
	if err != nil {
		t.Fatalf("resolveCredentials: %v", err)
	}
	if creds.BaseURL != "http://ctx" || creds.Username != "from-env" || creds.Password != "" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestRenderMarkdown_PlainWhenNotTerminal(t *testing.T) {
	if got := renderMarkdown("**oi**", "dark", false); got != "**oi**" {
		t.Errorf("renderMarkdown = %q", got)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solarctl.yaml")
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig on missing file: %v", err)
	}
	if cfg.CurrentContext != defaultContextName || cfg.Theme() != defaultTheme {
		t.Errorf("unexpected default config %+v", cfg)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("loading must not create the config file")
	}

	cfg.Put("prod", &Context{Fortlev: PartnerSettings{BaseURL: "https://partner.example", Username: "ops"}})
	if err := cfg.Use("prod"); err != nil {
		t.Fatalf("Use: %v", err)
	}
	if err := cfg.Remove("prod"); err == nil {
		t.Error("removing the active context should fail")
	}
	if err := cfg.Remove(defaultContextName); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ctx, err := loaded.GetCurrentContext()
	if err != nil {
		t.Fatalf("GetCurrentContext: %v", err)
	}
	if loaded.CurrentContext != "prod" || ctx.Fortlev.Username != "ops" || len(loaded.Names()) != 1 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
	if loaded.Theme() != defaultTheme {
		t.Errorf("theme = %q, want fallback %q", loaded.Theme(), defaultTheme)
	}
}
