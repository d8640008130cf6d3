// Package fortlev is a client for the Fortlev partner API (solar kit catalog
// and order quotes).
//
// The client logs in with username/password, caches the bearer token it gets
// back and refreshes it shortly before expiry. Concurrent callers that find the
// token missing or stale share a single login exchange. A request rejected
// with 401 drops the cached token, logs in again and is retried once.
//
//	client := fortlev.New(fortlev.CredentialsFromEnv(), fortlev.WithLogger(log))
//	resp, err := client.Do(ctx, "/component/search", fortlev.Request{})
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
package fortlev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/singleflight"

	"github.com/brightsun/solarsite/internal/pkg/logger"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

const (
	loginPath = "/user/login"
	loginKey  = "login"

	defaultTimeout      = 30 * time.Second
	defaultLoginTimeout = 15 * time.Second
)

// Request describes an authenticated call. Body is kept as bytes so the call
// can be replayed after a re-login.
type Request struct {
	Method string
	Header http.Header
	Body   []byte
}

// Client holds the partner credential cache. Safe for concurrent use.
type Client struct {
	creds        Credentials
	httpClient   *http.Client
	log          *slog.Logger
	now          func() time.Time
	loginTimeout time.Duration

	mu   sync.Mutex
	cred *credential

	logins singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client used for partner calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used by the client
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithLoginTimeout bounds a single login exchange. Zero or less disables the bound.
func WithLoginTimeout(d time.Duration) Option {
	return func(c *Client) { c.loginTimeout = d }
}

// WithClock overrides the time source used for expiry decisions
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a partner client. Credentials are validated on first login.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:        creds,
		log:          slog.Default(),
		now:          time.Now,
		loginTimeout: defaultLoginTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		hc := cleanhttp.DefaultPooledClient()
		hc.Timeout = defaultTimeout
		hc.Transport = NewMetricsTransport(hc.Transport)
		c.httpClient = hc
	}
	c.log = logger.WithComponent(c.log, "fortlev_client")
	return c
}

// Credentials returns the configured credentials
func (c *Client) Credentials() Credentials {
	return c.creds
}

// Login performs a login exchange and installs the resulting credential.
// If an exchange is already running the caller waits for it and gets its
// outcome instead of starting another.
func (c *Client) Login(ctx context.Context) error {
	_, err := c.login(ctx, false)
	return err
}

// AuthHeader returns the Authorization header value, logging in first when no
// credential is cached or the cached one expires within the refresh margin.
func (c *Client) AuthHeader(ctx context.Context) (string, error) {
	if cred := c.current(); cred != nil && cred.freshAt(c.now()) {
		return cred.header(), nil
	}
	cred, err := c.login(ctx, true)
	if err != nil {
		return "", err
	}
	return cred.header(), nil
}

// Invalidate drops the cached credential
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cred = nil
	c.mu.Unlock()
	metrics.PartnerTokenExpiry.Set(0)
}

// TokenExpiry returns the expiry of the cached credential, or the zero time
// when nothing is cached.
func (c *Client) TokenExpiry() time.Time {
	if cred := c.current(); cred != nil {
		return cred.expiresAt
	}
	return time.Time{}
}

// Do sends an authenticated request to baseURL+path and returns the raw
// response. The caller owns the response body. A 401 answer triggers exactly
// one forced re-login and one retry; whatever the retry returns is handed back.
// Transport errors are returned as-is.
func (c *Client) Do(ctx context.Context, path string, req Request) (*http.Response, error) {
	header, err := c.AuthHeader(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, path, req, header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	drain(resp)
	c.log.Warn("partner rejected credential, logging in again", slog.String("path", path))
	c.Invalidate()
	metrics.PartnerReauthRetries.Inc()

	header, err = c.AuthHeader(ctx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, path, req, header)
}

func (c *Client) current() *credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cred
}

// login runs the exchange through the singleflight group. With onlyIfStale the
// shared call first rechecks the cache, so callers that queue up behind a
// login that already finished do not start another one.
func (c *Client) login(ctx context.Context, onlyIfStale bool) (*credential, error) {
	ch := c.logins.DoChan(loginKey, func() (interface{}, error) {
		if onlyIfStale {
			if cred := c.current(); cred != nil && cred.freshAt(c.now()) {
				return cred, nil
			}
		}
		// Detached so one waiter giving up does not fail the exchange for the rest
		return c.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*credential), nil
	}
}

func (c *Client) exchange(ctx context.Context) (*credential, error) {
	if err := c.creds.Validate(); err != nil {
		metrics.PartnerLogins.WithLabelValues("config_error").Inc()
		return nil, err
	}

	if c.loginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.loginTimeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.endpoint(loginPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fortlev: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PartnerLogins.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("fortlev: login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.PartnerLogins.WithLabelValues("rejected").Inc()
		authErr := &AuthenticationError{StatusCode: resp.StatusCode, Body: readBodyText(resp.Body)}
		c.log.Error("partner login failed", slog.Int("status", resp.StatusCode))
		return nil, authErr
	}

	var body loginResponse
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PartnerLogins.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("fortlev: read login response: %w", err)
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.AccessToken == "" {
		metrics.PartnerLogins.WithLabelValues("invalid_response").Inc()
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Body: "login response carried no access_token"}
	}

	cred := newCredential(body, c.now())

	c.mu.Lock()
	c.cred = cred
	c.mu.Unlock()

	metrics.PartnerLogins.WithLabelValues("success").Inc()
	metrics.PartnerTokenExpiry.Set(float64(cred.expiresAt.Unix()))
	c.log.Info("partner login succeeded",
		slog.Time("expires_at", cred.expiresAt),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return cred, nil
}

func (c *Client) send(ctx context.Context, path string, r Request, authHeader string) (*http.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("fortlev: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for name, values := range r.Header {
		if http.CanonicalHeaderKey(name) == "Authorization" {
			continue
		}
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Authorization", authHeader)

	return c.httpClient.Do(req)
}

// readBodyText reads an error body; a failed read yields the empty string
func readBodyText(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
