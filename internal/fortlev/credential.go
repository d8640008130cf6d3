package fortlev

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTokenType = "Bearer"

	// defaultTokenLifetime applies when the login response carries no expiry
	defaultTokenLifetime = 50 * time.Minute

	// refreshMargin is how long before expiry a cached token is considered stale
	refreshMargin = 30 * time.Second
)

// credential is the cached bearer token. It is immutable once built; the
// client swaps the whole pointer on login and invalidation.
type credential struct {
	token     string
	tokenType string
	expiresAt time.Time
}

func (c *credential) header() string {
	return c.tokenType + " " + c.token
}

// freshAt reports whether the token is still usable at now, keeping refreshMargin in hand
func (c *credential) freshAt(now time.Time) bool {
	return now.Add(refreshMargin).Before(c.expiresAt)
}

// loginResponse is the JSON body returned by POST /user/login.
// expires_in and _expiry_time are decoded lazily because the partner has
// sent both numbers and strings for them.
type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
	ExpiryTime  json.RawMessage `json:"_expiry_time"`
}

func newCredential(resp loginResponse, now time.Time) *credential {
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = defaultTokenType
	}
	return &credential{
		token:     resp.AccessToken,
		tokenType: tokenType,
		expiresAt: resp.expiry(now),
	}
}

// expiry picks the token expiry: an explicit _expiry_time if it parses, then a
// positive expires_in, then the default lifetime.
func (r loginResponse) expiry(now time.Time) time.Time {
	if t, ok := parseExpiryTime(r.ExpiryTime); ok {
		return t
	}
	if secs, ok := parseNumber(r.ExpiresIn); ok && secs > 0 {
		return now.Add(secondsToDuration(secs))
	}
	return now.Add(defaultTokenLifetime)
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
	time.RFC1123Z,
}

// parseExpiryTime accepts a timestamp string (zone-less values are UTC) or a
// unix epoch number. Epoch values below 1e11 are seconds, larger ones milliseconds.
func parseExpiryTime(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range expiryLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToTime(f)
		}
		return time.Time{}, false
	}

	if f, ok := parseNumber(raw); ok {
		return epochToTime(f)
	}
	return time.Time{}, false
}

// secondsToDuration saturates at the largest Duration instead of overflowing
func secondsToDuration(secs float64) time.Duration {
	if secs >= maxDurationSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}

const maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)

// epochToTime rejects values whose millisecond count does not fit in int64
func epochToTime(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	ms := f
	if f < 1e11 {
		ms = f * 1000
	}
	if ms >= float64(math.MaxInt64) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// parseNumber decodes a JSON number or a numeric string
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
