package fortlev

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

// metricsTransport wraps an http.RoundTripper to collect metrics on partner API calls
type metricsTransport struct {
	base http.RoundTripper
}

// NewMetricsTransport wraps base with partner API metrics collection
func NewMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper
func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	route := normalizePartnerRoute(req.URL.Path)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	metrics.PartnerAPICalls.WithLabelValues(req.Method, route, strconv.Itoa(statusCode)).Inc()
	metrics.PartnerAPIDuration.WithLabelValues(req.Method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		metrics.PartnerAPIErrors.WithLabelValues(route, metrics.ClassifyPartnerError(statusCode, err)).Inc()
	}

	return resp, err
}

var routePatterns = []struct {
	regex   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), "/:uuid"},
	{regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`), "/:oid$1"},
	{regexp.MustCompile(`/\d+(/|$)`), "/:id$1"},
}

// normalizePartnerRoute replaces identifiers in partner paths with placeholders
// to keep metric cardinality bounded.
func normalizePartnerRoute(path string) string {
	normalized := path
	for _, p := range routePatterns {
		// Adjacent IDs share a slash, so run each pattern until it stops matching
		for {
			next := p.regex.ReplaceAllString(normalized, p.replace)
			if next == normalized {
				break
			}
			normalized = next
		}
	}
	if normalized == "" {
		return "/"
	}
	return normalized
}
