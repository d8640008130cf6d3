package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/brightsun/solarsite/internal/pkg/logger"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// routeTag carries the matched route template from inside the router back out
// to LogRequest, which runs before routing
type routeTag struct{ template string }

type routeTagKey struct{}

// Wrap installs route tagging on router and returns it behind request logging
// and panic recovery, so unmatched paths and router-level errors are logged
// and counted as well.
func Wrap(router *mux.Router, log *slog.Logger) http.Handler {
	router.Use(tagRoute)
	return LogRequest(log)(Recover(log)(router))
}

// tagRoute only runs for matched routes
func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tag, ok := r.Context().Value(routeTagKey{}).(*routeTag); ok {
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					tag.template = tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// LogRequest writes one structured log record per request and records HTTP metrics
func LogRequest(log *slog.Logger) func(http.Handler) http.Handler {
	log = logger.WithComponent(log, "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip health checks to reduce noise; misrouted calls to /health are still logged
			if r.URL.Path == "/health" && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			tag := &routeTag{}
			r = r.WithContext(context.WithValue(r.Context(), routeTagKey{}, tag))

			start := time.Now()
			metrics.HTTPActiveRequests.Inc()
			defer metrics.HTTPActiveRequests.Dec()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // default if WriteHeader not called
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := routeLabel(r, tag)
			metrics.RecordHTTPRequest(r.Method, route, wrapped.statusCode, duration)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", wrapped.statusCode),
				slog.Int64("duration_ms", duration.Milliseconds()),
				slog.Int64("bytes", wrapped.written),
				slog.String("client_ip", clientIP(r)),
				slog.String("user_agent", r.UserAgent()),
				slog.String("proto", r.Proto),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
		})
	}
}

// routeLabel uses the matched route template so metric cardinality stays bounded
func routeLabel(r *http.Request, tag *routeTag) string {
	if tag != nil && tag.template != "" {
		return tag.template
	}
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// clientIP returns the real IP, considering X-Forwarded-For when behind a proxy
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
