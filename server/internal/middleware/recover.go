package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brightsun/solarsite/internal/pkg/logger"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

// Recover turns a handler panic into a 500 carrying the panic message.
// The stack is never sent to the client.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	log = logger.WithComponent(log, "recover")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				msg := panicMessage(rec)
				metrics.HTTPPanics.Inc()
				log.Error("handler panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", msg))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func panicMessage(rec any) string {
	switch v := rec.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
