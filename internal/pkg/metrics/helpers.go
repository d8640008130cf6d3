package metrics

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// RecordDBOperation records database operation metrics consistently
// repo: repository name (e.g., "lead")
// operation: operation name (e.g., "create", "get_by_id", "list")
// rowsAffected: number of rows affected/returned (-1 if not applicable)
func RecordDBOperation(repo, operation string, duration time.Duration, rowsAffected int64, err error) {
	DBDuration.WithLabelValues(repo, operation).Observe(float64(duration.Milliseconds()))

	if rowsAffected >= 0 {
		DBRowsAffected.WithLabelValues(repo, operation).Observe(float64(rowsAffected))
	}

	status := "success"
	if err != nil {
		status = "error"
		DBErrors.WithLabelValues(repo, operation, ClassifyDBError(err)).Inc()
	}
	DBOperations.WithLabelValues(repo, operation, status).Inc()
}

// RecordHTTPRequest records a served HTTP request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))
}

// ClassifyDBError buckets a database error for metric labels. Postgres errors
// are classified by SQLSTATE; anything else by its message.
func ClassifyDBError(err error) string {
	if err == nil {
		return "none"
	}

	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr):
		return classifySQLState(pqErr.Code)
	case errors.Is(err, sql.ErrNoRows):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"):
		return "duplicate"
	case strings.Contains(msg, "no rows"):
		return "not_found"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connect"):
		return "connection"
	case strings.Contains(msg, "constraint"):
		return "constraint"
	default:
		return "other"
	}
}

func classifySQLState(code pq.ErrorCode) string {
	switch {
	case code == "23505":
		return "duplicate"
	case code == "57014":
		return "timeout"
	case code == "42601":
		return "syntax"
	case code.Class() == "23":
		return "constraint"
	case code.Class() == "08", code.Class() == "57":
		return "connection"
	default:
		return "other"
	}
}

// ClassifyPartnerError categorizes partner API failures for metrics
func ClassifyPartnerError(statusCode int, err error) string {
	if err != nil {
		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			return "timeout"
		case strings.Contains(err.Error(), "timeout"):
			return "timeout"
		case strings.Contains(err.Error(), "connection"):
			return "connection"
		case strings.Contains(err.Error(), "tls"), strings.Contains(err.Error(), "TLS"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
