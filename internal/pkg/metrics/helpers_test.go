package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "none"},
		{"duplicate", errors.New(`pq: duplicate key value violates unique constraint "leads_pkey"`), "duplicate"},
		{"no rows", errors.New("sql: no rows in result set"), "not_found"},
		{"timeout", errors.New("context deadline exceeded"), "timeout"},
		{"connection", errors.New("dial tcp: connection refused"), "connection"},
		{"check constraint", errors.New("violates check constraint"), "constraint"},
		{"other", errors.New("boom"), "other"},
		{"pq unique", &pq.Error{Code: "23505"}, "duplicate"},
		{"pq check", &pq.Error{Code: "23514"}, "constraint"},
		{"pq syntax", &pq.Error{Code: "42601"}, "syntax"},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, "connection"},
		{"pq statement timeout", &pq.Error{Code: "57014"}, "timeout"},
		{"wrapped no rows", fmt.Errorf("failed to get lead: %w", sql.ErrNoRows), "not_found"},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDBError(tt.err); got != tt.expected {
				t.Errorf("ClassifyDBError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassifyPartnerError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   string
	}{
		{"bad request", 400, nil, "bad_request"},
		{"unauthorized", 401, nil, "unauthorized"},
		{"forbidden", 403, nil, "forbidden"},
		{"not found", 404, nil, "not_found"},
		{"rate limited", 429, nil, "rate_limited"},
		{"server error", 502, nil, "server_error"},
		{"client error", 418, nil, "client_error"},
		{"ok", 200, nil, "unknown"},
		{"timeout", 0, errors.New("i/o timeout"), "timeout"},
		{"connection", 0, errors.New("connection reset by peer"), "connection"},
		{"network", 0, errors.New("no such host"), "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPartnerError(tt.statusCode, tt.err); got != tt.expected {
				t.Errorf("ClassifyPartnerError(%d, %v) = %q, want %q", tt.statusCode, tt.err, got, tt.expected)
			}
		})
	}
}
