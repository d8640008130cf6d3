package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database/Repository Metrics
var (
	// DBOperations tracks total database operations
	DBOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_db_operations_total",
			Help: "Total database operations by repository, operation, and status",
		},
		[]string{"repo", "operation", "status"},
	)

	// DBDuration tracks database operation latency
	DBDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "solarsite_db_operation_duration_ms",
			Help:                            "Database operation duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"repo", "operation"},
	)

	// DBRowsAffected tracks rows affected or returned by repository calls
	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "solarsite_db_rows_affected",
			Help:                            "Number of rows affected or returned by database operations",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"repo", "operation"},
	)

	// DBErrors tracks database errors by type
	DBErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_db_errors_total",
			Help: "Total database errors by repository, operation, and error type",
		},
		[]string{"repo", "operation", "error_type"},
	)
)

// HTTP Handler Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "solarsite_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// HTTPActiveRequests tracks in-flight HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solarsite_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// HTTPPanics tracks handler panics converted into 500 responses
	HTTPPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solarsite_http_panics_total",
			Help: "Total handler panics recovered by the HTTP middleware",
		},
	)
)

// Partner (Fortlev) API Metrics
var (
	// PartnerAPICalls tracks outbound partner API calls
	PartnerAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_partner_api_calls_total",
			Help: "Total partner API calls by method, normalized route, and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// PartnerAPIDuration tracks partner API latency
	PartnerAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "solarsite_partner_api_duration_ms",
			Help:                            "Partner API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// PartnerAPIErrors tracks partner API failures
	PartnerAPIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_partner_api_errors_total",
			Help: "Total partner API errors by route and error type",
		},
		[]string{"route", "error_type"},
	)

	// PartnerLogins tracks login exchanges against the partner login endpoint
	PartnerLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_partner_logins_total",
			Help: "Total partner login exchanges by outcome",
		},
		[]string{"outcome"},
	)

	// PartnerReauthRetries tracks requests retried after a 401
	PartnerReauthRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solarsite_partner_reauth_retries_total",
			Help: "Total partner requests retried after an authorization failure",
		},
	)

	// PartnerTokenExpiry exposes the cached credential expiry as a unix timestamp
	PartnerTokenExpiry = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solarsite_partner_token_expiry_timestamp",
			Help: "Expiry of the cached partner credential (unix seconds, 0 when absent)",
		},
	)
)

// Business Metrics
var (
	// LeadsCreated tracks created leads by source
	LeadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_leads_created_total",
			Help: "Total leads created by source",
		},
		[]string{"source"},
	)

	// LeadValidationFailures tracks rejected lead submissions
	LeadValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solarsite_lead_validation_failures_total",
			Help: "Total lead submissions rejected by validation",
		},
	)

	// Notifications tracks lead notification outcomes
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarsite_notifications_total",
			Help: "Total lead notifications by notifier and status",
		},
		[]string{"notifier", "status"},
	)

	// QuoteKitsReturned tracks the number of kits returned per quote
	QuoteKitsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:                            "solarsite_quote_kits_returned",
			Help:                            "Number of PV kits returned by quote requests",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
	)
)
