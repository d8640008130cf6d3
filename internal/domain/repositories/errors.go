package repositories

import "errors"

// Domain-specific repository errors
var (
	// ErrLeadNotFound is returned when a lead cannot be found
	ErrLeadNotFound = errors.New("lead not found")
)
