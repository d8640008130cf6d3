package repositories

import (
	"context"
	"time"

	"github.com/brightsun/solarsite/internal/domain/entities"
)

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	// Create stores a new lead. ID and CreatedAt are assigned when empty.
	Create(ctx context.Context, lead *entities.Lead) error

	// GetByID retrieves a lead, returning ErrLeadNotFound when absent
	GetByID(ctx context.Context, id string) (*entities.Lead, error)

	// List returns leads newest first along with the total count
	List(ctx context.Context, opts ListLeadsOptions) ([]*entities.Lead, int64, error)
}

// ListLeadsOptions provides filtering and pagination options for listing leads
type ListLeadsOptions struct {
	Limit  int
	Offset int

	Source       *string
	CreatedAfter *time.Time
}
