package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/repositories"
	"github.com/brightsun/solarsite/internal/pkg/idgen"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

// LeadRepository implements the LeadRepository interface for PostgreSQL
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository creates a new PostgreSQL lead repository
func NewLeadRepository(db *sqlx.DB) repositories.LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, name, email, phone, city, state, monthly_bill, message, source, created_at`

// leadRow represents a lead as stored in the database; optional text columns are nullable
type leadRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Email       sql.NullString `db:"email"`
	Phone       sql.NullString `db:"phone"`
	City        sql.NullString `db:"city"`
	State       sql.NullString `db:"state"`
	MonthlyBill float64        `db:"monthly_bill"`
	Message     sql.NullString `db:"message"`
	Source      string         `db:"source"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *leadRow) toEntity() *entities.Lead {
	return &entities.Lead{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email.String,
		Phone:       r.Phone.String,
		City:        r.City.String,
		State:       r.State.String,
		MonthlyBill: r.MonthlyBill,
		Message:     r.Message.String,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
	}
}

func leadRowFromEntity(lead *entities.Lead) *leadRow {
	return &leadRow{
		ID:          lead.ID,
		Name:        lead.Name,
		Email:       nullString(lead.Email),
		Phone:       nullString(lead.Phone),
		City:        nullString(lead.City),
		State:       nullString(lead.State),
		MonthlyBill: lead.MonthlyBill,
		Message:     nullString(lead.Message),
		Source:      lead.Source,
		CreatedAt:   lead.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new lead
func (r *LeadRepository) Create(ctx context.Context, lead *entities.Lead) error {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordDBOperation("lead", "create", time.Since(start), 1, err)
	}()

	if lead.ID == "" {
		lead.ID = idgen.GenerateID()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO leads (` + leadColumns + `) VALUES (
		:id, :name, :email, :phone, :city, :state, :monthly_bill, :message, :source, :created_at
	)`

	_, err = r.db.NamedExecContext(ctx, query, leadRowFromEntity(lead))
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by its ID
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*entities.Lead, error) {
	start := time.Now()
	var err error
	var rowCount int64
	defer func() {
		metrics.RecordDBOperation("lead", "get_by_id", time.Since(start), rowCount, err)
	}()

	var row leadRow
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	err = r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	rowCount = 1
	return row.toEntity(), nil
}

// List returns leads newest first with the total matching count
func (r *LeadRepository) List(ctx context.Context, opts repositories.ListLeadsOptions) ([]*entities.Lead, int64, error) {
	start := time.Now()
	var err error
	var rowCount int64
	defer func() {
		metrics.RecordDBOperation("lead", "list", time.Since(start), rowCount, err)
	}()

	var conditions []string
	var args []interface{}
	paramIndex := 1

	if opts.Source != nil {
		conditions = append(conditions, fmt.Sprintf("source = $%d", paramIndex))
		args = append(args, *opts.Source)
		paramIndex++
	}

	if opts.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", paramIndex))
		args = append(args, *opts.CreatedAfter)
		paramIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err = r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM leads"+whereClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, opts.Limit, opts.Offset)

	var rows []leadRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}

	leads := make([]*entities.Lead, 0, len(rows))
	for i := range rows {
		leads = append(leads, rows[i].toEntity())
	}
	rowCount = int64(len(leads))
	return leads, total, nil
}
