package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/repositories"
	"github.com/brightsun/solarsite/internal/pkg/idgen"
	"github.com/brightsun/solarsite/internal/pkg/metrics"
)

const (
	maxNameLength    = 120
	maxMessageLength = 2000
	minPhoneDigits   = 10
	maxPhoneDigits   = 13

	defaultListLimit = 50
	maxListLimit     = 200
)

// LeadNotifier announces new leads to the sales team
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead *entities.Lead) error
	Name() string
}

// LeadService handles business logic for sales leads
type LeadService struct {
	leadRepo repositories.LeadRepository
	notifier LeadNotifier
	log      *slog.Logger
}

// NewLeadService creates a new lead service
func NewLeadService(leadRepo repositories.LeadRepository, notifier LeadNotifier, logger *slog.Logger) *LeadService {
	return &LeadService{
		leadRepo: leadRepo,
		notifier: notifier,
		log:      logger.With(slog.String("component", "lead_service")),
	}
}

// CreateLead validates the submission, stores it and notifies sales.
// A failed notification is logged but does not fail the call, since the lead is already stored.
func (s *LeadService) CreateLead(ctx context.Context, in entities.LeadInput) (*entities.Lead, error) {
	lead, err := normalizeLead(in)
	if err != nil {
		metrics.LeadValidationFailures.Inc()
		return nil, err
	}

	lead.ID = idgen.GenerateID()
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	metrics.LeadsCreated.WithLabelValues(lead.Source).Inc()
	s.log.Info("lead created", slog.String("lead_id", lead.ID), slog.String("source", lead.Source))

	if s.notifier != nil {
		status := "success"
		if err := s.notifier.NotifyLead(ctx, lead); err != nil {
			status = "error"
			s.log.Error("failed to notify lead",
				slog.String("lead_id", lead.ID),
				slog.String("notifier", s.notifier.Name()),
				slog.String("error", err.Error()))
		}
		metrics.Notifications.WithLabelValues(s.notifier.Name(), status).Inc()
	}

	return lead, nil
}

// GetLead retrieves a lead by ID
func (s *LeadService) GetLead(ctx context.Context, id string) (*entities.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// ListLeads lists leads newest first. limit is clamped to 1..200, defaulting to 50.
func (s *LeadService) ListLeads(ctx context.Context, limit, offset int) ([]*entities.Lead, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	leads, total, err := s.leadRepo.List(ctx, repositories.ListLeadsOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// normalizeLead trims the input and checks every field, reporting all problems at once
func normalizeLead(in entities.LeadInput) (*entities.Lead, error) {
	lead := &entities.Lead{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		City:        strings.TrimSpace(in.City),
		State:       strings.ToUpper(strings.TrimSpace(in.State)),
		MonthlyBill: in.MonthlyBill,
		Message:     strings.TrimSpace(in.Message),
		Source:      strings.TrimSpace(in.Source),
	}
	if lead.Source == "" {
		lead.Source = entities.DefaultLeadSource
	}

	verr := &ValidationError{}

	switch {
	case lead.Name == "":
		verr.add("name", "is required")
	case utf8.RuneCountInString(lead.Name) > maxNameLength:
		verr.add("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	if lead.Email == "" && lead.Phone == "" {
		verr.add("contact", "email or phone is required")
	}

	if lead.Email != "" {
		addr, err := mail.ParseAddress(lead.Email)
		if err != nil || addr.Address != lead.Email {
			verr.add("email", "is not a valid address")
		}
	}

	if lead.Phone != "" {
		digits := phoneDigits(lead.Phone)
		if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
			verr.add("phone", fmt.Sprintf("must have between %d and %d digits", minPhoneDigits, maxPhoneDigits))
		} else {
			lead.Phone = digits
		}
	}

	if lead.MonthlyBill < 0 {
		verr.add("monthly_bill", "must not be negative")
	}

	if lead.State != "" && utf8.RuneCountInString(lead.State) != 2 {
		verr.add("state", "must be a two-letter code")
	}

	if utf8.RuneCountInString(lead.Message) > maxMessageLength {
		verr.add("message", fmt.Sprintf("must be at most %d characters", maxMessageLength))
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return lead, nil
}

// phoneDigits strips everything but ASCII digits
func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
