package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/repositories"
)

type memoryLeadRepo struct {
	leads    []*entities.Lead
	createFn func(*entities.Lead) error
	lastOpts repositories.ListLeadsOptions
}

func (r *memoryLeadRepo) Create(ctx context.Context, lead *entities.Lead) error {
	if r.createFn != nil {
		if err := r.createFn(lead); err != nil {
			return err
		}
	}
	lead.CreatedAt = time.Now()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *memoryLeadRepo) GetByID(ctx context.Context, id string) (*entities.Lead, error) {
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, repositories.ErrLeadNotFound
}

func (r *memoryLeadRepo) List(ctx context.Context, opts repositories.ListLeadsOptions) ([]*entities.Lead, int64, error) {
	r.lastOpts = opts
	return r.leads, int64(len(r.leads)), nil
}

type recordingNotifier struct {
	err      error
	notified []*entities.Lead
}

func (n *recordingNotifier) NotifyLead(ctx context.Context, lead *entities.Lead) error {
	n.notified = append(n.notified, lead)
	return n.err
}

func (n *recordingNotifier) Name() string { return "recording" }

func validInput() entities.LeadInput {
	return entities.LeadInput{
		Name:        "  Maria Souza ",
		Email:       "Maria@Example.com",
		Phone:       "(62) 99876-5432",
		City:        "Anápolis",
		State:       "go",
		MonthlyBill: 480,
	}
}

func TestCreateLead_Success(t *testing.T) {
	repo := &memoryLeadRepo{}
	notifier := &recordingNotifier{}
	svc := NewLeadService(repo, notifier, discardLogger())

	lead, err := svc.CreateLead(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	if lead.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if lead.Name != "Maria Souza" || lead.Email != "maria@example.com" {
		t.Errorf("fields not normalized: %+v", lead)
	}
	if lead.Phone != "62998765432" {
		t.Errorf("phone = %q, want digits only", lead.Phone)
	}
	if lead.State != "GO" || lead.Source != entities.DefaultLeadSource {
		t.Errorf("state/source = %q/%q", lead.State, lead.Source)
	}
	if len(repo.leads) != 1 {
		t.Errorf("expected lead to be stored, repo has %d", len(repo.leads))
	}
	if len(notifier.notified) != 1 || notifier.notified[0].ID != lead.ID {
		t.Errorf("expected one notification for %s", lead.ID)
	}
}

func TestCreateLead_Validation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*entities.LeadInput)
		wantFields []string
	}{
		{"missing name", func(in *entities.LeadInput) { in.Name = "   " }, []string{"name"}},
		{"no contact", func(in *entities.LeadInput) { in.Email = ""; in.Phone = "" }, []string{"contact"}},
		{"bad email", func(in *entities.LeadInput) { in.Email = "maria at example" }, []string{"email"}},
		{"short phone", func(in *entities.LeadInput) { in.Phone = "9988-7766" }, []string{"phone"}},
		{"negative bill", func(in *entities.LeadInput) { in.MonthlyBill = -1 }, []string{"monthly_bill"}},
		{"bad state", func(in *entities.LeadInput) { in.State = "Goiás" }, []string{"state"}},
		{
			"several at once",
			func(in *entities.LeadInput) { in.Name = ""; in.Email = "nope"; in.MonthlyBill = -5 },
			[]string{"name", "email", "monthly_bill"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryLeadRepo{}
			notifier := &recordingNotifier{}
			svc := NewLeadService(repo, notifier, discardLogger())

			in := validInput()
			tt.mutate(&in)

			_, err := svc.CreateLead(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
			if len(repo.leads) != 0 || len(notifier.notified) != 0 {
				t.Error("invalid lead must not be stored or notified")
			}
		})
	}
}

func TestCreateLead_NotificationFailureIsNotFatal(t *testing.T) {
	repo := &memoryLeadRepo{}
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	svc := NewLeadService(repo, notifier, discardLogger())

	if _, err := svc.CreateLead(context.Background(), validInput()); err != nil {
		t.Fatalf("CreateLead should succeed when notification fails: %v", err)
	}
	if len(repo.leads) != 1 {
		t.Error("lead should still be stored")
	}
}

func TestCreateLead_RepositoryError(t *testing.T) {
	repo := &memoryLeadRepo{createFn: func(*entities.Lead) error { return errors.New("connection refused") }}
	notifier := &recordingNotifier{}
	svc := NewLeadService(repo, notifier, discardLogger())

	if _, err := svc.CreateLead(context.Background(), validInput()); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.notified) != 0 {
		t.Error("no notification should be sent when storing fails")
	}
}

func TestListLeads_ClampsLimit(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{10, 20, 10, 20},
		{1000, -3, 200, 0},
	}

	for _, tt := range tests {
		repo := &memoryLeadRepo{}
		svc := NewLeadService(repo, nil, discardLogger())
		if _, _, err := svc.ListLeads(context.Background(), tt.limit, tt.offset); err != nil {
			t.Fatalf("ListLeads: %v", err)
		}
		if repo.lastOpts.Limit != tt.wantLimit || repo.lastOpts.Offset != tt.wantOffset {
			t.Errorf("ListLeads(%d, %d) used %+v", tt.limit, tt.offset, repo.lastOpts)
		}
	}
}

func TestGetLead_NotFound(t *testing.T) {
	svc := NewLeadService(&memoryLeadRepo{}, nil, discardLogger())
	_, err := svc.GetLead(context.Background(), "404")
	if !IsLeadNotFound(err) {
		t.Errorf("expected lead not found, got %v", err)
	}
}
