package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

func TestCreatePatient(t *testing.T) {
	svc, repo := newTestService()
	ctx := auth.WithIdentity(context.Background(), "clin-1", []string{auth.RoleClinician})
	p := validPatient()
	p.Gender = " f "

	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.store[p.ID]
	if stored.Gender != "F" {
		t.Errorf("expected gender normalized to F, got %q", stored.Gender)
	}
	if stored.CreatedBy != "clin-1" {
		t.Errorf("expected created_by clin-1, got %q", stored.CreatedBy)
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Patient)
		field  string
	}{
		{"blank first name", func(p *Patient) { p.FirstName = " " }, "first_name"},
		{"blank last name", func(p *Patient) { p.LastName = "" }, "last_name"},
		{"bad gender", func(p *Patient) { p.Gender = "X" }, "gender"},
		{"bad email", func(p *Patient) { p.Email = "not-an-email" }, "email"},
		{"future birth", func(p *Patient) { p.DateOfBirth = time.Now().AddDate(1, 0, 0) }, "date_of_birth"},
		{"missing birth", func(p *Patient) { p.DateOfBirth = time.Time{} }, "date_of_birth"},
		{"blank address", func(p *Patient) { p.AddressLine1 = "" }, "address_line1"},
		{"blank country", func(p *Patient) { p.Country = "" }, "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			p := validPatient()
			tt.mutate(p)

			err := svc.CreatePatient(context.Background(), p)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %+v", tt.field, verr.Fields)
			}
		})
	}
}

func TestGetActivePatient_States(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	active, retired, voided := validPatient(), validPatient(), validPatient()
	for _, p := range []*Patient{active, retired, voided} {
		if err := svc.CreatePatient(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	_ = svc.RetirePatient(ctx, retired.ID)
	_ = svc.DeletePatient(ctx, voided.ID)

	if _, err := svc.GetActivePatient(ctx, active.ID); err != nil {
		t.Errorf("active: unexpected error %v", err)
	}
	if _, err := svc.GetActivePatient(ctx, retired.ID); !errors.Is(err, lifecycle.ErrNotActive) {
		t.Errorf("retired: expected ErrNotActive, got %v", err)
	}
	if _, err := svc.GetActivePatient(ctx, voided.ID); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("voided: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetActivePatient(ctx, 404); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndRetire_Twice(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	p := validPatient()
	_ = svc.CreatePatient(ctx, p)

	if err := svc.RetirePatient(ctx, p.ID); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := svc.RetirePatient(ctx, p.ID); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("second retire: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := *repo.store[p.ID].VoidedReason; got != lifecycle.VoidedReason {
		t.Errorf("unexpected voided reason %q", got)
	}
	if err := svc.DeletePatient(ctx, p.ID); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestListActivePatients(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = svc.CreatePatient(ctx, validPatient())
	}
	_ = svc.RetirePatient(ctx, 2)

	patients, total, err := svc.ListActivePatients(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(patients) != 2 || patients[0].ID != 1 || patients[1].ID != 3 {
		t.Errorf("unexpected list: total=%d %+v", total, patients)
	}
}

func TestPatientAgeAt(t *testing.T) {
	p := validPatient()
	if got := p.AgeAt(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)); got != 9 {
		t.Errorf("expected 9 the day before the birthday, got %d", got)
	}
	if got := p.AgeAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); got != 10 {
		t.Errorf("expected 10 on the birthday, got %d", got)
	}
}
