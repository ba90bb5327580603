package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicos/clinicos/internal/domain/patient"
)

// ReminderTemplate is the WhatsApp text sent by the reminder operation.
const ReminderTemplate = "Hello {name}, this is a reminder of your appointment on {date} at {time}. Reply CONFIRM to confirm."

// MessageSender delivers a templated message to a phone number. The whatsapp
// gateway client implements it.
type MessageSender interface {
	Send(ctx context.Context, phone, template string, data map[string]string) error
}

// PatientDirectory resolves appointment patients for reminder delivery.
type PatientDirectory interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	sender   MessageSender
}

func NewService(repo Repository, patients PatientDirectory, sender MessageSender) *Service {
	return &Service{repo: repo, patients: patients, sender: sender}
}

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, a *Appointment) error {
	if a.PatientID == uuid.Nil || a.ProfessionalID == uuid.Nil {
		return fmt.Errorf("patient_id and professional_id are required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatus(a.Status) {
		return fmt.Errorf("invalid appointment status %q", a.Status)
	}
	if a.DurationMins <= 0 {
		a.DurationMins = 30
	}
	a.OrganizationID = orgID
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, orgID uuid.UUID, a *Appointment) error {
	if !validStatus(a.Status) {
		return fmt.Errorf("invalid appointment status %q", a.Status)
	}
	return s.repo.Update(ctx, orgID, a)
}

func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.Delete(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, orgID, filter, limit, offset)
}

// SendReminder sends the WhatsApp reminder for an appointment to its
// patient. The send is not retried; failures surface to the caller.
func (s *Service) SendReminder(ctx context.Context, orgID, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}

	p, err := s.patients.Get(ctx, orgID, a.PatientID)
	if err != nil {
		return fmt.Errorf("reminder patient lookup: %w", err)
	}
	if p.Phone == nil || *p.Phone == "" {
		return fmt.Errorf("patient %s has no phone number", p.ID)
	}

	return s.sender.Send(ctx, *p.Phone, ReminderTemplate, map[string]string{
		"name": p.Name,
		"date": a.ScheduledAt.Format("2006-01-02"),
		"time": a.ScheduledAt.Format("15:04"),
	})
}
