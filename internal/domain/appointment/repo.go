package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows appointment listings.
type ListFilter struct {
	ProfessionalID *uuid.UUID
	PatientID      *uuid.UUID
	Status         string
	From           *time.Time
	To             *time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, orgID uuid.UUID, a *Appointment) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error)
}
