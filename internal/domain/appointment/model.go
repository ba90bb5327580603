package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing id and a row owned by another
// organization.
var ErrNotFound = errors.New("appointment not found")

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	ProfessionalID uuid.UUID `db:"professional_id" json:"professional_id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMins   int       `db:"duration_mins" json:"duration_mins"`
	Status         string    `db:"status" json:"status"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func validStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
