package professional

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing id and a row owned by another
// organization.
var ErrNotFound = errors.New("professional not found")

// Professional maps to the professional table. UserID links the professional
// to a login user so chat presence can be persisted on their record.
type Professional struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	UserID         *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Specialty      *string    `db:"specialty" json:"specialty,omitempty"`
	ChatStatus     string     `db:"chat_status" json:"chat_status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
