package organization

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every tenant-scoped table carries its
// id as a foreign key.
type Organization struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Slug               string    `db:"slug" json:"slug"`
	SubscriptionStatus string    `db:"subscription_status" json:"subscription_status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Subscription statuses.
const (
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)
