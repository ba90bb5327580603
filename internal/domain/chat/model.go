package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing conversation and one owned by another
// organization.
var ErrNotFound = errors.New("conversation not found")

// ErrNotParticipant is returned when a user acts on a conversation they are
// not part of.
var ErrNotParticipant = errors.New("user is not a conversation participant")

// ErrArchived is returned when a message is sent to an archived conversation.
var ErrArchived = errors.New("conversation is archived")

// Conversation types.
const (
	TypeIndividual = "individual"
	TypeGroup      = "group"
)

// Conversation statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Conversation maps to the conversation table. Participant and admin ids are
// stored as uuid arrays.
type Conversation struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	OrganizationID uuid.UUID   `db:"organization_id" json:"organization_id"`
	Type           string      `db:"type" json:"type"`
	Name           *string     `db:"name" json:"name,omitempty"`
	ParticipantIDs []uuid.UUID `db:"participant_ids" json:"participant_ids"`
	AdminIDs       []uuid.UUID `db:"admin_ids" json:"admin_ids,omitempty"`
	Status         string      `db:"status" json:"status"`
	LastMessageAt  *time.Time  `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user is part of the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasAdmin reports whether the user administers the conversation.
func (c *Conversation) HasAdmin(userID uuid.UUID) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message maps to the message table. Messages are immutable once written; the
// organization id is denormalized so message queries stay tenant scoped
// without a join.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
