package chat

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Conversation, error)
	ListForUser(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error)
	Archive(ctx context.Context, orgID, id uuid.UUID) error

	// CreateMessage persists the message and bumps the conversation's
	// last_message_at in the same transaction.
	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, orgID, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error)
}
