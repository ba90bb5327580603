package professional

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Professional, error)
	GetByUserID(ctx context.Context, orgID, userID uuid.UUID) (*Professional, error)
	Update(ctx context.Context, orgID uuid.UUID, p *Professional) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Professional, int, error)
	// SetChatStatusByUser updates chat_status for the professional linked
	// to the user. A user without a professional record is a no-op.
	SetChatStatusByUser(ctx context.Context, orgID, userID uuid.UUID, status string) error
}
