package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user or member does not exist.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error
}

type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*MemberWithUser, int, error)
	Delete(ctx context.Context, orgID, memberID uuid.UUID) error
}
