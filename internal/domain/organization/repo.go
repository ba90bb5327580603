package organization

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an organization does not exist.
	ErrNotFound = errors.New("organization not found")

	// ErrSlugTaken is returned when the requested slug is already in use.
	ErrSlugTaken = errors.New("organization slug already taken")
)

type Repository interface {
	// CreateWithOwner inserts the organization and the creator's owner
	// membership in one transaction, so a failure partway leaves no
	// orphaned organization.
	CreateWithOwner(ctx context.Context, org *Organization, ownerUserID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organization, error)
}
