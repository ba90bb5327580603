package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides tenant-filtered patient persistence. Every operation
// takes the organization id explicitly; there is no way to touch a row
// without naming its tenant.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, orgID uuid.UUID, p *Patient) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error)
}
