package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("patient name is required")
	}
	p.OrganizationID = orgID
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, orgID uuid.UUID, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("patient name is required")
	}
	return s.repo.Update(ctx, orgID, p)
}

func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.Delete(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, orgID, search, limit, offset)
}
