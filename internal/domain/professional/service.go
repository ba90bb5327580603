package professional

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

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p *Professional) error {
	if p.Name == "" {
		return fmt.Errorf("professional name is required")
	}
	p.OrganizationID = orgID
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*Professional, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *Service) GetByUser(ctx context.Context, orgID, userID uuid.UUID) (*Professional, error) {
	return s.repo.GetByUserID(ctx, orgID, userID)
}

func (s *Service) Update(ctx context.Context, orgID uuid.UUID, p *Professional) error {
	if p.Name == "" {
		return fmt.Errorf("professional name is required")
	}
	return s.repo.Update(ctx, orgID, p)
}

func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.Delete(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Professional, int, error) {
	return s.repo.List(ctx, orgID, search, limit, offset)
}

// SetChatStatusByUser implements presence.ChatStatusWriter.
func (s *Service) SetChatStatusByUser(ctx context.Context, orgID, userID uuid.UUID, status string) error {
	return s.repo.SetChatStatusByUser(ctx, orgID, userID, status)
}
