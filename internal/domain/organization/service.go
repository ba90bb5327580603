package organization

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the slug and creates the organization with the caller as
// owner.
func (s *Service) Create(ctx context.Context, name, slug string, ownerUserID uuid.UUID) (*Organization, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("invalid slug %q: lowercase letters, digits and hyphens only", slug)
	}

	org := &Organization{Name: name, Slug: slug}
	if err := s.repo.CreateWithOwner(ctx, org, ownerUserID); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, org *Organization) error {
	if org.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	return s.repo.Update(ctx, org)
}

// ListForUser returns the organizations the user belongs to. This is the one
// deliberately tenant-less read.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organization, error) {
	return s.repo.ListForUser(ctx, userID)
}
