package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicos/clinicos/internal/platform/auth"
)

// Service resolves external identities to local users and answers membership
// questions. It implements auth.Provisioner and tenant.MembershipResolver.
type Service struct {
	users   UserRepository
	members MemberRepository
}

func NewService(users UserRepository, members MemberRepository) *Service {
	return &Service{users: users, members: members}
}

// Provision resolves a verified claim to a local user, creating one on first
// contact. The returned Identity reports whether this call created the user,
// so provisioning is never an invisible side effect of authentication.
func (s *Service) Provision(ctx context.Context, claim auth.Claim) (auth.Identity, error) {
	if claim.Subject == "" || claim.Email == "" {
		return auth.Identity{}, fmt.Errorf("claim missing subject or email")
	}

	u, err := s.users.GetByExternalID(ctx, claim.Subject)
	if err == nil {
		return auth.Identity{UserID: u.ID, Email: u.Email, Name: u.Name}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return auth.Identity{}, fmt.Errorf("lookup user by subject: %w", err)
	}

	// A user created before this provider subject existed is linked by
	// email instead of duplicated.
	u, err = s.users.GetByEmail(ctx, claim.Email)
	if err == nil {
		if err := s.users.SetExternalID(ctx, u.ID, claim.Subject); err != nil {
			return auth.Identity{}, fmt.Errorf("link user to subject: %w", err)
		}
		return auth.Identity{UserID: u.ID, Email: u.Email, Name: u.Name}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return auth.Identity{}, fmt.Errorf("lookup user by email: %w", err)
	}

	u = &User{
		ExternalID: claim.Subject,
		Email:      claim.Email,
		Name:       claim.Name,
		Avatar:     sanitizeAvatar(claim.Avatar),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return auth.Identity{}, fmt.Errorf("provision user: %w", err)
	}

	return auth.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Provisioned: true}, nil
}

// sanitizeAvatar discards avatar payloads above the size threshold instead of
// persisting an oversized blob.
func sanitizeAvatar(avatar string) *string {
	if avatar == "" || len(avatar) > MaxAvatarLength {
		return nil
	}
	return &avatar
}

// RoleOf implements tenant.MembershipResolver.
func (s *Service) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	return s.members.RoleOf(ctx, orgID, userID)
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// AddMember binds an existing user (looked up by email) to an organization.
func (s *Service) AddMember(ctx context.Context, orgID uuid.UUID, email, role string) (*Member, error) {
	if role != RoleOwner && role != RoleMember {
		return nil, fmt.Errorf("invalid member role %q", role)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("member user lookup: %w", err)
	}

	existing, err := s.members.RoleOf(ctx, orgID, u.ID)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, fmt.Errorf("user %s is already a member", email)
	}

	m := &Member{OrganizationID: orgID, UserID: u.ID, Role: role}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return m, nil
}

// ListMembers lists an organization's members with their user details.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*MemberWithUser, int, error) {
	return s.members.ListByOrg(ctx, orgID, limit, offset)
}

// RemoveMember removes a member row scoped to the organization.
func (s *Service) RemoveMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	return s.members.Delete(ctx, orgID, memberID)
}
