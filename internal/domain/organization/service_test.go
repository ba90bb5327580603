package organization

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeRepo struct {
	orgs   map[uuid.UUID]*Organization
	owners map[uuid.UUID]uuid.UUID // org -> owner user
	bySlug map[string]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orgs:   make(map[uuid.UUID]*Organization),
		owners: make(map[uuid.UUID]uuid.UUID),
		bySlug: make(map[string]uuid.UUID),
	}
}

func (r *fakeRepo) CreateWithOwner(_ context.Context, org *Organization, ownerUserID uuid.UUID) error {
	if _, taken := r.bySlug[org.Slug]; taken {
		return ErrSlugTaken
	}
	org.ID = uuid.New()
	org.SubscriptionStatus = SubscriptionTrial
	copied := *org
	r.orgs[org.ID] = &copied
	r.owners[org.ID] = ownerUserID
	r.bySlug[org.Slug] = org.ID
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return org, nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (*Organization, error) {
	id, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return r.orgs[id], nil
}

func (r *fakeRepo) Update(_ context.Context, org *Organization) error {
	if _, ok := r.orgs[org.ID]; !ok {
		return ErrNotFound
	}
	copied := *org
	r.orgs[org.ID] = &copied
	return nil
}

func (r *fakeRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*Organization, error) {
	var out []*Organization
	for id, owner := range r.owners {
		if owner == userID {
			out = append(out, r.orgs[id])
		}
	}
	return out, nil
}

func TestCreate_NormalizesSlug(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	org, err := svc.Create(context.Background(), "Bright Smile Clinic", "  Bright-Smile  ", uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if org.Slug != "bright-smile" {
		t.Errorf("expected normalized slug bright-smile, got %s", org.Slug)
	}
	if org.SubscriptionStatus != SubscriptionTrial {
		t.Errorf("expected new organizations to start on trial, got %s", org.SubscriptionStatus)
	}
}

func TestCreate_RejectsInvalidSlugs(t *testing.T) {
	svc := NewService(newFakeRepo())

	cases := []string{"", "has space", "under_score", "-leading", "trailing-", "UPPER!"}
	for _, slug := range cases {
		if _, err := svc.Create(context.Background(), "Clinic", slug, uuid.New()); err == nil {
			t.Errorf("expected error for slug %q", slug)
		}
	}
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())
	if _, err := svc.Create(context.Background(), "", "clinic", uuid.New()); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestCreate_SlugTaken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), "First", "clinic", uuid.New()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "Second", "clinic", uuid.New()); err != ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestListForUser_ScopedToMemberships(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	owner := uuid.New()

	if _, err := svc.Create(context.Background(), "Mine", "mine", owner); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "Theirs", "theirs", uuid.New()); err != nil {
		t.Fatalf("create: %v", err)
	}

	orgs, err := svc.ListForUser(context.Background(), owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Slug != "mine" {
		t.Errorf("expected only the caller's organization, got %d", len(orgs))
	}
}
