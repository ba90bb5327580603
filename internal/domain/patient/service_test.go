package patient

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeRepo struct {
	patients map[uuid.UUID]*Patient
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (r *fakeRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	copied := *p
	r.patients[p.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok || p.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Update(_ context.Context, orgID uuid.UUID, p *Patient) error {
	existing, ok := r.patients[p.ID]
	if !ok || existing.OrganizationID != orgID {
		return ErrNotFound
	}
	copied := *p
	copied.OrganizationID = existing.OrganizationID
	r.patients[p.ID] = &copied
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	existing, ok := r.patients[id]
	if !ok || existing.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *fakeRepo) List(_ context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range r.patients {
		if p.OrganizationID != orgID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func TestCreate_SetsOrganization(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	p := &Patient{Name: "Maria Souza"}
	if err := svc.Create(context.Background(), orgID, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.OrganizationID != orgID {
		t.Errorf("expected organization %s stamped, got %s", orgID, p.OrganizationID)
	}
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())
	if err := svc.Create(context.Background(), uuid.New(), &Patient{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGet_CrossTenantIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	orgA := uuid.New()
	orgB := uuid.New()

	p := &Patient{Name: "Maria Souza"}
	if err := svc.Create(context.Background(), orgA, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The other tenant sees the same error as a missing id.
	if _, err := svc.Get(context.Background(), orgB, p.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-tenant read, got %v", err)
	}
	if _, err := svc.Get(context.Background(), orgA, p.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

func TestUpdateAndDelete_CrossTenantIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	orgA := uuid.New()
	orgB := uuid.New()

	p := &Patient{Name: "Maria Souza"}
	if err := svc.Create(context.Background(), orgA, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Name = "Maria S. Souza"
	if err := svc.Update(context.Background(), orgB, p); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-tenant update, got %v", err)
	}
	if err := svc.Delete(context.Background(), orgB, p.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-tenant delete, got %v", err)
	}

	if err := svc.Update(context.Background(), orgA, p); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if err := svc.Delete(context.Background(), orgA, p.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

func TestList_FiltersBySearch(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	for _, name := range []string{"Maria Souza", "Jorge Lima", "Mariana Alves"} {
		if err := svc.Create(context.Background(), orgID, &Patient{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	patients, total, err := svc.List(context.Background(), orgID, "mari", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(patients) != 2 {
		t.Errorf("expected 2 matches for 'mari', got %d", total)
	}
}
