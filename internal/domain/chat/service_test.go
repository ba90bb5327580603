package chat

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicos/clinicos/internal/platform/relay"
)

type fakeRepo struct {
	conversations map[uuid.UUID]*Conversation
	messages      []*Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{conversations: make(map[uuid.UUID]*Conversation)}
}

func (r *fakeRepo) Create(_ context.Context, conv *Conversation) error {
	conv.ID = uuid.New()
	conv.CreatedAt = time.Now().UTC()
	conv.UpdatedAt = conv.CreatedAt
	copied := *conv
	r.conversations[conv.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok || conv.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return conv, nil
}

func (r *fakeRepo) ListForUser(_ context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	var out []*Conversation
	for _, conv := range r.conversations {
		if conv.OrganizationID == orgID && conv.HasParticipant(userID) {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessageAt, out[j].LastMessageAt
		if li == nil {
			return false
		}
		if lj == nil {
			return true
		}
		return li.After(*lj)
	})
	return out, len(out), nil
}

func (r *fakeRepo) Archive(_ context.Context, orgID, id uuid.UUID) error {
	conv, ok := r.conversations[id]
	if !ok || conv.OrganizationID != orgID {
		return ErrNotFound
	}
	conv.Status = StatusArchived
	return nil
}

func (r *fakeRepo) CreateMessage(_ context.Context, m *Message) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	copied := *m
	r.messages = append(r.messages, &copied)
	if conv, ok := r.conversations[m.ConversationID]; ok {
		at := m.CreatedAt
		conv.LastMessageAt = &at
	}
	return nil
}

func (r *fakeRepo) ListMessages(_ context.Context, orgID, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var out []*Message
	for _, m := range r.messages {
		if m.OrganizationID == orgID && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

type fakeNotifier struct {
	sent map[uuid.UUID][]relay.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[uuid.UUID][]relay.Event)}
}

func (f *fakeNotifier) SendToUser(userID uuid.UUID, event relay.Event) {
	f.sent[userID] = append(f.sent[userID], event)
}

func TestCreateConversation_Individual(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeNotifier())
	orgID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	conv := &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{alice, bob}}
	if err := svc.CreateConversation(context.Background(), orgID, alice, conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	if conv.Status != StatusActive {
		t.Errorf("expected status active, got %s", conv.Status)
	}
	if conv.OrganizationID != orgID {
		t.Errorf("expected organization stamped")
	}
	if len(conv.AdminIDs) != 0 {
		t.Errorf("individual conversations have no admins, got %v", conv.AdminIDs)
	}
}

func TestCreateConversation_IndividualRequiresTwoParticipants(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeNotifier())
	alice := uuid.New()

	conv := &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{alice}}
	if err := svc.CreateConversation(context.Background(), uuid.New(), alice, conv); err == nil {
		t.Error("expected error for single participant")
	}

	conv = &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{alice, uuid.New(), uuid.New()}}
	if err := svc.CreateConversation(context.Background(), uuid.New(), alice, conv); err == nil {
		t.Error("expected error for three participants")
	}
}

func TestCreateConversation_GroupMakesCreatorAdmin(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeNotifier())
	creator := uuid.New()
	name := "Front desk"

	conv := &Conversation{
		Type:           TypeGroup,
		Name:           &name,
		ParticipantIDs: []uuid.UUID{creator, uuid.New(), uuid.New()},
	}
	if err := svc.CreateConversation(context.Background(), uuid.New(), creator, conv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !conv.HasAdmin(creator) {
		t.Error("expected creator to be an admin")
	}
}

func TestCreateConversation_GroupRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeNotifier())
	creator := uuid.New()

	conv := &Conversation{Type: TypeGroup, ParticipantIDs: []uuid.UUID{creator, uuid.New()}}
	if err := svc.CreateConversation(context.Background(), uuid.New(), creator, conv); err == nil {
		t.Error("expected error for unnamed group")
	}
}

func TestCreateConversation_CreatorMustParticipate(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeNotifier())

	conv := &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()}}
	if err := svc.CreateConversation(context.Background(), uuid.New(), uuid.New(), conv); err == nil {
		t.Error("expected error when creator is not a participant")
	}
}

func TestSendMessage_FansOutToOtherParticipants(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := NewService(repo, notifier)
	orgID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	name := "Team"

	conv := &Conversation{Type: TypeGroup, Name: &name, ParticipantIDs: []uuid.UUID{alice, bob, carol}}
	if err := svc.CreateConversation(context.Background(), orgID, alice, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	m, err := svc.SendMessage(context.Background(), orgID, alice, conv.ID, "good morning")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if m.Content != "good morning" {
		t.Errorf("unexpected content %q", m.Content)
	}

	if len(notifier.sent[alice]) != 0 {
		t.Error("sender must not receive their own fanout")
	}
	for _, recipient := range []uuid.UUID{bob, carol} {
		events := notifier.sent[recipient]
		if len(events) != 1 {
			t.Fatalf("expected 1 event for %s, got %d", recipient, len(events))
		}
		if events[0].Type != relay.EventReceiveMessage {
			t.Errorf("expected receive_message event, got %s", events[0].Type)
		}
	}

	// The conversation's activity timestamp moved.
	stored, err := repo.GetByID(context.Background(), orgID, conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if stored.LastMessageAt == nil {
		t.Error("expected last_message_at set after a send")
	}
}

func TestSendMessage_Rules(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, newFakeNotifier())
	orgID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	conv := &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{alice, bob}}
	if err := svc.CreateConversation(context.Background(), orgID, alice, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if _, err := svc.SendMessage(context.Background(), orgID, alice, conv.ID, "   "); err == nil {
		t.Error("expected error for blank content")
	}
	if _, err := svc.SendMessage(context.Background(), orgID, uuid.New(), conv.ID, "hi"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), uuid.New(), alice, conv.ID, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for cross-tenant send, got %v", err)
	}

	if err := svc.Archive(context.Background(), orgID, alice, conv.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), orgID, alice, conv.ID, "hi"); !errors.Is(err, ErrArchived) {
		t.Errorf("expected ErrArchived, got %v", err)
	}
}

func TestArchive_GroupRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, newFakeNotifier())
	orgID := uuid.New()
	admin := uuid.New()
	member := uuid.New()
	name := "Team"

	conv := &Conversation{Type: TypeGroup, Name: &name, ParticipantIDs: []uuid.UUID{admin, member}}
	if err := svc.CreateConversation(context.Background(), orgID, admin, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if err := svc.Archive(context.Background(), orgID, member, conv.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected non-admin archive rejected, got %v", err)
	}
	if err := svc.Archive(context.Background(), orgID, admin, conv.ID); err != nil {
		t.Fatalf("admin archive failed: %v", err)
	}
}

func TestListMessages_AscendingAndGuarded(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, newFakeNotifier())
	orgID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	conv := &Conversation{Type: TypeIndividual, ParticipantIDs: []uuid.UUID{alice, bob}}
	if err := svc.CreateConversation(context.Background(), orgID, alice, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	for _, content := range []string{"first", "second", "third"} {
		if _, err := svc.SendMessage(context.Background(), orgID, alice, conv.ID, content); err != nil {
			t.Fatalf("send %q: %v", content, err)
		}
	}

	messages, total, err := svc.ListMessages(context.Background(), orgID, bob, conv.ID, 20, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 messages, got %d", total)
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Content != want {
			t.Errorf("position %d: expected %q, got %q", i, want, messages[i].Content)
		}
	}

	if _, _, err := svc.ListMessages(context.Background(), orgID, uuid.New(), conv.ID, 20, 0); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant for outsider, got %v", err)
	}
}
