package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicos/clinicos/internal/platform/relay"
)

// Notifier pushes events to connected clients. The relay hub implements it;
// delivery is best-effort and never fails a send.
type Notifier interface {
	SendToUser(userID uuid.UUID, event relay.Event)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// CreateConversation validates and persists a conversation. The creator must
// be among the participants; for group conversations the creator becomes an
// admin.
func (s *Service) CreateConversation(ctx context.Context, orgID, creatorID uuid.UUID, conv *Conversation) error {
	conv.ParticipantIDs = dedupe(conv.ParticipantIDs)

	switch conv.Type {
	case TypeIndividual:
		if len(conv.ParticipantIDs) != 2 {
			return fmt.Errorf("individual conversations require exactly two participants")
		}
		conv.Name = nil
		conv.AdminIDs = nil
	case TypeGroup:
		if conv.Name == nil || strings.TrimSpace(*conv.Name) == "" {
			return fmt.Errorf("group conversations require a name")
		}
		if len(conv.ParticipantIDs) < 2 {
			return fmt.Errorf("group conversations require at least two participants")
		}
		conv.AdminIDs = []uuid.UUID{creatorID}
	default:
		return fmt.Errorf("invalid conversation type %q", conv.Type)
	}

	if !contains(conv.ParticipantIDs, creatorID) {
		return fmt.Errorf("creator must be a conversation participant")
	}

	conv.OrganizationID = orgID
	conv.Status = StatusActive
	conv.LastMessageAt = nil
	return s.repo.Create(ctx, conv)
}

// ListConversations returns the user's conversations ordered by most recent
// activity.
func (s *Service) ListConversations(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	return s.repo.ListForUser(ctx, orgID, userID, limit, offset)
}

// Archive marks a conversation archived. Any participant may archive an
// individual conversation; groups require an admin.
func (s *Service) Archive(ctx context.Context, orgID, userID, id uuid.UUID) error {
	conv, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return ErrNotParticipant
	}
	if conv.Type == TypeGroup && !conv.HasAdmin(userID) {
		return ErrNotParticipant
	}
	return s.repo.Archive(ctx, orgID, id)
}

// SendMessage persists a message and fans it out to the other participants'
// rooms. Fanout is at-most-once; offline participants catch up by listing
// messages.
func (s *Service) SendMessage(ctx context.Context, orgID, senderID, conversationID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	conv, err := s.repo.GetByID(ctx, orgID, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}
	if conv.Status == StatusArchived {
		return nil, ErrArchived
	}

	m := &Message{
		ConversationID: conversationID,
		OrganizationID: orgID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	event := relay.Event{
		Type:      relay.EventReceiveMessage,
		Timestamp: time.Now().UTC(),
		Data:      m,
	}
	for _, participantID := range conv.ParticipantIDs {
		if participantID == senderID {
			continue
		}
		s.notifier.SendToUser(participantID, event)
	}
	return m, nil
}

// ListMessages returns a conversation's messages oldest first. The caller
// must be a participant.
func (s *Service) ListMessages(ctx context.Context, orgID, userID, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	conv, err := s.repo.GetByID(ctx, orgID, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conv.HasParticipant(userID) {
		return nil, 0, ErrNotParticipant
	}
	return s.repo.ListMessages(ctx, orgID, conversationID, limit, offset)
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
