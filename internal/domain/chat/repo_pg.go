package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const conversationCols = `id, organization_id, type, name, participant_ids, admin_ids, status, last_message_at, created_at, updated_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	conv := &Conversation{}
	err := row.Scan(&conv.ID, &conv.OrganizationID, &conv.Type, &conv.Name, &conv.ParticipantIDs, &conv.AdminIDs, &conv.Status, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *repoPG) Create(ctx context.Context, conv *Conversation) error {
	conv.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO conversation (id, organization_id, type, name, participant_ids, admin_ids, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		conv.ID, conv.OrganizationID, conv.Type, conv.Name, conv.ParticipantIDs, conv.AdminIDs, conv.Status,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx,
		`SELECT `+conversationCols+` FROM conversation WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	))
}

func (r *repoPG) ListForUser(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	const where = `WHERE organization_id = $1 AND participant_ids @> ARRAY[$2]::uuid[]`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversation `+where, orgID, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationCols+` FROM conversation `+where+`
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
		LIMIT $3 OFFSET $4`,
		orgID, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv := &Conversation{}
		if err := rows.Scan(&conv.ID, &conv.OrganizationID, &conv.Type, &conv.Name, &conv.ParticipantIDs, &conv.AdminIDs, &conv.Status, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, total, rows.Err()
}

func (r *repoPG) Archive(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversation SET status = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`,
		id, orgID, StatusArchived,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CreateMessage(ctx context.Context, m *Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin message tx: %w", err)
	}
	defer tx.Rollback(ctx)

	m.ID = uuid.New()
	err = tx.QueryRow(ctx, `
		INSERT INTO message (id, conversation_id, organization_id, sender_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.ConversationID, m.OrganizationID, m.SenderID, m.Content,
	).Scan(&m.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversation SET last_message_at = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`,
		m.ConversationID, m.OrganizationID, m.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *repoPG) ListMessages(ctx context.Context, orgID, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	const where = `WHERE conversation_id = $1 AND organization_id = $2`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM message `+where, conversationID, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, organization_id, sender_id, content, created_at
		FROM message `+where+`
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`,
		conversationID, orgID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.OrganizationID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}
