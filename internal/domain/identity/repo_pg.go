package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, external_id, email, name, avatar, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO app_user (id, external_id, email, name, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.ExternalID, u.Email, u.Name, u.Avatar,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepoPG) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE external_id = $1`, externalID))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, email))
}

func (r *userRepoPG) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE app_user SET external_id = $2, updated_at = NOW() WHERE id = $1`,
		id, externalID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type memberRepoPG struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) MemberRepository {
	return &memberRepoPG{pool: pool}
}

func (r *memberRepoPG) Create(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO member (id, organization_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		m.ID, m.OrganizationID, m.UserID, m.Role,
	).Scan(&m.CreatedAt)
}

func (r *memberRepoPG) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM member WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("member role lookup: %w", err)
	}
	return role, nil
}

func (r *memberRepoPG) ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*MemberWithUser, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM member WHERE organization_id = $1`, orgID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at, u.email, u.name
		FROM member m
		JOIN app_user u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*MemberWithUser
	for rows.Next() {
		m := &MemberWithUser{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt, &m.Email, &m.Name); err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

func (r *memberRepoPG) Delete(ctx context.Context, orgID, memberID uuid.UUID) error {
	// Double-filter: a guessed member id from another organization reads as
	// not found.
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM member WHERE id = $1 AND organization_id = $2`,
		memberID, orgID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
