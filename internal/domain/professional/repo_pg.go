package professional

import (
	"context"
	"errors"

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

const professionalCols = `id, organization_id, user_id, name, email, phone, specialty, chat_status, created_at, updated_at`

func scanProfessional(row pgx.Row) (*Professional, error) {
	p := &Professional{}
	err := row.Scan(&p.ID, &p.OrganizationID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.Specialty, &p.ChatStatus, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	if p.ChatStatus == "" {
		p.ChatStatus = "offline"
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO professional (id, organization_id, user_id, name, email, phone, specialty, chat_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.UserID, p.Name, p.Email, p.Phone, p.Specialty, p.ChatStatus,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	))
}

func (r *repoPG) GetByUserID(ctx context.Context, orgID, userID uuid.UUID) (*Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID,
	))
}

func (r *repoPG) Update(ctx context.Context, orgID uuid.UUID, p *Professional) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professional SET user_id = $3, name = $4, email = $5, phone = $6, specialty = $7, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`,
		p.ID, orgID, p.UserID, p.Name, p.Email, p.Phone, p.Specialty,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM professional WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Professional, int, error) {
	where := `WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		where += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM professional `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + professionalCols + ` FROM professional ` + where + ` ORDER BY created_at DESC`
	if search != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var professionals []*Professional
	for rows.Next() {
		p := &Professional{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.Specialty, &p.ChatStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		professionals = append(professionals, p)
	}
	return professionals, total, rows.Err()
}

func (r *repoPG) SetChatStatusByUser(ctx context.Context, orgID, userID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE professional SET chat_status = $3, updated_at = NOW()
		WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID, status,
	)
	return err
}
