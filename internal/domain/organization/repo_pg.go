package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const orgCols = `id, name, slug, subscription_status, created_at, updated_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	o := &Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.SubscriptionStatus, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) CreateWithOwner(ctx context.Context, org *Organization, ownerUserID uuid.UUID) error {
	org.ID = uuid.New()
	if org.SubscriptionStatus == "" {
		org.SubscriptionStatus = SubscriptionTrial
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create organization: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO organization (id, name, slug, subscription_status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		org.ID, org.Name, org.Slug, org.SubscriptionStatus,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO member (id, organization_id, user_id, role)
		VALUES ($1, $2, $3, 'owner')`,
		uuid.New(), org.ID, ownerUserID,
	); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, org *Organization) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organization SET name = $2, subscription_status = $3, updated_at = NOW()
		WHERE id = $1`,
		org.ID, org.Name, org.SubscriptionStatus,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Organization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.name, o.slug, o.subscription_status, o.created_at, o.updated_at
		FROM organization o
		JOIN member m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*Organization
	for rows.Next() {
		o := &Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.SubscriptionStatus, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}
