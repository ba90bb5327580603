package patient

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

const patientCols = `id, organization_id, name, email, phone, birth_date, gender, notes, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Gender, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient (id, organization_id, name, email, phone, birth_date, gender, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.Name, p.Email, p.Phone, p.BirthDate, p.Gender, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	))
}

func (r *repoPG) Update(ctx context.Context, orgID uuid.UUID, p *Patient) error {
	// Double-filter on id and tenant: a guessed id from another
	// organization reads as not found and mutates nothing.
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET name = $3, email = $4, phone = $5, birth_date = $6, gender = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`,
		p.ID, orgID, p.Name, p.Email, p.Phone, p.BirthDate, p.Gender, p.Notes,
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
		`DELETE FROM patient WHERE id = $1 AND organization_id = $2`,
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

func (r *repoPG) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		where += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patient ` + where + ` ORDER BY created_at DESC`
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

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Gender, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
