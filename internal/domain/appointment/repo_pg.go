package appointment

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

const appointmentCols = `id, organization_id, patient_id, professional_id, scheduled_at, duration_mins, status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	err := row.Scan(&a.ID, &a.OrganizationID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt, &a.DurationMins, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO appointment (id, organization_id, patient_id, professional_id, scheduled_at, duration_mins, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.OrganizationID, a.PatientID, a.ProfessionalID, a.ScheduledAt, a.DurationMins, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1 AND organization_id = $2`,
		id, orgID,
	))
}

func (r *repoPG) Update(ctx context.Context, orgID uuid.UUID, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment SET patient_id = $3, professional_id = $4, scheduled_at = $5, duration_mins = $6, status = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`,
		a.ID, orgID, a.PatientID, a.ProfessionalID, a.ScheduledAt, a.DurationMins, a.Status, a.Notes,
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
		`DELETE FROM appointment WHERE id = $1 AND organization_id = $2`,
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

func (r *repoPG) List(ctx context.Context, orgID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE organization_id = $1`
	args := []interface{}{orgID}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }
	if filter.ProfessionalID != nil {
		where += ` AND professional_id = ` + next()
		args = append(args, *filter.ProfessionalID)
	}
	if filter.PatientID != nil {
		where += ` AND patient_id = ` + next()
		args = append(args, *filter.PatientID)
	}
	if filter.Status != "" {
		where += ` AND status = ` + next()
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		where += ` AND scheduled_at >= ` + next()
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where += ` AND scheduled_at < ` + next()
		args = append(args, *filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + appointmentCols + ` FROM appointment ` + where +
		` ORDER BY scheduled_at DESC LIMIT ` + next()
	args = append(args, limit)
	query += ` OFFSET ` + next()
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a := &Appointment{}
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt, &a.DurationMins, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		appointments = append(appointments, a)
	}
	return appointments, total, rows.Err()
}
