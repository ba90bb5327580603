package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Overview(ctx context.Context, orgID uuid.UUID) (*Overview, error) {
	o := &Overview{
		AppointmentsByStatus: make(map[string]int),
		GeneratedAt:          time.Now().UTC(),
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE organization_id = $1`, orgID,
	).Scan(&o.PatientCount); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM professional WHERE organization_id = $1`, orgID,
	).Scan(&o.ProfessionalCount); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM appointment WHERE organization_id = $1 GROUP BY status`, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		o.AppointmentsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM message WHERE organization_id = $1 AND created_at >= NOW() - INTERVAL '30 days'`, orgID,
	).Scan(&o.MessagesLast30Days); err != nil {
		return nil, err
	}

	return o, nil
}
