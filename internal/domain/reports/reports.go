// Package reports produces tenant-scoped aggregate counts for dashboards.
package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Overview summarizes one organization's activity.
type Overview struct {
	PatientCount         int            `json:"patient_count"`
	ProfessionalCount    int            `json:"professional_count"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	MessagesLast30Days   int            `json:"messages_last_30_days"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

type Repository interface {
	Overview(ctx context.Context, orgID uuid.UUID) (*Overview, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Overview(ctx context.Context, orgID uuid.UUID) (*Overview, error) {
	return s.repo.Overview(ctx, orgID)
}
