package reports

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/tenant"
	"github.com/clinicos/clinicos/pkg/fieldmap"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/reports/overview", h.Overview)
}

// Overview returns aggregate counts for the caller's organization. Keys are
// snake_case by default; ?keys=camel converts the top-level keys for clients
// that expect camelCase.
func (h *Handler) Overview(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	o, err := h.svc.Overview(c.Request().Context(), tc.OrgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "report overview failed")
	}

	payload := map[string]interface{}{
		"patient_count":          o.PatientCount,
		"professional_count":     o.ProfessionalCount,
		"appointments_by_status": o.AppointmentsByStatus,
		"messages_last_30_days":  o.MessagesLast30Days,
		"generated_at":           o.GeneratedAt,
	}
	if c.QueryParam("keys") == "camel" {
		payload = fieldmap.ToCamel(payload)
	}
	return c.JSON(http.StatusOK, payload)
}
