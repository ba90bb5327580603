package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/tenant"
	"github.com/clinicos/clinicos/internal/platform/whatsapp"
	"github.com/clinicos/clinicos/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.POST("/appointments", h.Create)
	g.PUT("/appointments/:id", h.Update)
	g.DELETE("/appointments/:id", h.Delete)
	g.POST("/appointments/:id/reminder", h.SendReminder)
}

func (h *Handler) Create(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), tc.OrgID, &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := h.svc.Get(c.Request().Context(), tc.OrgID, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "get appointment failed")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	filter := ListFilter{Status: c.QueryParam("status")}
	if v := c.QueryParam("professional_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid professional_id")
		}
		filter.ProfessionalID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = &t
	}

	pg := pagination.FromContext(c)
	appointments, total, err := h.svc.List(c.Request().Context(), tc.OrgID, filter, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list appointments failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appointments, total, pg))
}

func (h *Handler) Update(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id

	if err := h.svc.Update(c.Request().Context(), tc.OrgID, &a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.Delete(c.Request().Context(), tc.OrgID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "delete appointment failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SendReminder(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.SendReminder(c.Request().Context(), tc.OrgID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		case errors.Is(err, whatsapp.ErrUpstream):
			return echo.NewHTTPError(http.StatusBadGateway, "message gateway unavailable")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
}
