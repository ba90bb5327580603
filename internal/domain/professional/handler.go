package professional

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/tenant"
	"github.com/clinicos/clinicos/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/professionals", h.List)
	g.GET("/professionals/:id", h.Get)
	g.POST("/professionals", h.Create)
	g.PUT("/professionals/:id", h.Update)
	g.DELETE("/professionals/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var p Professional
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), tc.OrgID, &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
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

	p, err := h.svc.Get(c.Request().Context(), tc.OrgID, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "professional not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "get professional failed")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	pg := pagination.FromContext(c)
	professionals, total, err := h.svc.List(c.Request().Context(), tc.OrgID, c.QueryParam("search"), pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list professionals failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(professionals, total, pg))
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

	var p Professional
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id

	if err := h.svc.Update(c.Request().Context(), tc.OrgID, &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "professional not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
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
			return echo.NewHTTPError(http.StatusNotFound, "professional not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "delete professional failed")
	}
	return c.NoContent(http.StatusNoContent)
}
