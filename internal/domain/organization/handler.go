package organization

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/domain/identity"
	"github.com/clinicos/clinicos/internal/platform/auth"
	"github.com/clinicos/clinicos/internal/platform/tenant"
	"github.com/clinicos/clinicos/pkg/pagination"
)

type Handler struct {
	svc      *Service
	identity *identity.Service
}

func NewHandler(svc *Service, identitySvc *identity.Service) *Handler {
	return &Handler{svc: svc, identity: identitySvc}
}

// RegisterRoutes mounts organization routes. The unscoped group carries only
// authentication; the scoped group additionally resolves a tenant.
func (h *Handler) RegisterRoutes(unscoped, scoped *echo.Group) {
	unscoped.POST("/organizations", h.Create)
	unscoped.GET("/organizations", h.ListMine)

	scoped.GET("/organization", h.GetCurrent)

	ownerOnly := scoped.Group("", tenant.RequireRole(identity.RoleOwner))
	ownerOnly.PUT("/organization", h.UpdateCurrent)
	ownerOnly.POST("/members", h.AddMember)
	ownerOnly.DELETE("/members/:id", h.RemoveMember)

	scoped.GET("/members", h.ListMembers)
}

type createRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

func (h *Handler) Create(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	org, err := h.svc.Create(c.Request().Context(), req.Name, req.Slug, ident.UserID)
	if errors.Is(err, ErrSlugTaken) {
		return echo.NewHTTPError(http.StatusConflict, "slug already taken")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, org)
}

func (h *Handler) ListMine(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orgs, err := h.svc.ListForUser(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list organizations failed")
	}
	if orgs == nil {
		orgs = []*Organization{}
	}
	return c.JSON(http.StatusOK, orgs)
}

func (h *Handler) GetCurrent(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	org, err := h.svc.Get(c.Request().Context(), tc.OrgID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "get organization failed")
	}
	return c.JSON(http.StatusOK, org)
}

type updateRequest struct {
	Name               string `json:"name" validate:"required"`
	SubscriptionStatus string `json:"subscription_status" validate:"omitempty,oneof=trial active past_due canceled"`
}

func (h *Handler) UpdateCurrent(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	org, err := h.svc.Get(c.Request().Context(), tc.OrgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}

	org.Name = req.Name
	if req.SubscriptionStatus != "" {
		org.SubscriptionStatus = req.SubscriptionStatus
	}
	if err := h.svc.Update(c.Request().Context(), org); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, org)
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=owner member"`
}

func (h *Handler) AddMember(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	m, err := h.identity.AddMember(c.Request().Context(), tc.OrgID, req.Email, req.Role)
	if errors.Is(err, identity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no user with that email")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMembers(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	pg := pagination.FromContext(c)
	members, total, err := h.identity.ListMembers(c.Request().Context(), tc.OrgID, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list members failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(members, total, pg))
}

func (h *Handler) RemoveMember(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.identity.RemoveMember(c.Request().Context(), tc.OrgID, memberID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "remove member failed")
	}
	return c.NoContent(http.StatusNoContent)
}
