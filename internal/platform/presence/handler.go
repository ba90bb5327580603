package presence

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/tenant"
)

// Handler exposes the polling fallback: clients refresh their own heartbeat
// and read peers' statuses every 30 seconds in case a status_change event was
// missed.
type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/presence/:userId", h.GetStatus)
	g.PUT("/presence", h.UpdateStatus)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=online busy offline"`
}

type statusResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// GetStatus reports a user's presence and doubles as the caller's heartbeat.
func (h *Handler) GetStatus(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	h.tracker.Heartbeat(c.Request().Context(), tc.OrgID, tc.UserID)

	status := h.tracker.StatusOf(c.Request().Context(), tc.OrgID, userID)
	return c.JSON(http.StatusOK, statusResponse{
		UserID: userID.String(),
		Status: string(status),
	})
}

// UpdateStatus sets the caller's own presence.
func (h *Handler) UpdateStatus(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.tracker.UpdateStatus(c.Request().Context(), tc.OrgID, tc.UserID, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, statusResponse{
		UserID: tc.UserID.String(),
		Status: req.Status,
	})
}
