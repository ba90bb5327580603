package chat

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
	g.GET("/conversations", h.ListConversations)
	g.POST("/conversations", h.CreateConversation)
	g.POST("/conversations/:id/archive", h.Archive)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
}

type createConversationRequest struct {
	Type           string      `json:"type" validate:"required,oneof=individual group"`
	Name           *string     `json:"name"`
	ParticipantIDs []uuid.UUID `json:"participant_ids" validate:"required,min=1"`
}

func (h *Handler) CreateConversation(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv := &Conversation{
		Type:           req.Type,
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
	}
	if err := h.svc.CreateConversation(c.Request().Context(), tc.OrgID, tc.UserID, conv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, conv)
}

func (h *Handler) ListConversations(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	pg := pagination.FromContext(c)
	conversations, total, err := h.svc.ListConversations(c.Request().Context(), tc.OrgID, tc.UserID, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list conversations failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(conversations, total, pg))
}

func (h *Handler) Archive(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.Archive(c.Request().Context(), tc.OrgID, tc.UserID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, "not a conversation participant")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "archive conversation failed")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.SendMessage(c.Request().Context(), tc.OrgID, tc.UserID, id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, "not a conversation participant")
		case errors.Is(err, ErrArchived):
			return echo.NewHTTPError(http.StatusConflict, "conversation is archived")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMessages(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	pg := pagination.FromContext(c)
	messages, total, err := h.svc.ListMessages(c.Request().Context(), tc.OrgID, tc.UserID, id, pg.Limit, pg.Offset())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, "not a conversation participant")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "list messages failed")
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(messages, total, pg))
}
