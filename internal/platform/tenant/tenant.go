// Package tenant resolves the organization an authenticated request operates
// on. The organization id travels in the x-organization-id header, is checked
// against the caller's memberships, and is carried as an explicit Context
// value that every store call takes as a parameter. There is no fallback to a
// caller's first membership: a scoped route without the header fails.
package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/auth"
)

// HeaderName is the request header carrying the organization id.
const HeaderName = "x-organization-id"

var (
	// ErrMissingTenant is returned when a tenant-scoped operation runs
	// without an organization context.
	ErrMissingTenant = errors.New("missing tenant context")

	// ErrNotMember is returned when the caller does not belong to the
	// organization named in the header.
	ErrNotMember = errors.New("caller is not a member of this organization")
)

// Context identifies the tenant and caller for one request.
type Context struct {
	OrgID  uuid.UUID
	UserID uuid.UUID
	Role   string
}

type ctxKey struct{}

// MembershipResolver reports the caller's role in an organization. An empty
// role means no membership.
type MembershipResolver interface {
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error)
}

// Middleware extracts and validates the organization header, verifies the
// authenticated caller's membership, and attaches a tenant Context to the
// request. It must run after the auth gate. Mount it only on tenant-scoped
// route groups; tenant-less routes (list my organizations, create
// organization) simply do not use it.
func Middleware(members MembershipResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := auth.IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			header := c.Request().Header.Get(HeaderName)
			if header == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
			}

			orgID, err := uuid.Parse(header)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
			}

			role, err := members.RoleOf(c.Request().Context(), orgID, ident.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "membership lookup failed")
			}
			if role == "" {
				return echo.NewHTTPError(http.StatusForbidden, "not a member of this organization")
			}

			tc := Context{OrgID: orgID, UserID: ident.UserID, Role: role}
			ctx := context.WithValue(c.Request().Context(), ctxKey{}, tc)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// FromContext returns the tenant Context for the request, or ErrMissingTenant
// when the request never passed through the tenant middleware.
func FromContext(ctx context.Context) (Context, error) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	if !ok {
		return Context{}, ErrMissingTenant
	}
	return tc, nil
}

// WithContext stamps a tenant Context onto ctx. Used by tests and background
// jobs that act on behalf of a tenant without an HTTP request.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// RequireRole gates a route group on the caller's membership role in the
// resolved organization. Capabilities derive from the Member role, not from
// any identity allow-list.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc, err := FromContext(c.Request().Context())
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
			}
			if _, ok := allowed[tc.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
