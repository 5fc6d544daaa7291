package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dandihub/dandinotes/internal/domain"
	"github.com/dandihub/dandinotes/internal/present/rest/presenter"
	"github.com/dandihub/dandinotes/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	sessions service.SessionStore
}

func NewAuthMiddleware(sessions service.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// IdentifySession resolves the session cookie, if any, into a principal and
// stashes it on the request context. Requests without a valid session pass
// through anonymously.
func (s *AuthMiddleware) IdentifySession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifySession")
		defer span.End()

		cookie, err := c.Cookie(domain.SessionCookieName)
		if err != nil || cookie.Value == "" {
			goto skipCheckSession
		}

		{
			principal, err := s.sessions.Get(ctx, cookie.Value)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifySession: sessions.Get failed"))
				goto skipCheckSession
			}
			if principal == nil {
				goto skipCheckSession
			}

			ctx = context.WithValue(ctx, domain.PrincipalCtxKey, principal)
			ctx = context.WithValue(ctx, domain.SessionCtxKey, cookie.Value)
			span.SetAttributes(attribute.String("Principal", principal.Username))
		}

	skipCheckSession:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// PrincipalFromContext returns the authenticated principal, or nil for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	principal, ok := ctx.Value(domain.PrincipalCtxKey).(*domain.Principal)
	if !ok {
		return nil
	}
	return principal
}

// SessionTokenFromContext returns the session token the request carried.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(domain.SessionCtxKey).(string)
	return token
}

// RequireAuth rejects anonymous requests.
func (s *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if PrincipalFromContext(c.Request().Context()) == nil {
			return presenter.Unauthorized(c, "Authentication required")
		}
		return next(c)
	}
}

// RequireModerator rejects requests whose principal lacks the moderator role.
func (s *AuthMiddleware) RequireModerator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := PrincipalFromContext(c.Request().Context())
		if principal == nil {
			return presenter.Unauthorized(c, "Authentication required")
		}
		if !principal.IsModerator() {
			return presenter.Forbidden(c, "Moderator privileges required")
		}
		return next(c)
	}
}
