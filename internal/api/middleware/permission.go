package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/holycode/contracts-api/internal/api/metrics"
	"github.com/holycode/contracts-api/internal/core/domain"
)

// UserFinder loads the acting user.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// RequirePermission gates a route on the caller's role. It must run after
// Authenticate. In order it:
//   - rejects any path parameter that is not a well-formed identifier
//   - loads the user named by the token subject (one store read)
//   - checks the user's role against roles
//   - injects the loaded user into the request context
func RequirePermission(users UserFinder, roles ...domain.Role) echo.MiddlewareFunc {
	required := domain.NewRoleSet(roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, v := range c.ParamValues() {
				if !primitive.IsValidObjectID(v) {
					metrics.PermissionDenialsTotal.WithLabelValues("invalid_identifier").Inc()
					return domain.ErrInvalidIdentifier
				}
			}

			ctx := c.Request().Context()
			subject, ok := domain.SubjectFromContext(ctx)
			if !ok {
				metrics.PermissionDenialsTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrMissingToken
			}

			user, err := users.FindByID(ctx, subject)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					metrics.PermissionDenialsTotal.WithLabelValues("user_not_found").Inc()
				}
				return err
			}

			if !required.Allows(user.Role) {
				metrics.PermissionDenialsTotal.WithLabelValues("role").Inc()
				return domain.ErrForbidden
			}

			c.SetRequest(c.Request().WithContext(domain.WithActor(ctx, user)))
			return next(c)
		}
	}
}
