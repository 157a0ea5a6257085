package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// ctxActor returns the user injected by the RequirePermission middleware.
// Its absence means the route was mounted without authentication.
func ctxActor(c echo.Context) (*domain.User, error) {
	actor, ok := domain.ActorFromContext(c.Request().Context())
	if !ok {
		return nil, domain.ErrMissingToken
	}
	return actor, nil
}

// ctxSubject returns the token subject injected by the Authenticate middleware.
func ctxSubject(c echo.Context) (string, error) {
	subject, ok := domain.SubjectFromContext(c.Request().Context())
	if !ok {
		return "", domain.ErrMissingToken
	}
	return subject, nil
}
