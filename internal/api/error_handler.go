package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// ErrorCode is a stable client-facing number and is omitted for transport errors.
type errorResponse struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode,omitempty"`
}

type apiError struct {
	target  error
	status  int
	code    int
	message string
}

// Order matters only for errors wrapping more than one sentinel.
var apiErrors = []apiError{
	{domain.ErrMissingParameters, http.StatusBadRequest, 1, "Missing parameters"},
	{domain.ErrInvalidEmail, http.StatusBadRequest, 2, "Please fill a valid email address"},
	{domain.ErrDuplicateEmail, http.StatusConflict, 3, "Email already in use"},
	{domain.ErrNotFound, http.StatusNotFound, 4, "Not Found"},
	{domain.ErrForbidden, http.StatusForbidden, 5, "Insufficient privileges"},
	{domain.ErrInvalidIdentifier, http.StatusBadRequest, 6, "Invalid identifier"},
	{domain.ErrInvalidValue, http.StatusBadRequest, 7, "Value is not valid"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, 8, "Wrong credentials"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, 9, "Invalid token"},
	{domain.ErrExpiredToken, http.StatusUnauthorized, 10, "Token expired"},
	{domain.ErrMissingToken, http.StatusUnauthorized, 11, "Missing authorization token"},
	{domain.ErrRequestInProgress, http.StatusConflict, 12, "Request with this Idempotency-Key is already in progress"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - maps domain errors to their status code and errorCode
//   - logs unexpected errors internally without leaking details to the client
//   - renders a consistent JSON envelope: {"message": "...", "errorCode": N}
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	for _, ae := range apiErrors {
		if errors.Is(err, ae.target) {
			if ae.status == http.StatusUnauthorized || ae.status == http.StatusForbidden {
				log.Debug().Err(err).Str("path", c.Path()).Msg("request rejected")
			}
			return ae.status, errorResponse{Message: ae.message, ErrorCode: ae.code}
		}
	}

	// Echo's own errors (unknown route, method not allowed, body too large).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "Internal server error"}
}
