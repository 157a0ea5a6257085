package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/holycode/contracts-api/internal/api/metrics"
	"github.com/holycode/contracts-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup handles POST /api/v1/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("signup", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Message: "Successfully signed up",
		Token:   res.Token,
		Results: res.User,
	})
}

// Signin handles POST /api/v1/signin.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Signin(c.Request().Context(), req.Email, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("signin", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Message: "Successfully signed in",
		Token:   res.Token,
		Results: res.User,
	})
}

// ChangePassword handles POST /api/v1/change-password for the token's subject.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err = h.authService.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword)
	metrics.AuthAttemptsTotal.WithLabelValues("change_password", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password successfully updated"})
}
