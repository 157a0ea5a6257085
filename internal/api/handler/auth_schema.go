package handler

import "github.com/holycode/contracts-api/internal/core/domain"

// --- Request / Response types ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Results *domain.User `json:"results"`
}

type messageResponse struct {
	Message string `json:"message"`
}
