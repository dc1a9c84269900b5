// Package api exposes the authentication core over a JSON HTTP API.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/internal/security"
	"github.com/visiontf/authcore/internal/sessions"
	"github.com/visiontf/authcore/internal/twofactor"
	"github.com/visiontf/authcore/internal/users"
)

const apiVersion = "1.0"

// Google JSON API style response structures
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type APIResponse struct {
	APIVersion string         `json:"apiVersion"`
	Data       interface{}    `json:"data,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

func respond(ctx *fiber.Ctx, data interface{}) error {
	return ctx.JSON(APIResponse{
		APIVersion: apiVersion,
		Data:       data,
	})
}

func respondError(ctx *fiber.Ctx, code int, message string) error {
	return ctx.Status(code).JSON(APIResponse{
		APIVersion: apiVersion,
		Error: &ErrorResponse{
			Code:    code,
			Message: message,
		},
	})
}

// respondDomainError translates the service-layer sentinel errors into
// HTTP statuses; anything unrecognized bubbles to the fiber error handler.
func respondDomainError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return respondError(ctx, fiber.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, auth.ErrAccountLocked):
		return respondError(ctx, fiber.StatusForbidden, "Account is temporarily locked. Try again later.")
	case errors.Is(err, auth.ErrAccountDisabled):
		return respondError(ctx, fiber.StatusForbidden, "Account is disabled.")
	case errors.Is(err, auth.ErrInvalidToken):
		return respondError(ctx, fiber.StatusUnauthorized, "Invalid or expired token.")
	case errors.Is(err, auth.ErrSessionNotFound):
		return respondError(ctx, fiber.StatusNotFound, "Session not found.")
	case errors.Is(err, sessions.ErrTooManySessions):
		return respondError(ctx, fiber.StatusConflict, "Too many active sessions. Terminate one and retry.")
	case errors.Is(err, users.ErrUsernameTaken):
		return respondError(ctx, fiber.StatusConflict, "Username already taken.")
	case errors.Is(err, users.ErrEmailRegistered):
		return respondError(ctx, fiber.StatusConflict, "Email already registered.")
	case errors.Is(err, users.ErrUserNotFound):
		return respondError(ctx, fiber.StatusNotFound, "User not found.")
	case errors.Is(err, twofactor.ErrCodeVerifyFailed):
		return respondError(ctx, fiber.StatusUnauthorized, "Invalid two-factor code.")
	case errors.Is(err, twofactor.ErrNotEnrolled),
		errors.Is(err, twofactor.ErrNotEnabled),
		errors.Is(err, twofactor.ErrAlreadyEnabled):
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, security.ErrActivityNotFound):
		return respondError(ctx, fiber.StatusNotFound, "Activity not found.")
	default:
		return err
	}
}
