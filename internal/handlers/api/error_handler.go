package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the app-level fiber error handler. Everything the
// handlers did not translate themselves comes through here as a JSON error
// envelope.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusInternalServerError {
		slog.Error("unhandled error", "path", ctx.Path(), "code", code, "error", err)
		return respondError(ctx, code, "Internal server error.")
	}
	return respondError(ctx, code, err.Error())
}
