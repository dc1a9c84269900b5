package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/internal/sessions"
	"github.com/visiontf/authcore/model"
)

const localsClaimsKey = "authClaims"

// RequireAuth authenticates requests with a bearer access token. The
// session named by the token must still be live; validation touches its
// activity timestamp as a side effect.
func RequireAuth(issuer *auth.TokenIssuer, sessionService *sessions.SessionService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return respondError(ctx, fiber.StatusUnauthorized, "Missing bearer token.")
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			return respondError(ctx, fiber.StatusUnauthorized, "Invalid or expired token.")
		}
		if claims.SessionToken != "" {
			session, err := sessionService.Validate(ctx.Context(), claims.SessionToken)
			if err != nil {
				return err
			}
			if session == nil {
				return respondError(ctx, fiber.StatusUnauthorized, "Session expired or terminated.")
			}
		}

		ctx.Locals(localsClaimsKey, claims)
		return ctx.Next()
	}
}

// RequireAdmin gates admin endpoints on the role claim. Must run after
// RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims := requestClaims(ctx)
		if claims == nil || claims.Role != model.RoleAdmin {
			return respondError(ctx, fiber.StatusForbidden, "Admin role required.")
		}
		return ctx.Next()
	}
}

func requestClaims(ctx *fiber.Ctx) *auth.AccessClaims {
	claims, _ := ctx.Locals(localsClaimsKey).(*auth.AccessClaims)
	return claims
}

// requestUserID resolves the authenticated account ID or fails the request.
func requestUserID(ctx *fiber.Ctx) (uint, error) {
	claims := requestClaims(ctx)
	if claims == nil {
		return 0, fiber.ErrUnauthorized
	}
	return claims.UserID()
}
