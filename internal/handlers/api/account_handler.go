package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/model"
)

// AccountHandler serves the authenticated self-service endpoints: session
// management, login history and the 2FA lifecycle.
type AccountHandler struct {
	authService *auth.AuthService
}

func NewAccountHandler(authService *auth.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

type sessionSummary struct {
	Token          string    `json:"token"`
	DeviceName     string    `json:"deviceName"`
	IPAddress      string    `json:"ipAddress"`
	RememberMe     bool      `json:"rememberMe"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

func (h *AccountHandler) GetSessions(ctx *fiber.Ctx) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	userSessions, err := h.authService.UserSessions(ctx.Context(), userID)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	summaries := make([]sessionSummary, 0, len(userSessions))
	for _, session := range userSessions {
		summaries = append(summaries, sessionSummary{
			Token:          session.Token,
			DeviceName:     session.DeviceName,
			IPAddress:      session.IPAddress,
			RememberMe:     session.RememberMe,
			ExpiresAt:      session.ExpiresAt,
			LastActivityAt: session.LastActivityAt,
		})
	}
	return respond(ctx, summaries)
}

func (h *AccountHandler) DeleteSession(ctx *fiber.Ctx) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	token := ctx.Params("token")
	if token == "" {
		return respondError(ctx, fiber.StatusBadRequest, "Missing session token.")
	}

	err = h.authService.TerminateSession(ctx.Context(), userID, token, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"terminated": true})
}

type patternSummary struct {
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Location    string    `json:"location,omitempty"`
	LoginCount  int       `json:"loginCount"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func summarizePattern(pattern model.LoginPattern) patternSummary {
	return patternSummary{
		IPAddress:   pattern.IPAddress,
		UserAgent:   pattern.UserAgent,
		Location:    pattern.Location,
		LoginCount:  pattern.LoginCount,
		FirstSeenAt: pattern.FirstSeenAt,
		LastSeenAt:  pattern.LastSeenAt,
	}
}

func (h *AccountHandler) GetLoginPatterns(ctx *fiber.Ctx) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	patterns, err := h.authService.LoginPatterns(ctx.Context(), userID)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	summaries := make([]patternSummary, 0, len(patterns))
	for _, pattern := range patterns {
		summaries = append(summaries, summarizePattern(pattern))
	}
	return respond(ctx, summaries)
}

func (h *AccountHandler) PostTwoFactorSetup(ctx *fiber.Ctx) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	setup, err := h.authService.SetupTwoFactor(ctx.Context(), userID, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{
		"secret":          setup.Secret,
		"provisioningURI": setup.ProvisioningURI,
		"backupCodes":     setup.BackupCodes,
	})
}

type twoFactorCodeRequest struct {
	Code string `json:"code"`
}

func (h *AccountHandler) PostTwoFactorEnable(ctx *fiber.Ctx) error {
	var req twoFactorCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	err = h.authService.EnableTwoFactor(ctx.Context(), userID, req.Code, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"enabled": true})
}

type passwordConfirmRequest struct {
	Password string `json:"password"`
}

func (h *AccountHandler) PostTwoFactorDisable(ctx *fiber.Ctx) error {
	var req passwordConfirmRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	err = h.authService.DisableTwoFactor(ctx.Context(), userID, req.Password, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"disabled": true})
}

// PostDeactivate disables the calling account after a password check and
// revokes every session and refresh token.
func (h *AccountHandler) PostDeactivate(ctx *fiber.Ctx) error {
	var req passwordConfirmRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	err = h.authService.DeactivateAccount(ctx.Context(), userID, req.Password, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"deactivated": true})
}
