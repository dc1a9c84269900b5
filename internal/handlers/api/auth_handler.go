package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/model"
)

// AuthHandler serves the unauthenticated flows: signup, email
// verification, login with its 2FA challenge, token refresh and the
// password reset pair.
type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signupRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func summarizeUser(user *model.User) userSummary {
	return userSummary{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
	}
}

func (h *AuthHandler) PostSignup(ctx *fiber.Ctx) error {
	var req signupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validateUsername(req.Username); err != nil {
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := validateEmail(req.Email); err != nil {
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := validatePassword(req.Password); err != nil {
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Signup(ctx.Context(), req.Username, req.FullName, req.Email, req.Password, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx.Status(fiber.StatusCreated), summarizeUser(user))
}

func (h *AuthHandler) GetVerifyEmail(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return respondError(ctx, fiber.StatusBadRequest, "Missing verification token.")
	}
	if err := h.authService.VerifyEmail(ctx.Context(), token); err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"verified": true})
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Code       string `json:"code"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	Requires2FA  bool   `json:"requires2FA,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
}

func loginResult(result *auth.AuthResult) loginResponse {
	return loginResponse{
		Requires2FA:  result.Requires2FA,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionToken: result.SessionToken,
	}
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	result, err := h.authService.Login(ctx.Context(), req.Email, req.Password, req.RememberMe, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, loginResult(result))
}

// PostTwoFactorChallenge completes a login that answered requires2FA; the
// code may be a TOTP code or a backup code.
func (h *AuthHandler) PostTwoFactorChallenge(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if req.Code == "" {
		return respondError(ctx, fiber.StatusBadRequest, "Missing two-factor code.")
	}

	result, err := h.authService.VerifyTwoFactor(ctx.Context(), req.Email, req.Password, req.Code, req.RememberMe, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, loginResult(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) PostRefresh(ctx *fiber.Ctx) error {
	var req refreshRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	accessToken, err := h.authService.Refresh(ctx.Context(), req.RefreshToken)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"accessToken": accessToken})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	AllSessions  bool   `json:"allSessions"`
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	var req logoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	sessionToken := ""
	if !req.AllSessions {
		sessionToken = requestClaims(ctx).SessionToken
	}
	err = h.authService.Logout(ctx.Context(), userID, req.RefreshToken, sessionToken, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"loggedOut": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// PostForgotPassword always answers the same way; whether the email is
// registered is never revealed.
func (h *AuthHandler) PostForgotPassword(ctx *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validateEmail(req.Email); err != nil {
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.ForgotPassword(ctx.Context(), req.Email, ctx.IP(), ctx.Get(fiber.HeaderUserAgent)); err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"sent": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) PostResetPassword(ctx *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return respondError(ctx, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.ResetPassword(ctx.Context(), req.Token, req.NewPassword, ctx.IP(), ctx.Get(fiber.HeaderUserAgent)); err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"reset": true})
}
