// Package auth orchestrates the authentication flows: signup and email
// verification, credential login with lockout and risk scoring, the 2FA
// challenge, token refresh, logout and account deactivation. It owns no
// storage of its own beyond refresh tokens; everything else is delegated
// to the domain services it composes.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/visiontf/authcore/internal/audit"
	"github.com/visiontf/authcore/internal/common"
	"github.com/visiontf/authcore/internal/mail"
	"github.com/visiontf/authcore/internal/security"
	"github.com/visiontf/authcore/internal/sessions"
	"github.com/visiontf/authcore/internal/twofactor"
	"github.com/visiontf/authcore/internal/users"
	"github.com/visiontf/authcore/model"
	"github.com/visiontf/authcore/params"
)

// AuthResult is the outcome of a successful credential check. When the
// account has 2FA enabled only Requires2FA is set and the caller must come
// back through VerifyTwoFactor to obtain tokens and a session.
type AuthResult struct {
	Requires2FA  bool
	AccessToken  string
	RefreshToken string
	SessionToken string
	Session      *model.Session
	Risk         *security.RiskAssessment
}

// TwoFactorSetupResult carries the enrollment material handed back to the
// user exactly once at setup time.
type TwoFactorSetupResult struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

type AuthService struct {
	users    users.UserRepository
	sessions *sessions.SessionService
	refresh  RefreshTokenRepository
	verifier *twofactor.Verifier
	assessor *security.RiskAssessor
	recorder *security.Recorder
	detector *security.AttackDetector
	patterns *security.PatternTracker
	auditLog *audit.Logger
	issuer   *TokenIssuer
	mailer   mail.MailSender
	baseURL  string
}

func NewAuthService(userRepo users.UserRepository, sessionService *sessions.SessionService,
	refreshRepo RefreshTokenRepository, verifier *twofactor.Verifier,
	assessor *security.RiskAssessor, recorder *security.Recorder,
	detector *security.AttackDetector, patterns *security.PatternTracker,
	auditLog *audit.Logger, issuer *TokenIssuer, mailer mail.MailSender, baseURL string) *AuthService {
	return &AuthService{
		users:    userRepo,
		sessions: sessionService,
		refresh:  refreshRepo,
		verifier: verifier,
		assessor: assessor,
		recorder: recorder,
		detector: detector,
		patterns: patterns,
		auditLog: auditLog,
		issuer:   issuer,
		mailer:   mailer,
		baseURL:  baseURL,
	}
}

// Signup registers a new account and sends the verification email. The
// account starts unverified; verification gates nothing in the login path
// but is tracked for the profile.
func (s *AuthService) Signup(ctx context.Context, username, fullName, email, password, ip, userAgent string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token := common.GenerateToken(params.VerificationTokenBytes)
	expires := time.Now().Add(params.EmailVerificationMaxAge)
	user := &model.User{
		Username:                 username,
		FullName:                 fullName,
		Email:                    email,
		Password:                 string(hashed),
		Role:                     model.RoleUser,
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditLog.UserRegistered(ctx, user.ID, user.Email, ip, userAgent)

	if err := mail.SendEmailVerification(s.mailer, user.Email, s.verificationURL(token)); err != nil {
		slog.Error("Failed to send verification email", "email", user.Email, "error", err)
	}
	return user, nil
}

// VerifyEmail consumes a verification token. Expired or unknown tokens
// come back as ErrInvalidToken.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.FirstByVerificationToken(ctx, token, time.Now())
	if err == users.ErrUserNotFound {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	err = s.users.Updates(ctx, user.ID, map[string]interface{}{
		"email_verified":             true,
		"email_verification_token":   nil,
		"email_verification_expires": nil,
	})
	if err != nil {
		return err
	}
	s.auditLog.EmailVerified(ctx, user.ID)
	return nil
}

// Login verifies credentials and, unless 2FA interposes, establishes a
// session. The account is locked for params.AccountLockDuration after
// params.MaxFailedLoginAttempts consecutive failures; locked and disabled
// states are reported distinctly, but unknown accounts and wrong passwords
// both come back as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool, ip, userAgent string) (*AuthResult, error) {
	correlationID := uuid.NewString()

	user, err := s.users.FirstByEmail(ctx, email)
	if err == users.ErrUserNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}
	if user.Locked(time.Now()) {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, s.failLogin(ctx, correlationID, user, ip, userAgent)
	}

	if err := s.resetLockout(ctx, user, ip, userAgent); err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		return &AuthResult{Requires2FA: true}, nil
	}
	return s.completeLogin(ctx, correlationID, user, rememberMe, ip, userAgent)
}

// failLogin registers one failed attempt: counter, lock when the threshold
// is reached, audit entry and a brute-force check on the source IP. Always
// returns ErrInvalidCredentials.
func (s *AuthService) failLogin(ctx context.Context, correlationID string, user *model.User, ip, userAgent string) error {
	attempts := user.FailedLoginAttempts + 1
	columns := map[string]interface{}{"failed_login_attempts": attempts}
	if attempts >= params.MaxFailedLoginAttempts {
		columns["locked_until"] = time.Now().Add(params.AccountLockDuration)
	}
	if err := s.users.Updates(ctx, user.ID, columns); err != nil {
		slog.Error("Failed to update failed login counter", "userId", user.ID, "error", err)
	}
	if attempts >= params.MaxFailedLoginAttempts {
		s.auditLog.AccountLocked(ctx, user.ID, ip, userAgent)
	}
	s.auditLog.LoginFailed(ctx, correlationID, user.Email, ip, userAgent, "invalid password")

	if _, err := s.detector.DetectBruteForce(ctx, ip); err != nil {
		slog.Error("Brute force detection failed", "ip", ip, "error", err)
	}
	return ErrInvalidCredentials
}

func (s *AuthService) resetLockout(ctx context.Context, user *model.User, ip, userAgent string) error {
	err := s.users.Updates(ctx, user.ID, map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         time.Now(),
	})
	if err != nil {
		return err
	}
	if user.FailedLoginAttempts > 0 {
		s.auditLog.AccountUnlocked(ctx, user.ID, ip, userAgent)
	}
	return nil
}

// completeLogin runs after credentials (and 2FA when enabled) are
// verified: create the session, score the attempt, record it when it
// crosses the alert threshold and issue the token pair.
func (s *AuthService) completeLogin(ctx context.Context, correlationID string, user *model.User, rememberMe bool, ip, userAgent string) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, userAgent, ip, rememberMe)
	if err != nil {
		return nil, err
	}

	lc := security.LoginContext{
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}
	risk, err := s.assessor.AnalyzeLogin(ctx, lc)
	if err != nil {
		slog.Error("Risk assessment failed", "userId", user.ID, "error", err)
		risk = &security.RiskAssessment{}
	}

	s.auditLog.UserLogin(ctx, correlationID, user.ID, ip, userAgent, session.Token)
	s.auditLog.SessionCreated(ctx, correlationID, user.ID, session.Token, ip, userAgent)

	if risk.Score >= params.RiskAlertThreshold {
		activityType := model.ActivityUnusualLoginTime
		if len(risk.Factors) > 0 {
			activityType = risk.Factors[0]
		}
		_, err := s.recorder.Record(ctx, &user.ID, activityType,
			fmt.Sprintf("Suspicious login detected with risk score: %d", risk.Score),
			map[string]any{
				"riskFactors": risk.Factors,
				"confidence":  risk.Confidence,
			}, lc, risk)
		if err != nil {
			slog.Error("Failed to record suspicious login", "userId", user.ID, "error", err)
		}
	}

	accessToken, err := s.issuer.Sign(user, session.Token)
	if err != nil {
		return nil, err
	}

	refreshToken := &model.RefreshToken{
		Token:     common.GenerateToken(params.RefreshTokenBytes),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(params.RefreshTokenMaxAge),
	}
	if err := s.refresh.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		SessionToken: session.Token,
		Session:      session,
		Risk:         risk,
	}, nil
}

// VerifyTwoFactor completes a login that Login answered with Requires2FA.
// The password is re-verified so the challenge cannot be replayed without
// the credential; code may be a TOTP code or an unused backup code.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, password, code string, rememberMe bool, ip, userAgent string) (*AuthResult, error) {
	correlationID := uuid.NewString()

	user, err := s.users.FirstByEmail(ctx, email)
	if err == users.ErrUserNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}
	if user.Locked(time.Now()) {
		return nil, ErrAccountLocked
	}
	if !user.TwoFactorEnabled {
		return nil, twofactor.ErrNotEnabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, s.failLogin(ctx, correlationID, user, ip, userAgent)
	}

	if !s.verifier.VerifyCode(code, user.TwoFactorSecret) {
		remaining, ok := twofactor.ConsumeBackupCode(code, user.TwoFactorBackupCodes)
		if !ok {
			s.auditLog.TwoFactorFailed(ctx, user.ID, ip, userAgent)
			return nil, twofactor.ErrCodeVerifyFailed
		}
		if err := s.users.UpdateBackupCodes(ctx, user.ID, remaining); err != nil {
			return nil, err
		}
	}

	if err := s.resetLockout(ctx, user, ip, userAgent); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, correlationID, user, rememberMe, ip, userAgent)
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	found, err := s.refresh.FirstByToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if found == nil || found.Revoked || !found.ExpiresAt.After(time.Now()) {
		return "", ErrInvalidToken
	}
	if found.User == nil || found.User.Disabled {
		return "", ErrInvalidToken
	}
	return s.issuer.Sign(found.User, "")
}

// Logout revokes the refresh token and terminates the session the token
// names; with an empty session token every session of the user goes.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken, sessionToken, ip, userAgent string) error {
	if refreshToken != "" {
		if err := s.refresh.RevokeByToken(ctx, refreshToken); err != nil {
			return err
		}
	}
	if sessionToken != "" {
		if err := s.sessions.Terminate(ctx, sessionToken); err != nil {
			return err
		}
		s.auditLog.UserLogout(ctx, userID, ip, userAgent, sessionToken)
		s.auditLog.SessionTerminated(ctx, userID, sessionToken, ip, userAgent)
		return nil
	}
	if err := s.sessions.TerminateAllForUser(ctx, userID); err != nil {
		return err
	}
	s.auditLog.UserLogout(ctx, userID, ip, userAgent, "")
	s.auditLog.AllSessionsTerminated(ctx, userID, ip, userAgent)
	return nil
}

// TerminateSession terminates one named session after checking it belongs
// to the calling user.
func (s *AuthService) TerminateSession(ctx context.Context, userID uint, sessionToken, ip, userAgent string) error {
	session, err := s.sessions.Find(ctx, sessionToken)
	if err != nil {
		return err
	}
	if session == nil || session.UserID != userID {
		return ErrSessionNotFound
	}
	if err := s.sessions.Terminate(ctx, sessionToken); err != nil {
		return err
	}
	s.auditLog.SessionTerminated(ctx, userID, sessionToken, ip, userAgent)
	return nil
}

// ForgotPassword issues a reset token when the email is registered and
// says nothing either way; account existence is never revealed.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ip, userAgent string) error {
	user, err := s.users.FirstByEmail(ctx, email)
	if err == users.ErrUserNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	token := common.GenerateToken(params.VerificationTokenBytes)
	expires := time.Now().Add(params.PasswordResetTokenMaxAge)
	err = s.users.Updates(ctx, user.ID, map[string]interface{}{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	})
	if err != nil {
		return err
	}

	s.auditLog.PasswordResetRequested(ctx, email, ip, userAgent)

	if err := mail.SendPasswordResetLink(s.mailer, user.Email, s.resetURL(token)); err != nil {
		slog.Error("Failed to send password reset email", "email", user.Email, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token, replaces the password, clears any
// lockout and revokes every session and refresh token of the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, ip, userAgent string) error {
	user, err := s.users.FirstByResetToken(ctx, token, time.Now())
	if err == users.ErrUserNotFound {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = s.users.Updates(ctx, user.ID, map[string]interface{}{
		"password":               string(hashed),
		"password_reset_token":   nil,
		"password_reset_expires": nil,
		"failed_login_attempts":  0,
		"locked_until":           nil,
	})
	if err != nil {
		return err
	}

	if err := s.sessions.TerminateAllForUser(ctx, user.ID); err != nil {
		return err
	}
	if err := s.refresh.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}
	s.auditLog.PasswordResetCompleted(ctx, user.ID, ip, userAgent)
	return nil
}

// SetupTwoFactor generates the secret and backup codes and stores them on
// the account without enabling 2FA yet; EnableTwoFactor confirms
// enrollment with a first valid code.
func (s *AuthService) SetupTwoFactor(ctx context.Context, userID uint, ip, userAgent string) (*TwoFactorSetupResult, error) {
	user, err := s.users.FirstByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, twofactor.ErrAlreadyEnabled
	}

	secret, err := s.verifier.GenerateSecret(user.Email)
	if err != nil {
		return nil, err
	}
	codes := twofactor.GenerateBackupCodes()

	err = s.users.Updates(ctx, user.ID, map[string]interface{}{
		"two_factor_secret": secret.Secret,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateBackupCodes(ctx, user.ID, codes); err != nil {
		return nil, err
	}

	s.auditLog.TwoFactorSetup(ctx, user.ID, ip, userAgent)

	if err := mail.SendTwoFactorSetup(s.mailer, user.Email, secret.ProvisioningURI, codes); err != nil {
		slog.Error("Failed to send 2FA setup email", "email", user.Email, "error", err)
	}
	return &TwoFactorSetupResult{
		Secret:          secret.Secret,
		ProvisioningURI: secret.ProvisioningURI,
		BackupCodes:     codes,
	}, nil
}

// EnableTwoFactor turns 2FA on after the user proves possession of the
// enrolled secret with one valid code.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID uint, code, ip, userAgent string) error {
	user, err := s.users.FirstByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return twofactor.ErrAlreadyEnabled
	}
	if user.TwoFactorSecret == "" {
		return twofactor.ErrNotEnrolled
	}
	if !s.verifier.VerifyCode(code, user.TwoFactorSecret) {
		s.auditLog.TwoFactorFailed(ctx, userID, ip, userAgent)
		return twofactor.ErrCodeVerifyFailed
	}

	err = s.users.Updates(ctx, userID, map[string]interface{}{
		"two_factor_enabled": true,
	})
	if err != nil {
		return err
	}
	s.auditLog.TwoFactorEnabled(ctx, userID, ip, userAgent)
	return nil
}

// DisableTwoFactor turns 2FA off after a password check and wipes the
// secret and remaining backup codes.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID uint, password, ip, userAgent string) error {
	user, err := s.users.FirstByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return twofactor.ErrNotEnabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return ErrInvalidCredentials
	}

	err = s.users.Updates(ctx, userID, map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  "",
	})
	if err != nil {
		return err
	}
	if err := s.users.UpdateBackupCodes(ctx, userID, nil); err != nil {
		return err
	}
	s.auditLog.TwoFactorDisabled(ctx, userID, ip, userAgent)
	return nil
}

// DeactivateAccount is the self-service path: password-confirmed soft
// delete plus full session and refresh-token revocation.
func (s *AuthService) DeactivateAccount(ctx context.Context, userID uint, password, ip, userAgent string) error {
	user, err := s.users.FirstByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return s.deactivate(ctx, userID, userID, ip, userAgent)
}

// DeactivateUserByAdmin disables another user's account without a
// password check; the actor is recorded in the audit trail.
func (s *AuthService) DeactivateUserByAdmin(ctx context.Context, actorID, targetUserID uint, ip, userAgent string) error {
	if _, err := s.users.FirstByID(ctx, targetUserID); err != nil {
		return err
	}
	return s.deactivate(ctx, actorID, targetUserID, ip, userAgent)
}

func (s *AuthService) deactivate(ctx context.Context, actorID, targetUserID uint, ip, userAgent string) error {
	err := s.users.Updates(ctx, targetUserID, map[string]interface{}{
		"disabled": true,
	})
	if err != nil {
		return err
	}
	if err := s.sessions.TerminateAllForUser(ctx, targetUserID); err != nil {
		return err
	}
	if err := s.refresh.RevokeAllForUser(ctx, targetUserID); err != nil {
		return err
	}
	s.auditLog.UserDeactivated(ctx, actorID, targetUserID, ip, userAgent)
	return nil
}

// UserSessions lists the user's live sessions for the profile view.
func (s *AuthService) UserSessions(ctx context.Context, userID uint) ([]model.Session, error) {
	return s.sessions.UserSessions(ctx, userID)
}

// LoginPatterns exposes the user's recorded login patterns.
func (s *AuthService) LoginPatterns(ctx context.Context, userID uint) ([]model.LoginPattern, error) {
	return s.patterns.UserPatterns(ctx, userID)
}

func (s *AuthService) verificationURL(token string) string {
	return s.baseURL + "/verify-email?token=" + token
}

func (s *AuthService) resetURL(token string) string {
	return s.baseURL + "/reset-password?token=" + token
}
