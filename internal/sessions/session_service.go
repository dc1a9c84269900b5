// Package sessions owns the server-side session lifecycle: creation under a
// hard per-user concurrency cap, token validation with activity tracking,
// and termination.
package sessions

import (
	"context"
	"time"

	"github.com/visiontf/authcore/internal/common"
	"github.com/visiontf/authcore/model"
	"github.com/visiontf/authcore/params"
)

type SessionService struct {
	repo SessionRepository
}

func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Create issues a new session after successful authentication. It fails
// with ErrTooManySessions, without side effects, when the user already has
// params.MaxActiveSessions live sessions; the caller must terminate one
// first, there is no eviction.
func (s *SessionService) Create(ctx context.Context, userID uint, userAgent, ipAddress string, rememberMe bool) (*model.Session, error) {
	now := time.Now()
	maxAge := params.SessionMaxAge
	if rememberMe {
		maxAge = params.SessionRememberMeMaxAge
	}
	session := &model.Session{
		Token:          common.GenerateToken(params.SessionTokenBytes),
		UserID:         userID,
		UserAgent:      userAgent,
		IPAddress:      ipAddress,
		DeviceName:     DeviceName(userAgent),
		RememberMe:     rememberMe,
		IsActive:       true,
		ExpiresAt:      now.Add(maxAge),
		LastActivityAt: now,
	}
	if err := s.repo.CreateWithinLimit(ctx, session, params.MaxActiveSessions); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate resolves a token to its session and touches the activity
// timestamp. Unknown, inactive and expired tokens all come back as
// (nil, nil): the caller cannot tell which, by design of the contract.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.repo.FirstByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Valid(time.Now()) {
		return nil, nil
	}
	if err := s.Touch(ctx, token); err != nil {
		return nil, err
	}
	return session, nil
}

// Find looks up a session by token without touching its activity
// timestamp. Returns (nil, nil) when the token is unknown.
func (s *SessionService) Find(ctx context.Context, token string) (*model.Session, error) {
	return s.repo.FirstByToken(ctx, token)
}

// Touch updates the last-activity timestamp only; exposed for keep-alive.
func (s *SessionService) Touch(ctx context.Context, token string) error {
	return s.repo.TouchActivity(ctx, token, time.Now())
}

// Terminate marks the session inactive. Idempotent: unknown or already
// terminated tokens are not an error.
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	return s.repo.DeactivateByToken(ctx, token)
}

// TerminateAllForUser deactivates every active session of the user.
func (s *SessionService) TerminateAllForUser(ctx context.Context, userID uint) error {
	return s.repo.DeactivateAllForUser(ctx, userID)
}

// UserSessions lists the user's active, unexpired sessions, most recently
// active first.
func (s *SessionService) UserSessions(ctx context.Context, userID uint) ([]model.Session, error) {
	return s.repo.FindActive(ctx, userID, time.Now())
}

// CountActive reports the user's live session count.
func (s *SessionService) CountActive(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountActive(ctx, userID, time.Now())
}

// SweepExpired flips inactive every session whose expiry has passed.
// Validation rejects expired sessions regardless, so sweep cadence only
// affects how long dead rows stay flagged active.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, time.Now())
}
