package auth

import (
	"context"
	"sync"
	"time"

	"github.com/visiontf/authcore/internal/mail"
	"github.com/visiontf/authcore/internal/security"
	"github.com/visiontf/authcore/internal/sessions"
	"github.com/visiontf/authcore/internal/users"
	"github.com/visiontf/authcore/model"
)

// fakeUserRepo is an in-memory users.UserRepository. Updates applies the
// same column names the service writes through the real one.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User)}
}

func (r *fakeUserRepo) FirstByID(ctx context.Context, userID uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeUserRepo) FirstByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeUserRepo) FirstByVerificationToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.EmailVerificationToken != nil && *user.EmailVerificationToken == token &&
			user.EmailVerificationExpires != nil && user.EmailVerificationExpires.After(now) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeUserRepo) FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == token &&
			user.PasswordResetExpires != nil && user.PasswordResetExpires.After(now) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return users.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return users.ErrEmailRegistered
		}
	}
	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Updates(ctx context.Context, userID uint, columns map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	for column, value := range columns {
		switch column {
		case "failed_login_attempts":
			user.FailedLoginAttempts = value.(int)
		case "locked_until":
			user.LockedUntil = optionalTime(value)
		case "last_login_at":
			user.LastLoginAt = optionalTime(value)
		case "email_verified":
			user.EmailVerified = value.(bool)
		case "email_verification_token":
			user.EmailVerificationToken = optionalString(value)
		case "email_verification_expires":
			user.EmailVerificationExpires = optionalTime(value)
		case "password_reset_token":
			user.PasswordResetToken = optionalString(value)
		case "password_reset_expires":
			user.PasswordResetExpires = optionalTime(value)
		case "password":
			user.Password = value.(string)
		case "two_factor_enabled":
			user.TwoFactorEnabled = value.(bool)
		case "two_factor_secret":
			user.TwoFactorSecret = value.(string)
		case "disabled":
			user.Disabled = value.(bool)
		}
	}
	return nil
}

func optionalTime(value interface{}) *time.Time {
	if value == nil {
		return nil
	}
	t := value.(time.Time)
	return &t
}

func optionalString(value interface{}) *string {
	if value == nil {
		return nil
	}
	s := value.(string)
	return &s
}

func (r *fakeUserRepo) UpdateBackupCodes(ctx context.Context, userID uint, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	user.TwoFactorBackupCodes = append([]string(nil), codes...)
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
	return nil
}

// fakeRefreshRepo is an in-memory RefreshTokenRepository.
type fakeRefreshRepo struct {
	mu     sync.Mutex
	users  *fakeUserRepo
	tokens map[string]*model.RefreshToken
}

func newFakeRefreshRepo(userRepo *fakeUserRepo) *fakeRefreshRepo {
	return &fakeRefreshRepo{
		users:  userRepo,
		tokens: make(map[string]*model.RefreshToken),
	}
}

func (r *fakeRefreshRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *fakeRefreshRepo) FirstByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	found, ok := r.tokens[token]
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}
	copied := *found
	r.mu.Unlock()
	if user, err := r.users.FirstByID(ctx, copied.UserID); err == nil {
		copied.User = user
	}
	return &copied, nil
}

func (r *fakeRefreshRepo) RevokeByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if found, ok := r.tokens[token]; ok {
		found.Revoked = true
	}
	return nil
}

func (r *fakeRefreshRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

// fakeSessionRepo is an in-memory sessions.SessionRepository.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepo) CreateWithinLimit(ctx context.Context, session *model.Session, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	now := time.Now()
	for _, s := range r.sessions {
		if s.UserID == session.UserID && s.IsActive && s.ExpiresAt.After(now) {
			count++
		}
	}
	if count >= limit {
		return sessions.ErrTooManySessions
	}
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *fakeSessionRepo) FirstByToken(ctx context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) TouchActivity(ctx context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok {
		session.LastActivityAt = at
	}
	return nil
}

func (r *fakeSessionRepo) DeactivateByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok {
		session.IsActive = false
	}
	return nil
}

func (r *fakeSessionRepo) DeactivateAllForUser(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.IsActive = false
		}
	}
	return nil
}

func (r *fakeSessionRepo) FindActive(ctx context.Context, userID uint, now time.Time) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []model.Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			active = append(active, *session)
		}
	}
	return active, nil
}

func (r *fakeSessionRepo) CountActive(ctx context.Context, userID uint, now time.Time) (int64, error) {
	active, _ := r.FindActive(ctx, userID, now)
	return int64(len(active)), nil
}

func (r *fakeSessionRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, session := range r.sessions {
		if session.IsActive && !session.ExpiresAt.After(now) {
			session.IsActive = false
			swept++
		}
	}
	return swept, nil
}

// fakePatternRepo is an in-memory security.PatternRepository.
type fakePatternRepo struct {
	mu       sync.Mutex
	patterns []*model.LoginPattern
}

func (r *fakePatternRepo) FindByUser(ctx context.Context, userID uint) ([]model.LoginPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.LoginPattern
	for _, p := range r.patterns {
		if p.UserID == userID {
			found = append(found, *p)
		}
	}
	return found, nil
}

func (r *fakePatternRepo) Create(ctx context.Context, pattern *model.LoginPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pattern.UserAgentHash == "" {
		pattern.UserAgentHash = model.HashUserAgent(pattern.UserAgent)
	}
	copied := *pattern
	r.patterns = append(r.patterns, &copied)
	return nil
}

func (r *fakePatternRepo) IncrementLogin(ctx context.Context, userID uint, ipAddress, userAgentHash string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patterns {
		if p.UserID == userID && p.IPAddress == ipAddress && p.UserAgentHash == userAgentHash {
			p.LoginCount++
			p.LastSeenAt = at
			return 1, nil
		}
	}
	return 0, nil
}

// fakeActivityRepo is an in-memory security.ActivityRepository.
type fakeActivityRepo struct {
	mu         sync.Mutex
	nextID     uint
	activities []*model.SuspiciousActivity
}

func (r *fakeActivityRepo) Create(ctx context.Context, activity *model.SuspiciousActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	activity.ID = r.nextID
	copied := *activity
	r.activities = append(r.activities, &copied)
	return nil
}

func (r *fakeActivityRepo) FirstByID(ctx context.Context, activityID uint) (*model.SuspiciousActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.activities {
		if a.ID == activityID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, security.ErrActivityNotFound
}

func (r *fakeActivityRepo) Updates(ctx context.Context, activityID uint, columns map[string]interface{}) error {
	return nil
}

func (r *fakeActivityRepo) List(ctx context.Context, filter security.ActivityFilter) ([]model.SuspiciousActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.SuspiciousActivity
	for _, a := range r.activities {
		found = append(found, *a)
	}
	return found, nil
}

func (r *fakeActivityRepo) Stats(ctx context.Context) (*security.ActivityStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &security.ActivityStats{Total: int64(len(r.activities))}, nil
}

// fakeTrail is an in-memory audit.EventRepository.
type fakeTrail struct {
	mu     sync.Mutex
	nextID uint64
	events []model.AuditEvent
}

func (r *fakeTrail) RecordEvent(ctx context.Context, event *model.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeTrail) CountUserEvents(ctx context.Context, userID uint, eventType string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.events {
		if e.UserID != nil && *e.UserID == userID && e.EventType == eventType && e.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTrail) CountIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.events {
		if e.IPAddress == ipAddress && e.EventType == eventType && e.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTrail) ListIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) ([]model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.AuditEvent
	for _, e := range r.events {
		if e.IPAddress == ipAddress && e.EventType == eventType && e.CreatedAt.After(since) {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *fakeTrail) ListEventsSince(ctx context.Context, eventType string, since time.Time) ([]model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.AuditEvent
	for _, e := range r.events {
		if e.EventType == eventType && e.CreatedAt.After(since) {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *fakeTrail) ListUserEvents(ctx context.Context, userID uint, limit, offset int) ([]model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.AuditEvent
	for _, e := range r.events {
		if e.UserID != nil && *e.UserID == userID {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *fakeTrail) ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AuditEvent(nil), r.events...), nil
}

func (r *fakeTrail) countType(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	for _, e := range r.events {
		if e.EventType == eventType {
			count++
		}
	}
	return count
}

// fakeMailSender records outgoing messages.
type fakeMailSender struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (s *fakeMailSender) Send(message *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *fakeMailSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
