package sessions

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/visiontf/authcore/model"
)

// SessionRepository persists session rows. CreateWithinLimit is the only
// write that needs coordination: the count-then-insert is racy without it.
type SessionRepository interface {
	CreateWithinLimit(ctx context.Context, session *model.Session, limit int) error
	FirstByToken(ctx context.Context, token string) (*model.Session, error)
	TouchActivity(ctx context.Context, token string, at time.Time) error
	DeactivateByToken(ctx context.Context, token string) error
	DeactivateAllForUser(ctx context.Context, userID uint) error
	FindActive(ctx context.Context, userID uint, now time.Time) ([]model.Session, error)
	CountActive(ctx context.Context, userID uint, now time.Time) (int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateWithinLimit counts the user's live sessions and inserts inside one
// transaction. The locking clause makes the count take row locks on the
// user's session rows, so two concurrent logins for the same user serialize
// and cannot both slip under the cap.
func (r *sessionRepository) CreateWithinLimit(ctx context.Context, session *model.Session, limit int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Session{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND is_active = ? AND expires_at > ?", session.UserID, true, time.Now()).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return ErrTooManySessions
		}
		return tx.Create(session).Error
	})
}

func (r *sessionRepository) FirstByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) TouchActivity(ctx context.Context, token string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token = ?", token).
		Update("last_activity_at", at).Error
}

func (r *sessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token = ?", token).
		Update("is_active", false).Error
}

func (r *sessionRepository) DeactivateAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}

func (r *sessionRepository) FindActive(ctx context.Context, userID uint, now time.Time) ([]model.Session, error) {
	var found []model.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("last_activity_at DESC").
		Find(&found).Error
	return found, err
}

func (r *sessionRepository) CountActive(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Count(&count).Error
	return count, err
}

func (r *sessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
