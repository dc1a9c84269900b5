package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/visiontf/authcore/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailRegistered = errors.New("email already registered")
)

// UserRepository is the credential store: keyed lookups and partial updates
// of user rows. All authentication-state mutation goes through Updates.
type UserRepository interface {
	FirstByID(ctx context.Context, userID uint) (*model.User, error)
	FirstByEmail(ctx context.Context, email string) (*model.User, error)
	FirstByVerificationToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Updates(ctx context.Context, userID uint, columns map[string]interface{}) error
	UpdateBackupCodes(ctx context.Context, userID uint, codes []string) error
	Delete(ctx context.Context, userID uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FirstByID(ctx context.Context, userID uint) (*model.User, error) {
	return r.first(ctx, "id = ?", userID)
}

func (r *userRepository) FirstByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) FirstByVerificationToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return r.first(ctx, "email_verification_token = ? AND email_verification_expires > ?", token, now)
}

func (r *userRepository) FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return r.first(ctx, "password_reset_token = ? AND password_reset_expires > ?", token, now)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		if strings.Contains(mysqlErr.Message, "username") {
			return ErrUsernameTaken
		}
		return ErrEmailRegistered
	}
	return err
}

func (r *userRepository) Updates(ctx context.Context, userID uint, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(columns).Error
}

// UpdateBackupCodes goes through a struct update so the json serializer on
// the column applies; a plain column map would write the slice raw.
func (r *userRepository) UpdateBackupCodes(ctx context.Context, userID uint, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	return r.db.WithContext(ctx).Model(&model.User{ID: userID}).
		Select("two_factor_backup_codes").
		Updates(&model.User{TwoFactorBackupCodes: codes}).Error
}

func (r *userRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, userID).Error
}
