package security

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/visiontf/authcore/model"
)

var errDuplicatePattern = errors.New("login pattern already exists")

// PatternRepository persists the per-user rolling set of known
// (IP, user-agent) combinations.
type PatternRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]model.LoginPattern, error)
	Create(ctx context.Context, pattern *model.LoginPattern) error
	IncrementLogin(ctx context.Context, userID uint, ipAddress, userAgentHash string, at time.Time) (int64, error)
}

type patternRepository struct {
	db *gorm.DB
}

func NewPatternRepository(db *gorm.DB) PatternRepository {
	return &patternRepository{db: db}
}

func (r *patternRepository) FindByUser(ctx context.Context, userID uint) ([]model.LoginPattern, error) {
	var patterns []model.LoginPattern
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		Find(&patterns).Error
	return patterns, err
}

func (r *patternRepository) Create(ctx context.Context, pattern *model.LoginPattern) error {
	err := r.db.WithContext(ctx).Create(pattern).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return errDuplicatePattern
	}
	return err
}

func (r *patternRepository) IncrementLogin(ctx context.Context, userID uint, ipAddress, userAgentHash string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.LoginPattern{}).
		Where("user_id = ? AND ip_address = ? AND user_agent_hash = ?", userID, ipAddress, userAgentHash).
		Updates(map[string]interface{}{
			"login_count":  gorm.Expr("login_count + 1"),
			"last_seen_at": at,
		})
	return result.RowsAffected, result.Error
}
