package security

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/visiontf/authcore/model"
)

// ActivityFilter narrows List; zero values mean no constraint.
type ActivityFilter struct {
	UserID *uint
	Status string
	Limit  int
	Offset int
}

// ActivityStats is the triage dashboard rollup.
type ActivityStats struct {
	Total      int64
	Critical   int64
	Unresolved int64
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.SuspiciousActivity) error
	FirstByID(ctx context.Context, activityID uint) (*model.SuspiciousActivity, error)
	Updates(ctx context.Context, activityID uint, columns map[string]interface{}) error
	List(ctx context.Context, filter ActivityFilter) ([]model.SuspiciousActivity, error)
	Stats(ctx context.Context) (*ActivityStats, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.SuspiciousActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) FirstByID(ctx context.Context, activityID uint) (*model.SuspiciousActivity, error) {
	var activity model.SuspiciousActivity
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", activityID).First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) Updates(ctx context.Context, activityID uint, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SuspiciousActivity{}).
		Where("id = ?", activityID).
		Updates(columns).Error
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]model.SuspiciousActivity, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var activities []model.SuspiciousActivity
	err := query.Order("detected_at DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) Stats(ctx context.Context) (*ActivityStats, error) {
	var stats ActivityStats
	db := r.db.WithContext(ctx).Model(&model.SuspiciousActivity{})
	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	db = r.db.WithContext(ctx).Model(&model.SuspiciousActivity{})
	if err := db.Where("severity = ?", model.SeverityCritical).Count(&stats.Critical).Error; err != nil {
		return nil, err
	}
	db = r.db.WithContext(ctx).Model(&model.SuspiciousActivity{})
	if err := db.Where("status = ?", model.StatusDetected).Count(&stats.Unresolved).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
