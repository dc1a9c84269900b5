package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/visiontf/authcore/model"
)

// EventRepository is the audit trail: append-only writes plus the
// time-window queries the risk rules and attack detectors run.
type EventRepository interface {
	RecordEvent(ctx context.Context, event *model.AuditEvent) error
	CountUserEvents(ctx context.Context, userID uint, eventType string, since time.Time) (int64, error)
	CountIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) (int64, error)
	ListIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) ([]model.AuditEvent, error)
	ListEventsSince(ctx context.Context, eventType string, since time.Time) ([]model.AuditEvent, error)
	ListUserEvents(ctx context.Context, userID uint, limit, offset int) ([]model.AuditEvent, error)
	ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) RecordEvent(ctx context.Context, event *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) CountUserEvents(ctx context.Context, userID uint, eventType string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuditEvent{}).
		Where("user_id = ? AND event_type = ? AND created_at >= ?", userID, eventType, since).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) CountIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuditEvent{}).
		Where("ip_address = ? AND event_type = ? AND created_at >= ?", ipAddress, eventType, since).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) ListIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("ip_address = ? AND event_type = ? AND created_at >= ?", ipAddress, eventType, since).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListEventsSince(ctx context.Context, eventType string, since time.Time) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("event_type = ? AND created_at >= ?", eventType, since).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListUserEvents(ctx context.Context, userID uint, limit, offset int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
