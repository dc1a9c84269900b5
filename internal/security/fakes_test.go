package security

import (
	"context"
	"sync"
	"time"

	"github.com/visiontf/authcore/model"
)

// fakePatternRepo is an in-memory PatternRepository keyed the way the
// unique index is.
type fakePatternRepo struct {
	mu       sync.Mutex
	patterns []*model.LoginPattern
}

func (r *fakePatternRepo) find(userID uint, ip, hash string) *model.LoginPattern {
	for _, p := range r.patterns {
		if p.UserID == userID && p.IPAddress == ip && p.UserAgentHash == hash {
			return p
		}
	}
	return nil
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
	if r.find(pattern.UserID, pattern.IPAddress, pattern.UserAgentHash) != nil {
		return errDuplicatePattern
	}
	copied := *pattern
	r.patterns = append(r.patterns, &copied)
	return nil
}

func (r *fakePatternRepo) IncrementLogin(ctx context.Context, userID uint, ipAddress, userAgentHash string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(userID, ipAddress, userAgentHash); p != nil {
		p.LoginCount++
		p.LastSeenAt = at
		return 1, nil
	}
	return 0, nil
}

// fakeActivityRepo is an in-memory ActivityRepository.
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
	return nil, ErrActivityNotFound
}

func (r *fakeActivityRepo) Updates(ctx context.Context, activityID uint, columns map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.activities {
		if a.ID != activityID {
			continue
		}
		if status, ok := columns["status"].(string); ok {
			a.Status = status
		}
		if reviewer, ok := columns["reviewed_by"].(uint); ok {
			a.ReviewedBy = &reviewer
		}
		if at, ok := columns["reviewed_at"].(time.Time); ok {
			a.ReviewedAt = &at
		}
		if notes, ok := columns["review_notes"].(string); ok {
			a.ReviewNotes = notes
		}
		return nil
	}
	return ErrActivityNotFound
}

func (r *fakeActivityRepo) List(ctx context.Context, filter ActivityFilter) ([]model.SuspiciousActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []model.SuspiciousActivity
	for _, a := range r.activities {
		if filter.UserID != nil && (a.UserID == nil || *a.UserID != *filter.UserID) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		found = append(found, *a)
	}
	return found, nil
}

func (r *fakeActivityRepo) Stats(ctx context.Context) (*ActivityStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &ActivityStats{}
	for _, a := range r.activities {
		stats.Total++
		if a.Severity == model.SeverityCritical {
			stats.Critical++
		}
		if a.Status == model.StatusDetected {
			stats.Unresolved++
		}
	}
	return stats, nil
}

// fakeTrail is an in-memory audit event store. It backs the audit logger,
// the LoginCounter and the EventLister sides of the tests at once.
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

// fakeSessionCounter answers CountActive with a fixed number.
type fakeSessionCounter struct {
	active int64
}

func (c *fakeSessionCounter) CountActive(ctx context.Context, userID uint) (int64, error) {
	return c.active, nil
}
