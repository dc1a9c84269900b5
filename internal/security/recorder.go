package security

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/visiontf/authcore/internal/audit"
	"github.com/visiontf/authcore/model"
)

// Recorder persists flagged suspicious activity and handles reviewer
// triage. Every record it creates starts as DETECTED and is mirrored into
// the audit trail.
type Recorder struct {
	activities ActivityRepository
	auditLog   *audit.Logger
}

func NewRecorder(activities ActivityRepository, auditLog *audit.Logger) *Recorder {
	return &Recorder{
		activities: activities,
		auditLog:   auditLog,
	}
}

// severityForScore maps a risk score to a triage severity.
func severityForScore(score int) string {
	switch {
	case score >= 80:
		return model.SeverityCritical
	case score >= 60:
		return model.SeverityHigh
	case score >= 40:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func encodeDetails(details map[string]any) []byte {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		slog.Error("Failed to encode activity details", "error", err)
		return nil
	}
	return raw
}

// Record persists one flagged login as a suspicious activity with severity
// derived from the assessment's score.
func (r *Recorder) Record(ctx context.Context, userID *uint, activityType, description string, details map[string]any, lc LoginContext, assessment *RiskAssessment) (*model.SuspiciousActivity, error) {
	activity := &model.SuspiciousActivity{
		ReferenceID:       uuid.NewString(),
		UserID:            userID,
		ActivityType:      activityType,
		Severity:          severityForScore(assessment.Score),
		Status:            model.StatusDetected,
		Description:       description,
		Details:           encodeDetails(details),
		IPAddress:         lc.IPAddress,
		UserAgent:         lc.UserAgent,
		Location:          lc.Location,
		DeviceFingerprint: lc.DeviceFingerprint,
		RiskScore:         assessment.Score,
		Confidence:        assessment.Confidence,
		DetectedAt:        time.Now(),
	}
	if err := r.activities.Create(ctx, activity); err != nil {
		return nil, err
	}

	r.auditLog.SuspiciousActivity(ctx, userID, description, map[string]any{
		"activityId":      activity.ReferenceID,
		"riskScore":       assessment.Score,
		"riskFactors":     assessment.Factors,
		"recommendations": assessment.Recommendations,
	}, lc.IPAddress, lc.UserAgent)

	return activity, nil
}

// UpdateStatus applies one reviewer action: it stamps the requested status,
// the reviewer and the review time. Transitions are deliberately
// unrestricted beyond records starting as DETECTED; the audit entry keeps
// re-reviews visible.
func (r *Recorder) UpdateStatus(ctx context.Context, activityID uint, status string, reviewerID uint, notes string) (*model.SuspiciousActivity, error) {
	activity, err := r.activities.FirstByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	previous := activity.Status

	now := time.Now()
	err = r.activities.Updates(ctx, activityID, map[string]interface{}{
		"status":       status,
		"reviewed_by":  reviewerID,
		"reviewed_at":  now,
		"review_notes": notes,
	})
	if err != nil {
		return nil, err
	}
	activity.Status = status
	activity.ReviewedBy = &reviewerID
	activity.ReviewedAt = &now
	activity.ReviewNotes = notes

	r.auditLog.SuspiciousActivity(ctx, &reviewerID,
		"Suspicious activity status updated to "+status,
		map[string]any{
			"activityId":     activity.ReferenceID,
			"previousStatus": previous,
			"newStatus":      status,
			"reviewNotes":    notes,
		}, "", "")

	return activity, nil
}

// List returns flagged activity, newest detection first, optionally
// filtered by user and status.
func (r *Recorder) List(ctx context.Context, filter ActivityFilter) ([]model.SuspiciousActivity, error) {
	return r.activities.List(ctx, filter)
}

// Stats reports the triage rollup.
func (r *Recorder) Stats(ctx context.Context) (*ActivityStats, error) {
	return r.activities.Stats(ctx)
}
