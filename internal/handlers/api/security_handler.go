package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/security"
	"github.com/visiontf/authcore/model"
)

// SecurityHandler serves the admin triage endpoints over flagged
// suspicious activity.
type SecurityHandler struct {
	recorder *security.Recorder
}

func NewSecurityHandler(recorder *security.Recorder) *SecurityHandler {
	return &SecurityHandler{recorder: recorder}
}

type activitySummary struct {
	ID           string          `json:"id"`
	ReferenceID  string          `json:"referenceId"`
	UserID       *uint           `json:"userId,omitempty"`
	ActivityType string          `json:"activityType"`
	Severity     string          `json:"severity"`
	Status       string          `json:"status"`
	Description  string          `json:"description"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    string          `json:"ipAddress,omitempty"`
	RiskScore    int             `json:"riskScore"`
	Confidence   float64         `json:"confidence"`
	DetectedAt   time.Time       `json:"detectedAt"`
	ReviewedBy   *uint           `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes  string          `json:"reviewNotes,omitempty"`
}

func summarizeActivity(activity *model.SuspiciousActivity) activitySummary {
	return activitySummary{
		ID:           strconv.FormatUint(uint64(activity.ID), 10),
		ReferenceID:  activity.ReferenceID,
		UserID:       activity.UserID,
		ActivityType: activity.ActivityType,
		Severity:     activity.Severity,
		Status:       activity.Status,
		Description:  activity.Description,
		Details:      json.RawMessage(activity.Details),
		IPAddress:    activity.IPAddress,
		RiskScore:    activity.RiskScore,
		Confidence:   activity.Confidence,
		DetectedAt:   activity.DetectedAt,
		ReviewedBy:   activity.ReviewedBy,
		ReviewedAt:   activity.ReviewedAt,
		ReviewNotes:  activity.ReviewNotes,
	}
}

func (h *SecurityHandler) GetActivities(ctx *fiber.Ctx) error {
	filter := security.ActivityFilter{
		Status: ctx.Query("status"),
		Limit:  ctx.QueryInt("limit"),
		Offset: ctx.QueryInt("offset"),
	}
	if rawUserID := ctx.Query("userId"); rawUserID != "" {
		userID, err := strconv.ParseUint(rawUserID, 10, 64)
		if err != nil {
			return respondError(ctx, fiber.StatusBadRequest, "Invalid userId.")
		}
		uid := uint(userID)
		filter.UserID = &uid
	}

	activities, err := h.recorder.List(ctx.Context(), filter)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	summaries := make([]activitySummary, 0, len(activities))
	for i := range activities {
		summaries = append(summaries, summarizeActivity(&activities[i]))
	}
	return respond(ctx, summaries)
}

func (h *SecurityHandler) GetActivityStats(ctx *fiber.Ctx) error {
	stats, err := h.recorder.Stats(ctx.Context())
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{
		"total":      stats.Total,
		"critical":   stats.Critical,
		"unresolved": stats.Unresolved,
	})
}

type activityStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

var allowedStatuses = map[string]bool{
	model.StatusResolved:  true,
	model.StatusDismissed: true,
	model.StatusEscalated: true,
	model.StatusDetected:  true,
}

func (h *SecurityHandler) PostActivityStatus(ctx *fiber.Ctx) error {
	var req activityStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if !allowedStatuses[req.Status] {
		return respondError(ctx, fiber.StatusBadRequest, "Invalid status.")
	}
	activityID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return respondError(ctx, fiber.StatusBadRequest, "Invalid activity id.")
	}
	reviewerID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	activity, err := h.recorder.UpdateStatus(ctx.Context(), uint(activityID), req.Status, reviewerID, req.Notes)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, summarizeActivity(activity))
}
