package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/visiontf/authcore/internal/audit"
	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/model"
)

const defaultAuditPageSize = 50

// AdminHandler serves user administration and audit trail queries.
type AdminHandler struct {
	authService *auth.AuthService
	trail       audit.EventRepository
}

func NewAdminHandler(authService *auth.AuthService, trail audit.EventRepository) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		trail:       trail,
	}
}

// PostDeactivateUser disables another account; the acting admin is
// recorded in the audit trail.
func (h *AdminHandler) PostDeactivateUser(ctx *fiber.Ctx) error {
	targetID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return respondError(ctx, fiber.StatusBadRequest, "Invalid user id.")
	}
	actorID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	err = h.authService.DeactivateUserByAdmin(ctx.Context(), actorID, uint(targetID), ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, fiber.Map{"deactivated": true})
}

type auditEventSummary struct {
	ID            uint64          `json:"id"`
	CorrelationID string          `json:"correlationId,omitempty"`
	UserID        *uint           `json:"userId,omitempty"`
	Email         string          `json:"email,omitempty"`
	EventType     string          `json:"eventType"`
	Category      string          `json:"category"`
	Severity      string          `json:"severity"`
	Description   string          `json:"description"`
	Details       json.RawMessage `json:"details,omitempty"`
	IPAddress     string          `json:"ipAddress,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func summarizeAuditEvents(events []model.AuditEvent) []auditEventSummary {
	summaries := make([]auditEventSummary, 0, len(events))
	for _, event := range events {
		summaries = append(summaries, auditEventSummary{
			ID:            event.ID,
			CorrelationID: event.CorrelationID,
			UserID:        event.UserID,
			Email:         event.Email,
			EventType:     event.EventType,
			Category:      event.Category,
			Severity:      event.Severity,
			Description:   event.Description,
			Details:       json.RawMessage(event.Details),
			IPAddress:     event.IPAddress,
			CreatedAt:     event.CreatedAt,
		})
	}
	return summaries
}

// GetAuditEvents lists recent audit events, optionally scoped to one user.
func (h *AdminHandler) GetAuditEvents(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", defaultAuditPageSize)
	offset := ctx.QueryInt("offset")

	if rawUserID := ctx.Query("userId"); rawUserID != "" {
		userID, err := strconv.ParseUint(rawUserID, 10, 64)
		if err != nil {
			return respondError(ctx, fiber.StatusBadRequest, "Invalid userId.")
		}
		events, err := h.trail.ListUserEvents(ctx.Context(), uint(userID), limit, offset)
		if err != nil {
			return respondDomainError(ctx, err)
		}
		return respond(ctx, summarizeAuditEvents(events))
	}

	events, err := h.trail.ListRecent(ctx.Context(), limit)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return respond(ctx, summarizeAuditEvents(events))
}
