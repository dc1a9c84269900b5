package security

import (
	"context"
	"errors"

	"github.com/visiontf/authcore/model"
)

// PatternTracker maintains one LoginPattern row per (user, IP, user-agent)
// combination: first sighting creates the row, every later login from the
// same combination bumps the counter and the last-seen timestamp.
type PatternTracker struct {
	repo PatternRepository
}

func NewPatternTracker(repo PatternRepository) *PatternTracker {
	return &PatternTracker{repo: repo}
}

// UserPatterns lists the user's known patterns, most recently seen first.
func (t *PatternTracker) UserPatterns(ctx context.Context, userID uint) ([]model.LoginPattern, error) {
	return t.repo.FindByUser(ctx, userID)
}

// RecordLogin upserts the pattern for the attempt. Increment-first keeps
// the common case a single statement; when two first logins from the same
// combination race, the loser of the insert falls back to incrementing the
// winner's row.
func (t *PatternTracker) RecordLogin(ctx context.Context, lc LoginContext) error {
	hash := model.HashUserAgent(lc.UserAgent)
	updated, err := t.repo.IncrementLogin(ctx, lc.UserID, lc.IPAddress, hash, lc.Timestamp)
	if err != nil {
		return err
	}
	if updated > 0 {
		return nil
	}
	err = t.repo.Create(ctx, &model.LoginPattern{
		UserID:            lc.UserID,
		IPAddress:         lc.IPAddress,
		UserAgent:         lc.UserAgent,
		UserAgentHash:     hash,
		Location:          lc.Location,
		DeviceFingerprint: lc.DeviceFingerprint,
		LoginCount:        1,
		FirstSeenAt:       lc.Timestamp,
		LastSeenAt:        lc.Timestamp,
	})
	if errors.Is(err, errDuplicatePattern) {
		_, err = t.repo.IncrementLogin(ctx, lc.UserID, lc.IPAddress, hash, lc.Timestamp)
	}
	return err
}
