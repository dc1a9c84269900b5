package security

import (
	"context"
	"strings"
	"time"

	"github.com/visiontf/authcore/model"
	"github.com/visiontf/authcore/params"
)

// RiskAssessment is the outcome of scoring one login attempt. It is purely
// derived from the attempt's context and the pattern history at evaluation
// time: same inputs, same output, factor order included.
type RiskAssessment struct {
	Score           int
	Confidence      float64
	Factors         []string
	Recommendations []string
}

// signals are the gathered inputs the risk rules fold over. Gathering does
// the I/O; the rules themselves are pure.
type signals struct {
	hour           int
	location       string
	knownLocations []string
	userAgent      string
	knownAgents    []string
	recentLogins   int64
	activeSessions int64
}

type contribution struct {
	points     int
	confidence float64
	factor     string
}

// riskRules in evaluation order. The order does not change the sum but
// fixes the factor and recommendation ordering of the output.
var riskRules = []func(sig *signals) contribution{
	loginTimeRule,
	locationRule,
	deviceRule,
	velocityRule,
	concurrencyRule,
}

// loginTimeRule flags logins outside the 06:00–22:00 UTC window. Hours 23
// through 5 all score the same tier; there is no reachable intermediate.
func loginTimeRule(sig *signals) contribution {
	if sig.hour >= 6 && sig.hour <= 22 {
		return contribution{}
	}
	return contribution{points: 25, confidence: 0.3, factor: model.ActivityUnusualLoginTime}
}

// locationRule flags a location that substring-matches none of the user's
// known locations, case-insensitively and in either direction. Without a
// supplied location or any historical one the rule is not evaluable and
// contributes nothing.
func locationRule(sig *signals) contribution {
	if sig.location == "" || len(sig.knownLocations) == 0 {
		return contribution{}
	}
	current := strings.ToLower(sig.location)
	for _, known := range sig.knownLocations {
		known = strings.ToLower(known)
		if strings.Contains(known, current) || strings.Contains(current, known) {
			return contribution{}
		}
	}
	return contribution{points: 30, confidence: 0.4, factor: model.ActivityUnusualLocation}
}

// deviceRule flags a browser family never seen in the user's history.
func deviceRule(sig *signals) contribution {
	if len(sig.knownAgents) == 0 {
		return contribution{}
	}
	family := browserFamily(sig.userAgent)
	for _, known := range sig.knownAgents {
		if browserFamily(known) == family {
			return contribution{}
		}
	}
	return contribution{points: 20, confidence: 0.3, factor: model.ActivityUnusualDevice}
}

func velocityRule(sig *signals) contribution {
	if sig.recentLogins > 3 {
		return contribution{points: 40, confidence: 0.5, factor: model.ActivityRapidLoginAttempts}
	}
	if sig.recentLogins > 1 {
		return contribution{points: 20, confidence: 0.5, factor: model.ActivityRapidLoginAttempts}
	}
	return contribution{}
}

func concurrencyRule(sig *signals) contribution {
	if sig.activeSessions > 3 {
		return contribution{points: 35, confidence: 0.4, factor: model.ActivityConcurrentLogins}
	}
	if sig.activeSessions > 1 {
		return contribution{points: 15, confidence: 0.4, factor: model.ActivityConcurrentLogins}
	}
	return contribution{}
}

// browserFamily extracts a coarse browser family for device comparison.
// First match wins, so an Edge user agent (which also contains "Chrome")
// classifies as Chrome; the comparison only has to be stable, not exact.
func browserFamily(userAgent string) string {
	for _, family := range []string{"Chrome", "Firefox", "Safari", "Edge"} {
		if strings.Contains(userAgent, family) {
			return family
		}
	}
	return "Unknown"
}

var factorAdvisories = map[string]string{
	model.ActivityUnusualLoginTime:   "Verify if this login time is expected for the user",
	model.ActivityUnusualLocation:    "Check if the user is traveling or if this location is legitimate",
	model.ActivityUnusualDevice:      "Verify if the user has a new device or if this is suspicious",
	model.ActivityRapidLoginAttempts: "Monitor for potential account takeover attempts",
	model.ActivityConcurrentLogins:   "Review active sessions and consider terminating suspicious ones",
}

// assess folds the rules over the signals. Pure.
func assess(sig *signals) *RiskAssessment {
	var (
		score      int
		confidence float64
		factors    []string
	)
	for _, rule := range riskRules {
		result := rule(sig)
		if result.points == 0 {
			continue
		}
		score += result.points
		confidence += result.confidence
		factors = append(factors, result.factor)
	}
	if score > 100 {
		score = 100
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	var recommendations []string
	for _, factor := range factors {
		recommendations = append(recommendations, factorAdvisories[factor])
	}
	if score > 50 {
		recommendations = append(recommendations, "Consider requiring additional authentication (2FA, email verification)")
	}
	if score > 70 {
		recommendations = append(recommendations, "Immediately investigate and potentially lock the account")
	}

	return &RiskAssessment{
		Score:           score,
		Confidence:      confidence,
		Factors:         factors,
		Recommendations: recommendations,
	}
}

// LoginCounter counts audit events of one type for a user in a window.
// Satisfied by the audit event repository.
type LoginCounter interface {
	CountUserEvents(ctx context.Context, userID uint, eventType string, since time.Time) (int64, error)
}

// SessionCounter reports a user's live session count. Satisfied by the
// session service.
type SessionCounter interface {
	CountActive(ctx context.Context, userID uint) (int64, error)
}

// RiskAssessor scores login attempts against the user's pattern history,
// recent login velocity and concurrent session count.
type RiskAssessor struct {
	patterns *PatternTracker
	logins   LoginCounter
	sessions SessionCounter
}

func NewRiskAssessor(patterns *PatternTracker, logins LoginCounter, sessions SessionCounter) *RiskAssessor {
	return &RiskAssessor{
		patterns: patterns,
		logins:   logins,
		sessions: sessions,
	}
}

// AnalyzeLogin scores the attempt and then records it in the pattern
// history. Recording is unconditional: the history grows on every login
// that reaches this stage, flagged or not. The velocity count includes the
// attempt being scored, so the fourth login inside the window already hits
// the top tier. The pattern update never influences the assessment it
// accompanies.
func (a *RiskAssessor) AnalyzeLogin(ctx context.Context, lc LoginContext) (*RiskAssessment, error) {
	history, err := a.patterns.UserPatterns(ctx, lc.UserID)
	if err != nil {
		return nil, err
	}

	sig := &signals{
		hour:      lc.Timestamp.UTC().Hour(),
		location:  lc.Location,
		userAgent: lc.UserAgent,
	}
	for _, pattern := range history {
		if pattern.Location != "" {
			sig.knownLocations = append(sig.knownLocations, pattern.Location)
		}
		if pattern.UserAgent != "" {
			sig.knownAgents = append(sig.knownAgents, pattern.UserAgent)
		}
	}

	priorLogins, err := a.logins.CountUserEvents(ctx, lc.UserID, model.EventUserLogin, lc.Timestamp.Add(-params.RapidLoginWindow))
	if err != nil {
		return nil, err
	}
	// the attempt being scored has not reached the audit trail yet
	sig.recentLogins = priorLogins + 1
	sig.activeSessions, err = a.sessions.CountActive(ctx, lc.UserID)
	if err != nil {
		return nil, err
	}

	assessment := assess(sig)

	if err := a.patterns.RecordLogin(ctx, lc); err != nil {
		return nil, err
	}
	return assessment, nil
}
