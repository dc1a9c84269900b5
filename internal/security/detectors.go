package security

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/visiontf/authcore/model"
	"github.com/visiontf/authcore/params"
)

// EventLister reads back failed-login events from the audit trail.
// Satisfied by the audit event repository.
type EventLister interface {
	CountIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) (int64, error)
	ListIPEvents(ctx context.Context, ipAddress string, eventType string, since time.Time) ([]model.AuditEvent, error)
	ListEventsSince(ctx context.Context, eventType string, since time.Time) ([]model.AuditEvent, error)
}

// AttackDetector scans the audit trail for brute-force and password-spray
// patterns. Each call re-evaluates its trailing window independently: while
// an attack window persists, repeated calls create repeated records. That
// is a documented property, not a bug.
type AttackDetector struct {
	trail    EventLister
	recorder *Recorder
}

func NewAttackDetector(trail EventLister, recorder *Recorder) *AttackDetector {
	return &AttackDetector{
		trail:    trail,
		recorder: recorder,
	}
}

func distinctEmails(events []model.AuditEvent) []string {
	seen := make(map[string]struct{})
	var emails []string
	for _, event := range events {
		if event.Email == "" {
			continue
		}
		if _, ok := seen[event.Email]; ok {
			continue
		}
		seen[event.Email] = struct{}{}
		emails = append(emails, event.Email)
	}
	return emails
}

func (d *AttackDetector) recordAttack(ctx context.Context, activity *model.SuspiciousActivity, details map[string]any) error {
	activity.ReferenceID = uuid.NewString()
	activity.Status = model.StatusDetected
	activity.Details = encodeDetails(details)
	activity.DetectedAt = time.Now()
	if err := d.recorder.activities.Create(ctx, activity); err != nil {
		return err
	}
	d.recorder.auditLog.SuspiciousActivity(ctx, nil, activity.Description, details, activity.IPAddress, "")
	return nil
}

// DetectBruteForce flags the IP when it produced at least
// params.BruteForceAttemptThreshold failed logins in the trailing window.
// The record is IP-scoped and carries no user id.
func (d *AttackDetector) DetectBruteForce(ctx context.Context, ipAddress string) (*model.SuspiciousActivity, error) {
	since := time.Now().Add(-params.BruteForceWindow)
	count, err := d.trail.CountIPEvents(ctx, ipAddress, model.EventLoginFailed, since)
	if err != nil {
		return nil, err
	}
	// runs on every failed login; the events are only read back once the
	// threshold is crossed
	if count < params.BruteForceAttemptThreshold {
		return nil, nil
	}

	attempts, err := d.trail.ListIPEvents(ctx, ipAddress, model.EventLoginFailed, since)
	if err != nil {
		return nil, err
	}

	activity := &model.SuspiciousActivity{
		ActivityType: model.ActivityBruteForceAttack,
		Severity:     model.SeverityHigh,
		Description:  fmt.Sprintf("Brute force attack detected from IP: %s", ipAddress),
		IPAddress:    ipAddress,
		RiskScore:    85,
		Confidence:   0.9,
	}
	details := map[string]any{
		"failedAttempts": len(attempts),
		"timeWindow":     "15 minutes",
		"affectedEmails": distinctEmails(attempts),
	}
	if err := d.recordAttack(ctx, activity, details); err != nil {
		return nil, err
	}
	return activity, nil
}

// DetectPasswordSpray sweeps the whole trailing window, groups failed
// logins by source IP and flags every IP that targeted at least
// params.PasswordSprayMinEmails distinct accounts with at least
// params.PasswordSprayMinAttempts attempts. The sweep scans across users
// and must be run one instance at a time; the maintenance loop serializes
// it with a store lock.
func (d *AttackDetector) DetectPasswordSpray(ctx context.Context) ([]model.SuspiciousActivity, error) {
	since := time.Now().Add(-params.PasswordSprayWindow)
	attempts, err := d.trail.ListEventsSince(ctx, model.EventLoginFailed, since)
	if err != nil {
		return nil, err
	}

	byIP := make(map[string][]model.AuditEvent)
	for _, attempt := range attempts {
		ip := attempt.IPAddress
		if ip == "" {
			ip = "unknown"
		}
		byIP[ip] = append(byIP[ip], attempt)
	}
	ips := make([]string, 0, len(byIP))
	for ip := range byIP {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	var flagged []model.SuspiciousActivity
	for _, ip := range ips {
		ipAttempts := byIP[ip]
		emails := distinctEmails(ipAttempts)
		if len(emails) < params.PasswordSprayMinEmails || len(ipAttempts) < params.PasswordSprayMinAttempts {
			continue
		}
		activity := &model.SuspiciousActivity{
			ActivityType: model.ActivityPasswordSprayAttack,
			Severity:     model.SeverityCritical,
			Description:  fmt.Sprintf("Password spray attack detected from IP: %s", ip),
			IPAddress:    ip,
			RiskScore:    95,
			Confidence:   0.95,
		}
		details := map[string]any{
			"uniqueEmails":   len(emails),
			"totalAttempts":  len(ipAttempts),
			"timeWindow":     "30 minutes",
			"affectedEmails": emails,
		}
		if err := d.recordAttack(ctx, activity, details); err != nil {
			return flagged, err
		}
		flagged = append(flagged, *activity)
	}
	return flagged, nil
}
