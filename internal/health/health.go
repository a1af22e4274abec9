// Package health provides pure functions for promoter document-expiry
// classification and roster aggregation. These functions have ZERO
// dependencies on HTTP, database, or any other infrastructure — making
// them trivially testable and reusable.
package health

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ── Document Status Constants ────────────────────────────────────
// Status is always computed from (expiryDate, warnDays, now).
// It is never stored in the database.

const (
	StatusMissing  = "missing"  // No expiry date on file (or unparsable)
	StatusExpired  = "expired"  // Expiry date strictly before today
	StatusExpiring = "expiring" // Within the warning window (inclusive of today)
	StatusValid    = "valid"    // Expiry beyond the warning window
)

// ── Overall Status Constants ─────────────────────────────────────

const (
	OverallInactive = "inactive" // Lifecycle status overrides document health
	OverallCritical = "critical" // At least one document expired
	OverallWarning  = "warning"  // At least one document expiring or missing
	OverallActive   = "active"   // All documents valid
)

// ── Warning Thresholds ───────────────────────────────────────────
// Defaults reflect renewal lead times in Oman: passports need embassy
// processing, ID cards renew at the civil status office.

const (
	DefaultIDCardWarnDays   = 30
	DefaultPassportWarnDays = 90
)

// inactiveStatuses are the lifecycle values that force the overall
// status to inactive regardless of document health.
var inactiveStatuses = map[string]bool{
	"inactive":   true,
	"terminated": true,
	"resigned":   true,
	"on_leave":   true,
	"suspended":  true,
}

// customDateLayout is the display format used in "Valid until" labels.
const customDateLayout = "02/01/2006"

// ── Document Health ──────────────────────────────────────────────

// DocumentHealth is the classification result for a single document.
type DocumentHealth struct {
	Status        string `json:"status"`                  // "missing" | "expired" | "expiring" | "valid"
	DaysRemaining *int   `json:"daysRemaining,omitempty"` // expired: days overdue (>= 0); expiring/valid: days left; nil when missing
	Label         string `json:"label"`                   // display only, never used for logic
}

// Classify derives the health of a document from its expiry date.
// Parameters:
//   - expiryDate: the document's expiry date (nil → missing)
//   - warnDays:   warning window in days before expiry, per document type
//   - now:        current time (injected for testability)
//
// Comparison is calendar-day granular: time-of-day is normalized away,
// so a document expiring today classifies as expiring with 0 days left.
func Classify(expiryDate *time.Time, warnDays int, now time.Time) DocumentHealth {
	if expiryDate == nil {
		return DocumentHealth{Status: StatusMissing, Label: "No document"}
	}

	today := truncateToDay(now)
	expiry := truncateToDay(*expiryDate)
	signedDays := int(expiry.Sub(today).Hours() / 24)

	switch {
	case signedDays < 0:
		overdue := -signedDays
		return DocumentHealth{
			Status:        StatusExpired,
			DaysRemaining: &overdue,
			Label:         fmt.Sprintf("Expired %d days ago", overdue),
		}
	case signedDays <= warnDays:
		return DocumentHealth{
			Status:        StatusExpiring,
			DaysRemaining: &signedDays,
			Label:         fmt.Sprintf("Expires in %d days", signedDays),
		}
	default:
		return DocumentHealth{
			Status:        StatusValid,
			DaysRemaining: &signedDays,
			Label:         "Valid until " + expiry.Format(customDateLayout),
		}
	}
}

// ClassifyRaw parses a YYYY-MM-DD date string and classifies it.
// Any unparsable or empty value degrades to missing — dirty data must
// never break a dashboard read.
func ClassifyRaw(raw string, warnDays int, now time.Time) DocumentHealth {
	if strings.TrimSpace(raw) == "" {
		return Classify(nil, warnDays, now)
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return Classify(nil, warnDays, now)
	}
	return Classify(&t, warnDays, now)
}

// ── Overall Status ───────────────────────────────────────────────

// Aggregate combines a promoter's lifecycle status with the health of
// the ID card and passport into one overall status. The precedence
// chain is fixed — first matching rule wins:
//  1. absent or inactive-like lifecycle → inactive
//  2. either document expired → critical
//  3. either document expiring or missing → warning
//  4. otherwise → active
//
// A missing document ranks with expiring (warning, not critical).
func Aggregate(lifecycle string, idCard, passport DocumentHealth) string {
	if lifecycle == "" || inactiveStatuses[strings.ToLower(lifecycle)] {
		return OverallInactive
	}
	if idCard.Status == StatusExpired || passport.Status == StatusExpired {
		return OverallCritical
	}
	if idCard.Status == StatusExpiring || passport.Status == StatusExpiring ||
		idCard.Status == StatusMissing || passport.Status == StatusMissing {
		return OverallWarning
	}
	return OverallActive
}

// ── Roster Aggregation ───────────────────────────────────────────

// RosterEntry is one classified promoter record, the unit Summarize
// consumes. Callers pair each promoter with its computed health before
// aggregating.
type RosterEntry struct {
	Overall    string
	IDCard     DocumentHealth
	Passport   DocumentHealth
	EmployerID *string
	CreatedAt  *time.Time
}

// Metrics holds roster-level dashboard statistics.
type Metrics struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Critical       int `json:"critical"`
	Warning        int `json:"warning"`
	Inactive       int `json:"inactive"`
	Unassigned     int `json:"unassigned"`
	Employers      int `json:"employers"`      // distinct employer organizations
	RecentlyAdded  int `json:"recentlyAdded"`  // created within the last 7 days
	ComplianceRate int `json:"complianceRate"` // % of promoters with both docs valid
}

// Summarize computes roster metrics in a single pass. The result does
// not depend on input order — every aggregate is a commutative count.
// ComplianceRate is 0 for an empty roster (never divides by zero).
func Summarize(entries []RosterEntry, now time.Time) Metrics {
	m := Metrics{Total: len(entries)}

	employers := map[string]struct{}{}
	recentCutoff := truncateToDay(now).AddDate(0, 0, -7)
	compliant := 0

	for _, e := range entries {
		switch e.Overall {
		case OverallActive:
			m.Active++
		case OverallCritical:
			m.Critical++
		case OverallWarning:
			m.Warning++
		case OverallInactive:
			m.Inactive++
		}

		if e.EmployerID == nil || *e.EmployerID == "" {
			m.Unassigned++
		} else {
			employers[*e.EmployerID] = struct{}{}
		}

		if e.CreatedAt != nil && !truncateToDay(*e.CreatedAt).Before(recentCutoff) {
			m.RecentlyAdded++
		}

		if e.IDCard.Status == StatusValid && e.Passport.Status == StatusValid {
			compliant++
		}
	}

	m.Employers = len(employers)
	if m.Total > 0 {
		m.ComplianceRate = int(math.Round(float64(compliant) / float64(m.Total) * 100))
	}

	return m
}

// ── Data Completeness ────────────────────────────────────────────

// CompletenessWeights assigns a percentage weight to each tracked
// field. The defaults are a product decision, not an invariant, so
// they are configurable per deployment.
type CompletenessWeights struct {
	Email      int `json:"email"`
	Phone      int `json:"phone"`
	IDCard     int `json:"idCard"`
	Passport   int `json:"passport"`
	Assignment int `json:"assignment"`
}

// DefaultCompletenessWeights sum to 100.
var DefaultCompletenessWeights = CompletenessWeights{
	Email:      25,
	Phone:      15,
	IDCard:     30,
	Passport:   20,
	Assignment: 10,
}

// CompletenessInput flags which profile fields a promoter has filled.
type CompletenessInput struct {
	HasEmail    bool
	HasPhone    bool
	HasIDCard   bool
	HasPassport bool
	Assigned    bool
}

// Completeness scores a promoter's data completeness as a percentage.
func Completeness(in CompletenessInput, w CompletenessWeights) int {
	score := 0
	if in.HasEmail {
		score += w.Email
	}
	if in.HasPhone {
		score += w.Phone
	}
	if in.HasIDCard {
		score += w.IDCard
	}
	if in.HasPassport {
		score += w.Passport
	}
	if in.Assigned {
		score += w.Assignment
	}
	return score
}

// ── Display Name ─────────────────────────────────────────────────

// DisplayName resolves a promoter's display name from its possibly
// absent source fields. Fallback order: English name, Arabic name,
// "first last", email, then a fixed placeholder. Centralized here so
// every caller resolves names identically.
func DisplayName(nameEn, nameAr, firstName, lastName, email string) string {
	if s := strings.TrimSpace(nameEn); s != "" {
		return s
	}
	if s := strings.TrimSpace(nameAr); s != "" {
		return s
	}
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full != "" {
		return full
	}
	if s := strings.TrimSpace(email); s != "" {
		return s
	}
	return "Unnamed Promoter"
}

// ── Internal Helpers ─────────────────────────────────────────────

// truncateToDay maps a timestamp to its calendar date as UTC midnight.
// Stored expiry dates parse as UTC while callers pass time.Now() in the
// server's zone; normalizing both sides to the same frame keeps day
// differences exact multiples of 24h regardless of deployment zone.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
