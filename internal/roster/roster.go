// Package roster provides pure filter and sort routines over
// classified promoter lists. Like the health package it performs no
// I/O; handlers fetch rows, classify them, and hand them here.
package roster

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"promoter-backend/internal/health"
	"promoter-backend/internal/models"
)

// FilterAll is the no-constraint value for categorical filters.
const FilterAll = "all"

// Filters holds the combined list constraints. Every active filter is
// ANDed; zero values (empty search, "all") match everything.
type Filters struct {
	Search     string // case-insensitive substring across searchable fields
	Status     string // overall status: all|active|warning|critical|inactive
	Document   string // document health: all|valid|expiring|expired|missing
	Assignment string // all|assigned|unassigned
}

// Sortable field and order values accepted by Sort.
const (
	SortByName      = "name"
	SortByStatus    = "status"
	SortByCreated   = "created"
	SortByDocuments = "documents"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// severityRank orders overall statuses worst-first for status sorting.
var severityRank = map[string]int{
	health.OverallCritical: 0,
	health.OverallWarning:  1,
	health.OverallActive:   2,
	health.OverallInactive: 3,
}

// Filter returns the promoters matching all active filters. Input
// order is preserved; the input slice is never mutated.
func Filter(rows []models.PromoterWithHealth, f Filters) []models.PromoterWithHealth {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.PromoterWithHealth, 0, len(rows))
	for _, r := range rows {
		if search != "" && !matchesSearch(&r, search) {
			continue
		}
		if !matchesCategory(f.Status, r.OverallStatus) {
			continue
		}
		if f.Document != "" && f.Document != FilterAll &&
			r.IDCardHealth.Status != f.Document && r.PassportHealth.Status != f.Document {
			continue
		}
		if !matchesCategory(f.Assignment, r.AssignmentStatus) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchesSearch checks the fixed searchable field set: display name,
// email, phone, employer label, and job title.
func matchesSearch(r *models.PromoterWithHealth, search string) bool {
	fields := []string{r.DisplayName}
	if r.Email != nil {
		fields = append(fields, *r.Email)
	}
	if r.Mobile != nil {
		fields = append(fields, *r.Mobile)
	}
	if r.EmployerName != nil {
		fields = append(fields, *r.EmployerName)
	}
	if r.JobTitle != nil {
		fields = append(fields, *r.JobTitle)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func matchesCategory(filter, value string) bool {
	return filter == "" || filter == FilterAll || filter == value
}

// Sort returns a stably sorted copy of rows. Unknown fields fall back
// to name; any order other than "desc" sorts ascending.
func Sort(rows []models.PromoterWithHealth, field, order string) []models.PromoterWithHealth {
	out := make([]models.PromoterWithHealth, len(rows))
	copy(out, rows)

	var less func(a, b *models.PromoterWithHealth) int
	switch field {
	case SortByStatus:
		less = compareStatus
	case SortByCreated:
		less = compareCreated
	case SortByDocuments:
		less = compareDocuments
	default:
		less = nameComparator()
	}

	desc := order == OrderDesc
	sort.SliceStable(out, func(i, j int) bool {
		c := less(&out[i], &out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// nameComparator builds a locale-aware, case-insensitive collator.
// Bare byte comparison misorders accented latin names common in the
// roster, so collation is not optional here.
func nameComparator() func(a, b *models.PromoterWithHealth) int {
	c := collate.New(language.English, collate.Loose)
	return func(a, b *models.PromoterWithHealth) int {
		return c.CompareString(a.DisplayName, b.DisplayName)
	}
}

// compareStatus ranks worst-first: critical < warning < active < inactive.
func compareStatus(a, b *models.PromoterWithHealth) int {
	ra, ok := severityRank[a.OverallStatus]
	if !ok {
		ra = len(severityRank)
	}
	rb, ok := severityRank[b.OverallStatus]
	if !ok {
		rb = len(severityRank)
	}
	return ra - rb
}

// compareCreated orders by creation timestamp. Zero timestamps compare
// equal to each other rather than panicking on bad data.
func compareCreated(a, b *models.PromoterWithHealth) int {
	at, bt := a.CreatedAt, b.CreatedAt
	switch {
	case at.Equal(bt):
		return 0
	case at.Before(bt):
		return -1
	default:
		return 1
	}
}

// compareDocuments orders by the nearest document deadline:
// min(idCard.daysRemaining, passport.daysRemaining), with missing
// documents treated as +infinity so they sort last ascending.
func compareDocuments(a, b *models.PromoterWithHealth) int {
	da := minDaysRemaining(a)
	db := minDaysRemaining(b)
	switch {
	case da == db:
		return 0
	case da < db:
		return -1
	default:
		return 1
	}
}

const maxDays = int(^uint(0) >> 1)

func minDaysRemaining(r *models.PromoterWithHealth) int {
	min := maxDays
	for _, h := range []health.DocumentHealth{r.IDCardHealth, r.PassportHealth} {
		if h.DaysRemaining != nil && *h.DaysRemaining < min {
			min = *h.DaysRemaining
		}
	}
	return min
}

// Classify pairs a raw promoter row with its computed health fields.
// This is the single place where raw records become classified rows,
// so every handler derives status, names, and completeness identically.
func Classify(p models.Promoter, employerName *string, settings models.ComplianceSettings, now time.Time) models.PromoterWithHealth {
	row := models.PromoterWithHealth{
		Promoter:     p,
		EmployerName: employerName,
	}

	row.DisplayName = health.DisplayName(
		deref(p.NameEn), deref(p.NameAr), p.FirstName, p.LastName, deref(p.Email),
	)

	row.IDCardHealth = health.ClassifyRaw(deref(p.IDCardExpiryDate), settings.IDCardWarnDays, now)
	row.PassportHealth = health.ClassifyRaw(deref(p.PassportExpiryDate), settings.PassportWarnDays, now)
	row.OverallStatus = health.Aggregate(p.Status, row.IDCardHealth, row.PassportHealth)

	row.AssignmentStatus = "unassigned"
	if p.EmployerID != nil && *p.EmployerID != "" {
		row.AssignmentStatus = "assigned"
	}

	row.Completeness = health.Completeness(health.CompletenessInput{
		HasEmail:    deref(p.Email) != "",
		HasPhone:    deref(p.Mobile) != "",
		HasIDCard:   row.IDCardHealth.Status != health.StatusMissing,
		HasPassport: row.PassportHealth.Status != health.StatusMissing,
		Assigned:    row.AssignmentStatus == "assigned",
	}, settings.Weights)

	return row
}

// Entries converts classified rows into the aggregation input the
// health package consumes.
func Entries(rows []models.PromoterWithHealth) []health.RosterEntry {
	entries := make([]health.RosterEntry, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		created := r.CreatedAt
		entries = append(entries, health.RosterEntry{
			Overall:    r.OverallStatus,
			IDCard:     r.IDCardHealth,
			Passport:   r.PassportHealth,
			EmployerID: r.EmployerID,
			CreatedAt:  &created,
		})
	}
	return entries
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
