package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promoter-backend/internal/health"
	"promoter-backend/internal/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// makeRow builds a classified row via the real Classify path, so
// filter/sort tests exercise the same data shape handlers produce.
func makeRow(t *testing.T, name, email, status string, idExpiry, passportExpiry string, employerID *string) models.PromoterWithHealth {
	t.Helper()
	p := models.Promoter{
		ID:         "id-" + name,
		EmployerID: employerID,
		FirstName:  name,
		LastName:   "Test",
		Status:     status,
		CreatedAt:  now.AddDate(0, 0, -10),
	}
	if email != "" {
		p.Email = strPtr(email)
	}
	if idExpiry != "" {
		p.IDCardExpiryDate = strPtr(idExpiry)
	}
	if passportExpiry != "" {
		p.PassportExpiryDate = strPtr(passportExpiry)
	}
	var employerName *string
	if employerID != nil {
		employerName = strPtr("Employer " + *employerID)
	}
	return Classify(p, employerName, models.DefaultComplianceSettings(), now)
}

func names(rows []models.PromoterWithHealth) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.FirstName
	}
	return out
}

func sampleRoster(t *testing.T) []models.PromoterWithHealth {
	t.Helper()
	empA := strPtr("a")
	return []models.PromoterWithHealth{
		// valid docs, assigned → active
		makeRow(t, "Amal", "amal@example.om", "active", "2026-06-15", "2026-06-15", empA),
		// expired id card → critical
		makeRow(t, "Badr", "badr@example.om", "active", "2025-06-01", "2026-06-15", empA),
		// expiring passport → warning, unassigned
		makeRow(t, "Dana", "dana@example.om", "active", "2026-06-15", "2025-07-01", nil),
		// terminated → inactive
		makeRow(t, "Eman", "eman@example.om", "terminated", "2026-06-15", "2026-06-15", empA),
		// missing both docs → warning
		makeRow(t, "Codi", "codi@example.om", "active", "", "", nil),
	}
}

func TestFilterEmptyIsIdentity(t *testing.T) {
	rows := sampleRoster(t)

	got := Filter(rows, Filters{})
	assert.Equal(t, names(rows), names(got))

	got = Filter(rows, Filters{Status: FilterAll, Document: FilterAll, Assignment: FilterAll})
	assert.Equal(t, names(rows), names(got))
}

func TestFilterSearch(t *testing.T) {
	rows := sampleRoster(t)

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "matches display name", search: "badr", want: []string{"Badr"}},
		{name: "case insensitive", search: "BADR", want: []string{"Badr"}},
		{name: "substring of email", search: "dana@", want: []string{"Dana"}},
		{name: "matches employer label", search: "employer a", want: []string{"Amal", "Badr", "Eman"}},
		{name: "no match", search: "zzz", want: []string{}},
		{name: "whitespace ignored", search: "  badr  ", want: []string{"Badr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(rows, Filters{Search: tt.search})))
		})
	}
}

func TestFilterByStatus(t *testing.T) {
	rows := sampleRoster(t)

	assert.Equal(t, []string{"Amal"}, names(Filter(rows, Filters{Status: health.OverallActive})))
	assert.Equal(t, []string{"Badr"}, names(Filter(rows, Filters{Status: health.OverallCritical})))
	assert.Equal(t, []string{"Dana", "Codi"}, names(Filter(rows, Filters{Status: health.OverallWarning})))
	assert.Equal(t, []string{"Eman"}, names(Filter(rows, Filters{Status: health.OverallInactive})))
}

func TestFilterByDocumentHealth(t *testing.T) {
	rows := sampleRoster(t)

	// either document in the requested state matches
	assert.Equal(t, []string{"Badr"}, names(Filter(rows, Filters{Document: health.StatusExpired})))
	assert.Equal(t, []string{"Dana"}, names(Filter(rows, Filters{Document: health.StatusExpiring})))
	assert.Equal(t, []string{"Codi"}, names(Filter(rows, Filters{Document: health.StatusMissing})))
}

func TestFilterByAssignment(t *testing.T) {
	rows := sampleRoster(t)

	assert.Equal(t, []string{"Amal", "Badr", "Eman"}, names(Filter(rows, Filters{Assignment: "assigned"})))
	assert.Equal(t, []string{"Dana", "Codi"}, names(Filter(rows, Filters{Assignment: "unassigned"})))
}

func TestFilterCombinesWithAnd(t *testing.T) {
	rows := sampleRoster(t)

	// warning AND unassigned AND search
	got := Filter(rows, Filters{
		Search:     "codi",
		Status:     health.OverallWarning,
		Assignment: "unassigned",
	})
	assert.Equal(t, []string{"Codi"}, names(got))

	// contradictory constraints yield nothing
	got = Filter(rows, Filters{Status: health.OverallActive, Assignment: "unassigned"})
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	rows := sampleRoster(t)
	before := names(rows)

	Filter(rows, Filters{Status: health.OverallCritical})
	assert.Equal(t, before, names(rows))
}

func TestSortByName(t *testing.T) {
	rows := sampleRoster(t)

	asc := Sort(rows, SortByName, OrderAsc)
	assert.Equal(t, []string{"Amal", "Badr", "Codi", "Dana", "Eman"}, names(asc))

	desc := Sort(rows, SortByName, OrderDesc)
	assert.Equal(t, []string{"Eman", "Dana", "Codi", "Badr", "Amal"}, names(desc))

	// input untouched
	assert.Equal(t, "Amal", rows[0].FirstName)
}

func TestSortByStatusSeverity(t *testing.T) {
	rows := sampleRoster(t)

	got := Sort(rows, SortByStatus, OrderAsc)

	// worst first: critical, then warnings (stable original order), active, inactive
	assert.Equal(t, []string{"Badr", "Dana", "Codi", "Amal", "Eman"}, names(got))
}

func TestSortByStatusIsStable(t *testing.T) {
	rows := sampleRoster(t)

	// Dana and Codi are both warning; their relative order must match
	// the input regardless of how often we sort.
	got := Sort(Sort(rows, SortByStatus, OrderAsc), SortByStatus, OrderAsc)
	assert.Equal(t, []string{"Badr", "Dana", "Codi", "Amal", "Eman"}, names(got))
}

func TestSortByDocumentsMissingLast(t *testing.T) {
	rows := sampleRoster(t)

	got := Sort(rows, SortByDocuments, OrderAsc)

	// Codi has no documents at all, so no deadline — always last ascending
	require.Len(t, got, 5)
	assert.Equal(t, "Codi", got[4].FirstName)
}

func TestSortUnknownFieldFallsBackToName(t *testing.T) {
	rows := sampleRoster(t)

	got := Sort(rows, "bogus", OrderAsc)
	assert.Equal(t, []string{"Amal", "Badr", "Codi", "Dana", "Eman"}, names(got))
}

func TestSortIsIdempotent(t *testing.T) {
	rows := sampleRoster(t)

	once := Sort(rows, SortByName, OrderAsc)
	twice := Sort(once, SortByName, OrderAsc)
	assert.Equal(t, names(once), names(twice))
}

func TestClassifyRow(t *testing.T) {
	empA := strPtr("emp-a")
	p := models.Promoter{
		ID:                 "p1",
		EmployerID:         empA,
		FirstName:          "Salim",
		LastName:           "Al-Harthy",
		Email:              strPtr("salim@example.om"),
		Mobile:             strPtr("+96890000000"),
		IDCardExpiryDate:   strPtr("2025-07-01"), // 16 days out, inside 30-day window
		PassportExpiryDate: strPtr("2026-06-15"), // beyond the 90-day window
		Status:             "active",
	}

	row := Classify(p, strPtr("Acme Events"), models.DefaultComplianceSettings(), now)

	assert.Equal(t, "Salim Al-Harthy", row.DisplayName)
	assert.Equal(t, "assigned", row.AssignmentStatus)
	assert.Equal(t, health.StatusExpiring, row.IDCardHealth.Status)
	assert.Equal(t, health.StatusValid, row.PassportHealth.Status)
	assert.Equal(t, health.OverallWarning, row.OverallStatus)
	// email 25 + phone 15 + id card 30 + passport 20 + assignment 10
	assert.Equal(t, 100, row.Completeness)
}

func TestClassifyRowUnparsableDateDegrades(t *testing.T) {
	p := models.Promoter{
		ID:               "p2",
		FirstName:        "Noor",
		LastName:         "Said",
		IDCardExpiryDate: strPtr("31-12-2025"), // wrong format, must not error
		Status:           "active",
	}

	row := Classify(p, nil, models.DefaultComplianceSettings(), now)

	assert.Equal(t, health.StatusMissing, row.IDCardHealth.Status)
	assert.Equal(t, health.StatusMissing, row.PassportHealth.Status)
	assert.Equal(t, health.OverallWarning, row.OverallStatus)
	assert.Equal(t, "unassigned", row.AssignmentStatus)
}

func TestEntries(t *testing.T) {
	rows := sampleRoster(t)

	entries := Entries(rows)
	require.Len(t, entries, len(rows))

	m := health.Summarize(entries, now)
	assert.Equal(t, 5, m.Total)
	assert.Equal(t, 1, m.Active)
	assert.Equal(t, 1, m.Critical)
	assert.Equal(t, 2, m.Warning)
	assert.Equal(t, 1, m.Inactive)
	assert.Equal(t, 2, m.Unassigned)
	assert.Equal(t, 1, m.Employers)
	// every row created 10 days ago — outside the 7-day recency window
	assert.Equal(t, 0, m.RecentlyAdded)
}
