package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixed reference date for every test — mid-afternoon to exercise
// the calendar-day truncation
var now = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func days(n int) *time.Time {
	t := now.AddDate(0, 0, n)
	return &t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		expiry     *time.Time
		warnDays   int
		wantStatus string
		wantDays   *int
	}{
		{name: "nil date is missing", expiry: nil, warnDays: 30, wantStatus: StatusMissing, wantDays: nil},
		{name: "yesterday is expired", expiry: days(-1), warnDays: 30, wantStatus: StatusExpired, wantDays: intPtr(1)},
		{name: "long expired", expiry: days(-365), warnDays: 30, wantStatus: StatusExpired, wantDays: intPtr(365)},
		{name: "today is expiring with zero days", expiry: days(0), warnDays: 30, wantStatus: StatusExpiring, wantDays: intPtr(0)},
		{name: "inside warning window", expiry: days(15), warnDays: 30, wantStatus: StatusExpiring, wantDays: intPtr(15)},
		{name: "window boundary is expiring", expiry: days(30), warnDays: 30, wantStatus: StatusExpiring, wantDays: intPtr(30)},
		{name: "one past the window is valid", expiry: days(31), warnDays: 30, wantStatus: StatusValid, wantDays: intPtr(31)},
		{name: "far future is valid", expiry: days(400), warnDays: 30, wantStatus: StatusValid, wantDays: intPtr(400)},
		{name: "zero warn window, tomorrow valid", expiry: days(1), warnDays: 0, wantStatus: StatusValid, wantDays: intPtr(1)},
		{name: "zero warn window, today expiring", expiry: days(0), warnDays: 0, wantStatus: StatusExpiring, wantDays: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.expiry, tt.warnDays, now)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantDays == nil {
				assert.Nil(t, got.DaysRemaining)
			} else {
				require.NotNil(t, got.DaysRemaining)
				assert.Equal(t, *tt.wantDays, *got.DaysRemaining)
			}
		})
	}
}

// Classification must ignore time-of-day on both sides: a document
// expiring at 00:01 today and one expiring at 23:59 today are the same.
func TestClassifyCalendarDayGranularity(t *testing.T) {
	lateNow := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	earlyExpiry := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)

	got := Classify(&earlyExpiry, 30, lateNow)
	assert.Equal(t, StatusExpiring, got.Status)
	require.NotNil(t, got.DaysRemaining)
	assert.Equal(t, 0, *got.DaysRemaining)
}

// Stored dates parse as UTC but callers pass time.Now() in the server's
// zone (Oman runs at UTC+4). The classification must depend only on the
// calendar dates, never on the zone offset between the two values.
func TestClassifyAcrossTimeZones(t *testing.T) {
	gst := time.FixedZone("GST", 4*3600)
	localNow := time.Date(2025, 6, 15, 12, 0, 0, 0, gst)

	got := ClassifyRaw("2025-06-14", 30, localNow)
	assert.Equal(t, StatusExpired, got.Status)
	require.NotNil(t, got.DaysRemaining)
	assert.Equal(t, 1, *got.DaysRemaining)

	// a document expiring today is expiring/0 in every zone, even late
	// in the local evening
	for _, offset := range []int{-11, -4, 0, 4, 11} {
		zone := time.FixedZone("", offset*3600)
		late := time.Date(2025, 6, 15, 23, 0, 0, 0, zone)

		doc := ClassifyRaw("2025-06-15", 30, late)
		assert.Equal(t, StatusExpiring, doc.Status, "offset %+dh", offset)
		require.NotNil(t, doc.DaysRemaining)
		assert.Equal(t, 0, *doc.DaysRemaining, "offset %+dh", offset)
	}

	// the expiring/valid boundary holds in a non-UTC zone too
	assert.Equal(t, StatusExpiring, ClassifyRaw("2025-07-15", 30, localNow).Status)
	assert.Equal(t, StatusValid, ClassifyRaw("2025-07-16", 30, localNow).Status)
}

func TestClassifyIsTotal(t *testing.T) {
	// Every input lands in exactly one of the four buckets.
	valid := map[string]bool{
		StatusMissing: true, StatusExpired: true, StatusExpiring: true, StatusValid: true,
	}
	for offset := -500; offset <= 500; offset += 7 {
		got := Classify(days(offset), 30, now)
		assert.True(t, valid[got.Status], "offset %d produced %q", offset, got.Status)
	}
	assert.True(t, valid[Classify(nil, 30, now).Status])
}

func TestClassifyRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "valid iso date", raw: "2026-01-01", want: StatusValid},
		{name: "past iso date", raw: "2020-01-01", want: StatusExpired},
		{name: "empty degrades to missing", raw: "", want: StatusMissing},
		{name: "whitespace degrades to missing", raw: "   ", want: StatusMissing},
		{name: "garbage degrades to missing", raw: "not-a-date", want: StatusMissing},
		{name: "wrong format degrades to missing", raw: "15/06/2025", want: StatusMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRaw(tt.raw, 30, now).Status)
		})
	}
}

func TestAggregate(t *testing.T) {
	expired := Classify(days(-10), 30, now)
	expiring := Classify(days(5), 30, now)
	valid := Classify(days(200), 30, now)
	missing := Classify(nil, 30, now)

	tests := []struct {
		name      string
		lifecycle string
		idCard    DocumentHealth
		passport  DocumentHealth
		want      string
	}{
		{name: "all valid is active", lifecycle: "active", idCard: valid, passport: valid, want: OverallActive},
		{name: "expired id card is critical", lifecycle: "active", idCard: expired, passport: valid, want: OverallCritical},
		{name: "expired passport is critical", lifecycle: "active", idCard: valid, passport: expired, want: OverallCritical},
		{name: "expiring passport is warning", lifecycle: "active", idCard: valid, passport: expiring, want: OverallWarning},
		{name: "missing document is warning not critical", lifecycle: "active", idCard: missing, passport: valid, want: OverallWarning},
		{name: "expired beats expiring", lifecycle: "active", idCard: expired, passport: expiring, want: OverallCritical},
		{name: "expired beats missing", lifecycle: "active", idCard: missing, passport: expired, want: OverallCritical},
		{name: "lifecycle inactive overrides expired docs", lifecycle: "inactive", idCard: expired, passport: expired, want: OverallInactive},
		{name: "terminated overrides", lifecycle: "terminated", idCard: valid, passport: valid, want: OverallInactive},
		{name: "resigned overrides", lifecycle: "resigned", idCard: expiring, passport: valid, want: OverallInactive},
		{name: "on_leave overrides", lifecycle: "on_leave", idCard: valid, passport: valid, want: OverallInactive},
		{name: "suspended overrides", lifecycle: "suspended", idCard: missing, passport: missing, want: OverallInactive},
		{name: "lifecycle is case-insensitive", lifecycle: "Terminated", idCard: valid, passport: valid, want: OverallInactive},
		{name: "empty lifecycle is inactive", lifecycle: "", idCard: valid, passport: valid, want: OverallInactive},
		{name: "both missing is warning", lifecycle: "active", idCard: missing, passport: missing, want: OverallWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.lifecycle, tt.idCard, tt.passport))
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	m := Summarize(nil, now)
	assert.Equal(t, Metrics{}, m)
	assert.Equal(t, 0, m.ComplianceRate)
}

func TestSummarize(t *testing.T) {
	employerA := "employer-a"
	employerB := "employer-b"
	recent := now.AddDate(0, 0, -2)
	old := now.AddDate(0, 0, -30)

	valid := Classify(days(200), 30, now)
	expired := Classify(days(-5), 30, now)
	expiring := Classify(days(10), 30, now)

	entries := []RosterEntry{
		{Overall: OverallActive, IDCard: valid, Passport: valid, EmployerID: &employerA, CreatedAt: &recent},
		{Overall: OverallCritical, IDCard: expired, Passport: valid, EmployerID: &employerA, CreatedAt: &old},
		{Overall: OverallWarning, IDCard: expiring, Passport: valid, EmployerID: &employerB, CreatedAt: &old},
		{Overall: OverallInactive, IDCard: valid, Passport: valid, EmployerID: nil, CreatedAt: &old},
	}

	m := Summarize(entries, now)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 1, m.Active)
	assert.Equal(t, 1, m.Critical)
	assert.Equal(t, 1, m.Warning)
	assert.Equal(t, 1, m.Inactive)
	assert.Equal(t, 1, m.Unassigned)
	assert.Equal(t, 2, m.Employers)
	assert.Equal(t, 1, m.RecentlyAdded)
	// 2 of 4 fully compliant → 50%
	assert.Equal(t, 50, m.ComplianceRate)
}

func TestSummarizeComplianceRateRounds(t *testing.T) {
	valid := Classify(days(200), 30, now)
	missing := Classify(nil, 30, now)

	// 1 of 3 compliant → 33.33% rounds to 33
	entries := []RosterEntry{
		{Overall: OverallActive, IDCard: valid, Passport: valid},
		{Overall: OverallWarning, IDCard: missing, Passport: valid},
		{Overall: OverallWarning, IDCard: valid, Passport: missing},
	}
	assert.Equal(t, 33, Summarize(entries, now).ComplianceRate)

	// 2 of 3 compliant → 66.67% rounds to 67
	entries[1] = RosterEntry{Overall: OverallActive, IDCard: valid, Passport: valid}
	assert.Equal(t, 67, Summarize(entries, now).ComplianceRate)
}

func TestSummarizeOrderIndependent(t *testing.T) {
	employerA := "employer-a"
	valid := Classify(days(200), 30, now)
	expired := Classify(days(-5), 30, now)

	entries := []RosterEntry{
		{Overall: OverallActive, IDCard: valid, Passport: valid, EmployerID: &employerA},
		{Overall: OverallCritical, IDCard: expired, Passport: valid},
		{Overall: OverallWarning, IDCard: valid, Passport: valid},
	}
	reversed := []RosterEntry{entries[2], entries[1], entries[0]}

	assert.Equal(t, Summarize(entries, now), Summarize(reversed, now))
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name string
		in   CompletenessInput
		want int
	}{
		{name: "nothing filled", in: CompletenessInput{}, want: 0},
		{name: "everything filled", in: CompletenessInput{true, true, true, true, true}, want: 100},
		{name: "email only", in: CompletenessInput{HasEmail: true}, want: 25},
		{name: "documents only", in: CompletenessInput{HasIDCard: true, HasPassport: true}, want: 50},
		{name: "assigned with phone", in: CompletenessInput{HasPhone: true, Assigned: true}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Completeness(tt.in, DefaultCompletenessWeights))
		})
	}
}

func TestCompletenessCustomWeights(t *testing.T) {
	w := CompletenessWeights{Email: 50, Phone: 0, IDCard: 50, Passport: 0, Assignment: 0}
	assert.Equal(t, 50, Completeness(CompletenessInput{HasEmail: true}, w))
	assert.Equal(t, 100, Completeness(CompletenessInput{HasEmail: true, HasIDCard: true}, w))
	assert.Equal(t, 0, Completeness(CompletenessInput{HasPhone: true, Assigned: true}, w))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name                                      string
		nameEn, nameAr, firstName, lastName, mail string
		want                                      string
	}{
		{name: "english name wins", nameEn: "Ahmed Al-Balushi", nameAr: "أحمد", firstName: "Ahmed", lastName: "B", mail: "a@x.om", want: "Ahmed Al-Balushi"},
		{name: "arabic fallback", nameAr: "أحمد البلوشي", firstName: "Ahmed", want: "أحمد البلوشي"},
		{name: "first plus last", firstName: "Fatma", lastName: "Al-Lawati", want: "Fatma Al-Lawati"},
		{name: "first only", firstName: "Fatma", want: "Fatma"},
		{name: "email fallback", mail: "promoter@example.om", want: "promoter@example.om"},
		{name: "placeholder when everything empty", want: "Unnamed Promoter"},
		{name: "whitespace is empty", nameEn: "   ", firstName: " ", lastName: " ", want: "Unnamed Promoter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.nameEn, tt.nameAr, tt.firstName, tt.lastName, tt.mail))
		})
	}
}

func intPtr(n int) *int { return &n }
