package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promoter-backend/internal/health"
	"promoter-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func sampleRows() []models.PromoterWithHealth {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []models.PromoterWithHealth{
		{
			Promoter: models.Promoter{
				ID:               "p1",
				FirstName:        "Amal",
				LastName:         "Said",
				Email:            strPtr("amal@example.om"),
				IDCardExpiryDate: strPtr("2025-12-31"),
				Status:           "active",
				CreatedAt:        created,
				UpdatedAt:        created,
			},
			DisplayName:      "Amal Said",
			AssignmentStatus: "assigned",
			EmployerName:     strPtr("Acme, Inc."),
			IDCardHealth:     health.DocumentHealth{Status: health.StatusValid},
			PassportHealth:   health.DocumentHealth{Status: health.StatusMissing},
			OverallStatus:    health.OverallWarning,
			Completeness:     75,
		},
		{
			Promoter: models.Promoter{
				ID:        "p2",
				FirstName: "Badr",
				LastName:  `Al "Hajri"`,
				Status:    "active",
				CreatedAt: created,
				UpdatedAt: created,
			},
			DisplayName:      `Badr Al "Hajri"`,
			AssignmentStatus: "unassigned",
			IDCardHealth:     health.DocumentHealth{Status: health.StatusMissing},
			PassportHealth:   health.DocumentHealth{Status: health.StatusMissing},
			OverallStatus:    health.OverallWarning,
		},
	}
}

func TestExportCSVHeaderAndRows(t *testing.T) {
	out, err := Export(sampleRows(), Options{
		Format: FormatCSV,
		Fields: []string{"id", "displayName", "overallStatus"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,displayName,overallStatus", lines[0])
	assert.Equal(t, "p1,Amal Said,warning", lines[1])
}

func TestExportCSVEscaping(t *testing.T) {
	out, err := Export(sampleRows(), Options{
		Format: FormatCSV,
		Fields: []string{"id", "displayName", "employerName"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)

	// comma in the employer name forces quote-wrapping
	assert.Equal(t, `p1,Amal Said,"Acme, Inc."`, lines[1])
	// embedded quotes are doubled inside the wrapper
	assert.Equal(t, `p2,"Badr Al ""Hajri""",`, lines[2])
}

func TestExportCSVEmptyRoster(t *testing.T) {
	out, err := Export(nil, Options{
		Format: FormatCSV,
		Fields: []string{"id", "displayName"},
	})
	require.NoError(t, err)

	// header only
	assert.Equal(t, "id,displayName\n", string(out))
}

func TestExportJSONExactFields(t *testing.T) {
	out, err := Export(sampleRows(), Options{
		Format: FormatJSON,
		Fields: []string{"id", "email", "completeness"},
	})
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 2)

	// exactly the requested fields, nothing else
	assert.Equal(t, map[string]string{
		"id": "p1", "email": "amal@example.om", "completeness": "75",
	}, decoded[0])
	assert.Equal(t, map[string]string{
		"id": "p2", "email": "", "completeness": "0",
	}, decoded[1])
}

func TestExportEmptyFieldsRejected(t *testing.T) {
	_, err := Export(sampleRows(), Options{Format: FormatCSV, Fields: []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid export options")

	_, err = Export(sampleRows(), Options{Format: FormatCSV})
	require.Error(t, err)
}

func TestExportUnknownFieldRejected(t *testing.T) {
	_, err := Export(sampleRows(), Options{Format: FormatCSV, Fields: []string{"id", "passwordHash"}})
	require.Error(t, err)
}

func TestExportInvalidFormatRejected(t *testing.T) {
	_, err := Export(sampleRows(), Options{Format: "xml", Fields: []string{"id"}})
	require.Error(t, err)
}

func TestExportDateFormats(t *testing.T) {
	tests := []struct {
		name       string
		dateFormat string
		wantDate   string // idCardExpiryDate for row 1
		wantTS     string // createdAt for row 1
	}{
		{name: "default iso", dateFormat: "", wantDate: "2025-12-31", wantTS: "2025-03-01T09:30:00Z"},
		{name: "explicit iso", dateFormat: DateISO, wantDate: "2025-12-31", wantTS: "2025-03-01T09:30:00Z"},
		{name: "locale", dateFormat: DateLocale, wantDate: "12/31/2025", wantTS: "3/1/2025"},
		{name: "custom ddmmyyyy", dateFormat: DateCustom, wantDate: "31/12/2025", wantTS: "01/03/2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Export(sampleRows(), Options{
				Format:     FormatJSON,
				Fields:     []string{"idCardExpiryDate", "createdAt"},
				DateFormat: tt.dateFormat,
			})
			require.NoError(t, err)

			var decoded []map[string]string
			require.NoError(t, json.Unmarshal(out, &decoded))
			assert.Equal(t, tt.wantDate, decoded[0]["idCardExpiryDate"])
			assert.Equal(t, tt.wantTS, decoded[0]["createdAt"])
		})
	}
}

func TestExportAllFieldNamesResolve(t *testing.T) {
	out, err := Export(sampleRows(), Options{Format: FormatJSON, Fields: FieldNames})
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 2)
	assert.Len(t, decoded[0], len(FieldNames))
}
