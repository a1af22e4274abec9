// Package export serializes classified promoter rows to CSV or JSON.
// It is a pure transform: the caller decides what to do with the
// bytes (HTTP attachment, file on disk).
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"promoter-backend/internal/models"
)

// Formats and date formats accepted by Export.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	DateISO    = "iso"    // full RFC 3339 timestamp
	DateLocale = "locale" // platform-default short date
	DateCustom = "custom" // fixed DD/MM/YYYY
)

// Options selects the output format and the exact field set. An empty
// field set is a validation error — a headerless file must never be
// emitted silently.
type Options struct {
	Format     string   `json:"format" validate:"required,oneof=csv json"`
	Fields     []string `json:"fields" validate:"required,min=1,dive,oneof=id displayName firstName lastName email mobile jobTitle nationality employerName assignmentStatus status overallStatus idCardNumber idCardExpiryDate idCardStatus passportNumber passportExpiryDate passportStatus completeness createdAt updatedAt"`
	DateFormat string   `json:"dateFormat" validate:"omitempty,oneof=iso locale custom"`
}

// FieldNames lists every exportable field, in header order.
var FieldNames = []string{
	"id", "displayName", "firstName", "lastName", "email", "mobile",
	"jobTitle", "nationality", "employerName", "assignmentStatus",
	"status", "overallStatus",
	"idCardNumber", "idCardExpiryDate", "idCardStatus",
	"passportNumber", "passportExpiryDate", "passportStatus",
	"completeness", "createdAt", "updatedAt",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Export serializes rows per opts. Returns a validation error before
// producing any output when the options are invalid.
func Export(rows []models.PromoterWithHealth, opts Options) ([]byte, error) {
	if opts.DateFormat == "" {
		opts.DateFormat = DateISO
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid export options: %w", err)
	}

	switch opts.Format {
	case FormatJSON:
		return exportJSON(rows, opts)
	default:
		return exportCSV(rows, opts)
	}
}

// exportCSV writes a header row of field names followed by one row per
// record. Values containing a comma or quote are quote-wrapped with
// embedded quotes doubled — spreadsheet tools depend on this exact rule.
func exportCSV(rows []models.PromoterWithHealth, opts Options) ([]byte, error) {
	var b strings.Builder

	for i, f := range opts.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSV(f))
	}
	b.WriteByte('\n')

	for i := range rows {
		for j, f := range opts.Fields {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSV(fieldValue(&rows[i], f, opts.DateFormat)))
		}
		b.WriteByte('\n')
	}

	return []byte(b.String()), nil
}

// exportJSON emits a pretty-printed array of objects holding exactly
// the selected fields.
func exportJSON(rows []models.PromoterWithHealth, opts Options) ([]byte, error) {
	out := make([]map[string]string, 0, len(rows))
	for i := range rows {
		obj := make(map[string]string, len(opts.Fields))
		for _, f := range opts.Fields {
			obj[f] = fieldValue(&rows[i], f, opts.DateFormat)
		}
		out = append(out, obj)
	}
	return json.MarshalIndent(out, "", "  ")
}

// escapeCSV wraps a value in quotes if it contains commas or quotes.
func escapeCSV(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// fieldValue resolves one exportable field to its string form.
func fieldValue(r *models.PromoterWithHealth, field, dateFormat string) string {
	switch field {
	case "id":
		return r.ID
	case "displayName":
		return r.DisplayName
	case "firstName":
		return r.FirstName
	case "lastName":
		return r.LastName
	case "email":
		return deref(r.Email)
	case "mobile":
		return deref(r.Mobile)
	case "jobTitle":
		return deref(r.JobTitle)
	case "nationality":
		return deref(r.Nationality)
	case "employerName":
		return deref(r.EmployerName)
	case "assignmentStatus":
		return r.AssignmentStatus
	case "status":
		return r.Status
	case "overallStatus":
		return r.OverallStatus
	case "idCardNumber":
		return deref(r.IDCardNumber)
	case "idCardExpiryDate":
		return formatDateOnly(deref(r.IDCardExpiryDate), dateFormat)
	case "idCardStatus":
		return r.IDCardHealth.Status
	case "passportNumber":
		return deref(r.PassportNumber)
	case "passportExpiryDate":
		return formatDateOnly(deref(r.PassportExpiryDate), dateFormat)
	case "passportStatus":
		return r.PassportHealth.Status
	case "completeness":
		return fmt.Sprintf("%d", r.Completeness)
	case "createdAt":
		return formatTimestamp(r.CreatedAt, dateFormat)
	case "updatedAt":
		return formatTimestamp(r.UpdatedAt, dateFormat)
	default:
		return ""
	}
}

// formatDateOnly re-renders a stored YYYY-MM-DD value per dateFormat.
// Unparsable values pass through untouched rather than erroring.
func formatDateOnly(raw, dateFormat string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	switch dateFormat {
	case DateCustom:
		return t.Format("02/01/2006")
	case DateLocale:
		return t.Format("1/2/2006")
	default:
		return t.Format("2006-01-02")
	}
}

func formatTimestamp(t time.Time, dateFormat string) string {
	if t.IsZero() {
		return ""
	}
	switch dateFormat {
	case DateCustom:
		return t.Format("02/01/2006")
	case DateLocale:
		return t.Format("1/2/2006")
	default:
		return t.Format(time.RFC3339)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
