package models

import (
	"time"

	"promoter-backend/internal/health"
)

// Promoter represents a promoter record in the database.
// Name fields are stored in both English and Arabic; either may be
// absent, so display names are always resolved via health.DisplayName.
type Promoter struct {
	ID                 string    `json:"id"`
	EmployerID         *string   `json:"employerId,omitempty"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	NameEn             *string   `json:"nameEn,omitempty"`
	NameAr             *string   `json:"nameAr,omitempty"`
	Email              *string   `json:"email,omitempty"`
	Mobile             *string   `json:"mobile,omitempty"`
	JobTitle           *string   `json:"jobTitle,omitempty"`
	Nationality        *string   `json:"nationality,omitempty"`
	IDCardNumber       *string   `json:"idCardNumber,omitempty"`
	IDCardExpiryDate   *string   `json:"idCardExpiryDate,omitempty"`   // YYYY-MM-DD, nullable
	PassportNumber     *string   `json:"passportNumber,omitempty"`
	PassportExpiryDate *string   `json:"passportExpiryDate,omitempty"` // YYYY-MM-DD, nullable
	Status             string    `json:"status"` // active, inactive, on_leave, suspended, terminated, resigned
	PhotoURL           *string   `json:"photoUrl,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PromoterWithHealth pairs a promoter with its employer label and the
// document health computed on every read — never stored.
type PromoterWithHealth struct {
	Promoter
	EmployerName     *string               `json:"employerName,omitempty"`
	DisplayName      string                `json:"displayName"`
	AssignmentStatus string                `json:"assignmentStatus"` // "assigned" | "unassigned"
	IDCardHealth     health.DocumentHealth `json:"idCardHealth"`
	PassportHealth   health.DocumentHealth `json:"passportHealth"`
	OverallStatus    string                `json:"overallStatus"` // "active" | "warning" | "critical" | "inactive"
	Completeness     int                   `json:"completeness"`  // weighted data-completeness %
}

// CreatePromoterRequest holds the fields needed to create a promoter.
type CreatePromoterRequest struct {
	EmployerID         *string `json:"employerId,omitempty"`
	FirstName          string  `json:"firstName"`
	LastName           string  `json:"lastName"`
	NameEn             *string `json:"nameEn,omitempty"`
	NameAr             *string `json:"nameAr,omitempty"`
	Email              *string `json:"email,omitempty"`
	Mobile             *string `json:"mobile,omitempty"`
	JobTitle           *string `json:"jobTitle,omitempty"`
	Nationality        *string `json:"nationality,omitempty"`
	IDCardNumber       *string `json:"idCardNumber,omitempty"`
	IDCardExpiryDate   *string `json:"idCardExpiryDate,omitempty"`
	PassportNumber     *string `json:"passportNumber,omitempty"`
	PassportExpiryDate *string `json:"passportExpiryDate,omitempty"`
	Status             string  `json:"status,omitempty"`
	PhotoURL           *string `json:"photoUrl,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdatePromoterRequest holds the fields that can be partially updated.
type UpdatePromoterRequest struct {
	EmployerID         *string `json:"employerId,omitempty"`
	FirstName          *string `json:"firstName,omitempty"`
	LastName           *string `json:"lastName,omitempty"`
	NameEn             *string `json:"nameEn,omitempty"`
	NameAr             *string `json:"nameAr,omitempty"`
	Email              *string `json:"email,omitempty"`
	Mobile             *string `json:"mobile,omitempty"`
	JobTitle           *string `json:"jobTitle,omitempty"`
	Nationality        *string `json:"nationality,omitempty"`
	IDCardNumber       *string `json:"idCardNumber,omitempty"`
	IDCardExpiryDate   *string `json:"idCardExpiryDate,omitempty"`
	PassportNumber     *string `json:"passportNumber,omitempty"`
	PassportExpiryDate *string `json:"passportExpiryDate,omitempty"`
	Status             *string `json:"status,omitempty"`
	PhotoURL           *string `json:"photoUrl,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdatePromoterStatusRequest records a lifecycle transition.
type UpdatePromoterStatusRequest struct {
	Status string  `json:"status"` // one of ValidPromoterStatuses
	Notes  *string `json:"notes,omitempty"`
}

// ValidPromoterStatuses lists allowed lifecycle values.
var ValidPromoterStatuses = map[string]bool{
	"active":     true,
	"inactive":   true,
	"on_leave":   true,
	"suspended":  true,
	"terminated": true,
	"resigned":   true,
}

// Validate checks if the create request contains valid data.
func (r *CreatePromoterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.FirstName) < 1 || len(r.FirstName) > 100 {
		errors["firstName"] = "First name must be between 1 and 100 characters"
	}
	if len(r.LastName) < 1 || len(r.LastName) > 100 {
		errors["lastName"] = "Last name must be between 1 and 100 characters"
	}
	if r.Status != "" && !ValidPromoterStatuses[r.Status] {
		errors["status"] = "Status must be one of: active, inactive, on_leave, suspended, terminated, resigned"
	}
	if r.IDCardExpiryDate != nil && !validDateString(*r.IDCardExpiryDate) {
		errors["idCardExpiryDate"] = "ID card expiry must be YYYY-MM-DD"
	}
	if r.PassportExpiryDate != nil && !validDateString(*r.PassportExpiryDate) {
		errors["passportExpiryDate"] = "Passport expiry must be YYYY-MM-DD"
	}

	return errors
}

// Validate checks the lifecycle transition request.
func (r *UpdatePromoterStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if !ValidPromoterStatuses[r.Status] {
		errors["status"] = "Status must be one of: active, inactive, on_leave, suspended, terminated, resigned"
	}
	return errors
}

// validDateString accepts empty (clears the date) or YYYY-MM-DD.
func validDateString(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
