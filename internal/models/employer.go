package models

// Employer represents an employer organization a promoter can be
// assigned to.
type Employer struct {
	ID                 string  `json:"id"`
	NameEn             string  `json:"nameEn"`
	NameAr             *string `json:"nameAr,omitempty"`
	CRNumber           *string `json:"crNumber,omitempty"` // commercial registration number
	ContactEmail       *string `json:"contactEmail,omitempty"`
	ContactPhone       *string `json:"contactPhone,omitempty"`
	IDCardWarnDays     *int    `json:"idCardWarnDays,omitempty"`   // per-employer override, nil = global default
	PassportWarnDays   *int    `json:"passportWarnDays,omitempty"` // per-employer override, nil = global default
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// EmployerSummary includes promoter counts per employer for the
// dashboard breakdown.
type EmployerSummary struct {
	ID            string `json:"id"`
	NameEn        string `json:"nameEn"`
	PromoterCount int    `json:"promoterCount"`
	ActiveCount   int    `json:"activeCount"`
	CriticalCount int    `json:"criticalCount"`
	WarningCount  int    `json:"warningCount"`
}

// CreateEmployerRequest defines the accepted fields for employer
// creation and update.
type CreateEmployerRequest struct {
	NameEn           string  `json:"nameEn"`
	NameAr           *string `json:"nameAr,omitempty"`
	CRNumber         *string `json:"crNumber,omitempty"`
	ContactEmail     *string `json:"contactEmail,omitempty"`
	ContactPhone     *string `json:"contactPhone,omitempty"`
	IDCardWarnDays   *int    `json:"idCardWarnDays,omitempty"`
	PassportWarnDays *int    `json:"passportWarnDays,omitempty"`
}

// Validate checks required employer fields.
func (r *CreateEmployerRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.NameEn) < 2 {
		errors["nameEn"] = "Employer name is required (min 2 characters)"
	}
	if r.IDCardWarnDays != nil && *r.IDCardWarnDays < 0 {
		errors["idCardWarnDays"] = "Warning threshold must be non-negative"
	}
	if r.PassportWarnDays != nil && *r.PassportWarnDays < 0 {
		errors["passportWarnDays"] = "Warning threshold must be non-negative"
	}
	return errors
}
