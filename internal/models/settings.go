package models

import "promoter-backend/internal/health"

// ComplianceSettings holds the global warning thresholds and
// completeness weights. A single row in compliance_settings backs it;
// health.Default* values apply when the row is absent.
type ComplianceSettings struct {
	IDCardWarnDays   int                        `json:"idCardWarnDays"`
	PassportWarnDays int                        `json:"passportWarnDays"`
	Weights          health.CompletenessWeights `json:"completenessWeights"`
	UpdatedAt        *string                    `json:"updatedAt,omitempty"`
}

// DefaultComplianceSettings returns the built-in configuration.
func DefaultComplianceSettings() ComplianceSettings {
	return ComplianceSettings{
		IDCardWarnDays:   health.DefaultIDCardWarnDays,
		PassportWarnDays: health.DefaultPassportWarnDays,
		Weights:          health.DefaultCompletenessWeights,
	}
}

// UpdateComplianceSettingsRequest is the settings write payload.
type UpdateComplianceSettingsRequest struct {
	IDCardWarnDays   int                        `json:"idCardWarnDays"`
	PassportWarnDays int                        `json:"passportWarnDays"`
	Weights          health.CompletenessWeights `json:"completenessWeights"`
}

// Validate checks threshold sanity and that weights sum to 100.
func (r *UpdateComplianceSettingsRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.IDCardWarnDays < 0 {
		errors["idCardWarnDays"] = "Warning threshold must be non-negative"
	}
	if r.PassportWarnDays < 0 {
		errors["passportWarnDays"] = "Warning threshold must be non-negative"
	}
	sum := r.Weights.Email + r.Weights.Phone + r.Weights.IDCard +
		r.Weights.Passport + r.Weights.Assignment
	if sum != 100 {
		errors["completenessWeights"] = "Completeness weights must sum to 100"
	}
	return errors
}
