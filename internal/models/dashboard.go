package models

import "promoter-backend/internal/health"

// ── Dashboard ────────────────────────────────────────────────────

// DashboardMetrics wraps the roster metrics with document-level
// counts for the overview cards.
type DashboardMetrics struct {
	health.Metrics
	IDCardsExpired    int `json:"idCardsExpired"`
	IDCardsExpiring   int `json:"idCardsExpiring"`
	PassportsExpired  int `json:"passportsExpired"`
	PassportsExpiring int `json:"passportsExpiring"`
	DocumentsMissing  int `json:"documentsMissing"`
}

// ── Expiry Alerts ────────────────────────────────────────────────

// ExpiryAlert represents one document nearing or past expiry.
type ExpiryAlert struct {
	PromoterID   string `json:"promoterId"`
	PromoterName string `json:"promoterName"`
	EmployerName string `json:"employerName,omitempty"`
	DocumentType string `json:"documentType"` // "id_card" | "passport"
	ExpiryDate   string `json:"expiryDate"`
	DaysLeft     int    `json:"daysLeft"` // negative = days overdue
	Status       string `json:"status"`   // "expired" | "expiring"
}
