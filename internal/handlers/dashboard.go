package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"promoter-backend/internal/database"
	"promoter-backend/internal/health"
	"promoter-backend/internal/models"
	"promoter-backend/internal/roster"
)

// DashboardHandler serves the aggregated overview endpoints.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// ── Metrics ────────────────────────────────────────────────────

// GetMetrics handles GET /api/dashboard/metrics
// One roster pass produces both the overall counts and the
// per-document breakdown.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	where, args := scopedRosterWhere(ctx, r.URL.Query().Get("employer_id"))

	rosterRows, err := fetchRoster(ctx, h.db.GetPool(), where, args)
	if err != nil {
		log.Printf("Error loading dashboard metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to load metrics")
		return
	}

	m := models.DashboardMetrics{
		Metrics: health.Summarize(roster.Entries(rosterRows), time.Now()),
	}
	for i := range rosterRows {
		p := &rosterRows[i]
		switch p.IDCardHealth.Status {
		case health.StatusExpired:
			m.IDCardsExpired++
		case health.StatusExpiring:
			m.IDCardsExpiring++
		case health.StatusMissing:
			m.DocumentsMissing++
		}
		switch p.PassportHealth.Status {
		case health.StatusExpired:
			m.PassportsExpired++
		case health.StatusExpiring:
			m.PassportsExpiring++
		case health.StatusMissing:
			m.DocumentsMissing++
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"metrics": m,
	})
}

// ── Expiry Alerts ──────────────────────────────────────────────

// GetExpiryAlerts handles GET /api/dashboard/expiry-alerts
// Lists expired and expiring documents, most urgent first.
func (h *DashboardHandler) GetExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	where, args := scopedRosterWhere(ctx, r.URL.Query().Get("employer_id"))

	rosterRows, err := fetchRoster(ctx, h.db.GetPool(), where, args)
	if err != nil {
		log.Printf("Error loading expiry alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}

	alerts := []models.ExpiryAlert{}
	for i := range rosterRows {
		p := &rosterRows[i]
		alerts = appendAlert(alerts, p, "id_card", p.IDCardHealth, p.IDCardExpiryDate)
		alerts = appendAlert(alerts, p, "passport", p.PassportHealth, p.PassportExpiryDate)
	}

	// Most urgent first: expired (most overdue) before expiring (fewest days left)
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})

	if len(alerts) > limit {
		alerts = alerts[:limit]
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
	})
}

func appendAlert(alerts []models.ExpiryAlert, p *models.PromoterWithHealth, docType string, dh health.DocumentHealth, expiry *string) []models.ExpiryAlert {
	if dh.Status != health.StatusExpired && dh.Status != health.StatusExpiring {
		return alerts
	}

	daysLeft := 0
	if dh.DaysRemaining != nil {
		daysLeft = *dh.DaysRemaining
		if dh.Status == health.StatusExpired {
			daysLeft = -daysLeft
		}
	}

	employerName := ""
	if p.EmployerName != nil {
		employerName = *p.EmployerName
	}
	expiryDate := ""
	if expiry != nil {
		expiryDate = *expiry
	}

	return append(alerts, models.ExpiryAlert{
		PromoterID:   p.ID,
		PromoterName: p.DisplayName,
		EmployerName: employerName,
		DocumentType: docType,
		ExpiryDate:   expiryDate,
		DaysLeft:     daysLeft,
		Status:       dh.Status,
	})
}

// ── Employer Summary ───────────────────────────────────────────

// GetEmployerSummary handles GET /api/dashboard/employers
// Per-employer promoter counts broken down by overall status.
func (h *DashboardHandler) GetEmployerSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	where, args := scopedRosterWhere(ctx, "")

	rosterRows, err := fetchRoster(ctx, h.db.GetPool(), where, args)
	if err != nil {
		log.Printf("Error loading employer summary: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to load summary")
		return
	}

	byEmployer := map[string]*models.EmployerSummary{}
	order := []string{}
	for i := range rosterRows {
		p := &rosterRows[i]
		if p.EmployerID == nil {
			continue
		}
		s, ok := byEmployer[*p.EmployerID]
		if !ok {
			name := ""
			if p.EmployerName != nil {
				name = *p.EmployerName
			}
			s = &models.EmployerSummary{ID: *p.EmployerID, NameEn: name}
			byEmployer[*p.EmployerID] = s
			order = append(order, *p.EmployerID)
		}
		s.PromoterCount++
		switch p.OverallStatus {
		case health.OverallActive:
			s.ActiveCount++
		case health.OverallCritical:
			s.CriticalCount++
		case health.OverallWarning:
			s.WarningCount++
		}
	}

	summaries := make([]models.EmployerSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byEmployer[id])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].PromoterCount > summaries[j].PromoterCount
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"employers": summaries,
	})
}
