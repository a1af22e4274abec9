package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"promoter-backend/internal/database"
	"promoter-backend/internal/health"
	"promoter-backend/internal/metrics"
	"promoter-backend/internal/models"
)

// StartNotifier launches a background goroutine that runs once per day
// (and once immediately) to generate document-expiry notifications for
// admins and for employer managers assigned to the affected employer.
func StartNotifier(db database.Service) {
	go func() {
		runCycle(db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db)
		}
	}()

	log.Println("[cron] expiry notifier started – runs every 24 h")
}

// runCycle classifies every promoter's ID card and passport and inserts
// a notification per document that is expired or inside its warning
// window. Notifications are de-duplicated by (user_id, entity_id) on
// the same day.
func runCycle(db database.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool := db.GetPool()
	now := time.Now()
	settings := loadSettings(ctx, pool)

	// ─── 1. Fetch the roster with per-employer threshold overrides ───
	rows, err := pool.Query(ctx, `
		SELECT
			p.id, p.first_name, p.last_name, p.name_en, p.email,
			p.id_card_expiry_date::text, p.passport_expiry_date::text,
			p.status, p.employer_id::text,
			e.name_en AS employer_name,
			e.id_card_warn_days, e.passport_warn_days
		FROM promoters p
		LEFT JOIN employers e ON p.employer_id = e.id
		WHERE p.status = 'active'
	`)
	if err != nil {
		log.Printf("[cron] error querying promoters: %v", err)
		return
	}
	defer rows.Close()

	type promoterRow struct {
		ID             string
		FirstName      string
		LastName       string
		NameEn         *string
		Email          *string
		IDCardExpiry   *string
		PassportExpiry *string
		Status         string
		EmployerID     *string
		EmployerName   *string
		IDWarnDays     *int
		PassportDays   *int
	}

	var promoters []promoterRow
	for rows.Next() {
		var p promoterRow
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.NameEn, &p.Email,
			&p.IDCardExpiry, &p.PassportExpiry,
			&p.Status, &p.EmployerID,
			&p.EmployerName, &p.IDWarnDays, &p.PassportDays,
		); err != nil {
			log.Printf("[cron] scan error: %v", err)
			continue
		}
		promoters = append(promoters, p)
	}

	if len(promoters) == 0 {
		log.Println("[cron] no active promoters found")
		return
	}

	// ─── 2. Classify each document and insert notifications ──────────
	inserted := 0
	today := now.Format("2006-01-02")

	for _, p := range promoters {
		name := health.DisplayName(
			deref(p.NameEn), "", p.FirstName, p.LastName, deref(p.Email),
		)
		employer := deref(p.EmployerName)

		idWarn := settings.IDCardWarnDays
		if p.IDWarnDays != nil {
			idWarn = *p.IDWarnDays
		}
		passportWarn := settings.PassportWarnDays
		if p.PassportDays != nil {
			passportWarn = *p.PassportDays
		}

		docs := []struct {
			label string
			key   string
			state health.DocumentHealth
		}{
			{"ID Card", "id_card", health.ClassifyRaw(deref(p.IDCardExpiry), idWarn, now)},
			{"Passport", "passport", health.ClassifyRaw(deref(p.PassportExpiry), passportWarn, now)},
		}

		for _, d := range docs {
			var title, message, nType string
			switch d.state.Status {
			case health.StatusExpired:
				days := 0
				if d.state.DaysRemaining != nil {
					days = *d.state.DaysRemaining
				}
				title = fmt.Sprintf("🚨 %s – Expired", d.label)
				message = fmt.Sprintf(
					"%s (%s): %s expired %d days ago. Renewal required.",
					name, employer, d.label, days,
				)
				nType = "document_expired"

			case health.StatusExpiring:
				days := 0
				if d.state.DaysRemaining != nil {
					days = *d.state.DaysRemaining
				}
				title = fmt.Sprintf("📋 %s – Expiring Soon", d.label)
				message = fmt.Sprintf(
					"%s (%s): %s expires in %d days. Please renew promptly.",
					name, employer, d.label, days,
				)
				nType = "document_expiring"

			default:
				continue // valid or missing docs – no notification needed
			}

			entityID := p.ID + ":" + d.key
			for _, userID := range recipientsFor(ctx, pool, p.EmployerID) {
				// De-duplicate: skip if we already notified this user
				// about this exact document today.
				var exists bool
				_ = pool.QueryRow(ctx, `
					SELECT EXISTS(
						SELECT 1 FROM notifications
						WHERE user_id     = $1
						  AND entity_type = 'promoter_document'
						  AND entity_id   = $2
						  AND created_at::date = $3::date
					)
				`, userID, entityID, today).Scan(&exists)
				if exists {
					continue
				}

				_, err := pool.Exec(ctx, `
					INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
					VALUES ($1, $2, $3, $4, 'promoter_document', $5)
				`, userID, title, message, nType, entityID)
				if err != nil {
					log.Printf("[cron] insert notification error: %v", err)
					continue
				}
				inserted++
				metrics.NotificationsSent.Inc()
			}
		}
	}

	log.Printf("[cron] expiry check complete – %d new notifications from %d promoters", inserted, len(promoters))
}

// recipientsFor returns the users who should be alerted about a
// promoter: every admin and super_admin, plus employer managers
// assigned to the promoter's employer.
func recipientsFor(ctx context.Context, pool *pgxpool.Pool, employerID *string) []string {
	query := `SELECT id FROM users WHERE role IN ('admin', 'super_admin')`
	args := []interface{}{}
	if employerID != nil {
		query = `
			SELECT id FROM users WHERE role IN ('admin', 'super_admin')
			UNION
			SELECT u.id FROM users u
			JOIN user_employers ue ON ue.user_id = u.id
			WHERE u.role = 'employer_manager' AND ue.employer_id = $1
		`
		args = append(args, *employerID)
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("[cron] error querying recipients: %v", err)
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// loadSettings reads the global compliance settings row, falling back
// to the built-in defaults when it is absent or malformed.
func loadSettings(ctx context.Context, pool *pgxpool.Pool) models.ComplianceSettings {
	settings := models.DefaultComplianceSettings()

	var weightsJSON []byte
	err := pool.QueryRow(ctx, `
		SELECT id_card_warn_days, passport_warn_days, completeness_weights
		FROM compliance_settings WHERE id = 1
	`).Scan(&settings.IDCardWarnDays, &settings.PassportWarnDays, &weightsJSON)
	if err != nil {
		return models.DefaultComplianceSettings()
	}
	if len(weightsJSON) > 0 {
		if err := json.Unmarshal(weightsJSON, &settings.Weights); err != nil {
			settings.Weights = health.DefaultCompletenessWeights
		}
	}
	return settings
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
