package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"promoter-backend/internal/ctxkeys"
	"promoter-backend/internal/database"
	"promoter-backend/internal/models"
)

// SettingsHandler manages the global compliance configuration:
// warning thresholds and completeness weights.
type SettingsHandler struct {
	db database.Service
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db database.Service) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get handles GET /api/settings/compliance
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	settings := loadComplianceSettings(ctx, h.db.GetPool())
	JSON(w, http.StatusOK, map[string]interface{}{
		"data": settings,
	})
}

// Update handles PUT /api/settings/compliance
// Upserts the single settings row.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateComplianceSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	weightsJSON, _ := json.Marshal(req.Weights)

	var settings models.ComplianceSettings
	var weightsRaw []byte
	err := pool.QueryRow(ctx, `
		INSERT INTO compliance_settings (id, id_card_warn_days, passport_warn_days, completeness_weights, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			id_card_warn_days = $1, passport_warn_days = $2,
			completeness_weights = $3, updated_at = NOW()
		RETURNING id_card_warn_days, passport_warn_days, completeness_weights, updated_at::text
	`, req.IDCardWarnDays, req.PassportWarnDays, weightsJSON,
	).Scan(&settings.IDCardWarnDays, &settings.PassportWarnDays, &weightsRaw, &settings.UpdatedAt)
	if err != nil {
		log.Printf("Error updating compliance settings: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	if err := json.Unmarshal(weightsRaw, &settings.Weights); err != nil {
		settings.Weights = req.Weights
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "settings", "compliance", map[string]interface{}{
		"idCardWarnDays": req.IDCardWarnDays, "passportWarnDays": req.PassportWarnDays,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    settings,
		"message": "Compliance settings updated successfully",
	})
}

// loadComplianceSettings fetches the settings row, falling back to the
// built-in defaults when the row is absent or unreadable. Classification
// must not fail because configuration is missing.
func loadComplianceSettings(ctx context.Context, pool *pgxpool.Pool) models.ComplianceSettings {
	settings := models.DefaultComplianceSettings()

	var weightsRaw []byte
	err := pool.QueryRow(ctx, `
		SELECT id_card_warn_days, passport_warn_days, completeness_weights, updated_at::text
		FROM compliance_settings WHERE id = 1
	`).Scan(&settings.IDCardWarnDays, &settings.PassportWarnDays, &weightsRaw, &settings.UpdatedAt)
	if err != nil {
		return models.DefaultComplianceSettings()
	}

	if err := json.Unmarshal(weightsRaw, &settings.Weights); err != nil {
		settings.Weights = models.DefaultComplianceSettings().Weights
	}
	return settings
}
