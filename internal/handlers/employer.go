package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"promoter-backend/internal/ctxkeys"
	"promoter-backend/internal/database"
	"promoter-backend/internal/models"
)

// EmployerHandler handles employer-related HTTP requests.
type EmployerHandler struct {
	db database.Service
}

// NewEmployerHandler creates a new EmployerHandler.
func NewEmployerHandler(db database.Service) *EmployerHandler {
	return &EmployerHandler{db: db}
}

const employerCols = `id, name_en, name_ar, cr_number, contact_email, contact_phone,
	id_card_warn_days, passport_warn_days, created_at::text, updated_at::text`

func scanEmployer(scanner interface {
	Scan(dest ...interface{}) error
}, e *models.Employer) error {
	return scanner.Scan(
		&e.ID, &e.NameEn, &e.NameAr, &e.CRNumber, &e.ContactEmail, &e.ContactPhone,
		&e.IDCardWarnDays, &e.PassportWarnDays, &e.CreatedAt, &e.UpdatedAt,
	)
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/employers
// Returns employers with their promoter count, scoped for
// employer-level users.
func (h *EmployerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, _ = appendEmployerScope(ctx, where, args, argIdx, "e.id")

	rows, err := h.db.GetPool().Query(ctx, `
		SELECT e.id, e.name_en, e.name_ar, e.cr_number, e.contact_email, e.contact_phone,
			e.id_card_warn_days, e.passport_warn_days, e.created_at::text, e.updated_at::text,
			COUNT(p.id) AS promoter_count
		FROM employers e
		LEFT JOIN promoters p ON p.employer_id = e.id
		`+where+`
		GROUP BY e.id
		ORDER BY e.name_en ASC
	`, args...)
	if err != nil {
		log.Printf("Error querying employers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employers")
		return
	}
	defer rows.Close()

	type employerWithCount struct {
		models.Employer
		PromoterCount int `json:"promoterCount"`
	}

	employers := []employerWithCount{}
	for rows.Next() {
		var e employerWithCount
		if err := rows.Scan(
			&e.ID, &e.NameEn, &e.NameAr, &e.CRNumber, &e.ContactEmail, &e.ContactPhone,
			&e.IDCardWarnDays, &e.PassportWarnDays, &e.CreatedAt, &e.UpdatedAt,
			&e.PromoterCount,
		); err != nil {
			log.Printf("Error scanning employer: %v", err)
			continue
		}
		employers = append(employers, e)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"employers": employers,
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/employers/{id}
func (h *EmployerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	if !checkEmployerAccess(r.Context(), &id) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var employer models.Employer
	err := scanEmployer(h.db.GetPool().QueryRow(ctx,
		"SELECT "+employerCols+" FROM employers WHERE id = $1", id,
	), &employer)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": employer,
	})
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/employers (admin+)
func (h *EmployerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEmployerRequest
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

	var employer models.Employer
	err := scanEmployer(pool.QueryRow(ctx, `
		INSERT INTO employers (name_en, name_ar, cr_number, contact_email, contact_phone,
			id_card_warn_days, passport_warn_days)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+employerCols,
		req.NameEn, req.NameAr, req.CRNumber, req.ContactEmail, req.ContactPhone,
		req.IDCardWarnDays, req.PassportWarnDays,
	), &employer)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An employer with this name already exists")
			return
		}
		log.Printf("Error creating employer: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create employer")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "employer", employer.ID, map[string]interface{}{
		"nameEn": employer.NameEn,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    employer,
		"message": "Employer created successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/employers/{id} (admin+)
func (h *EmployerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	var req models.CreateEmployerRequest
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

	var employer models.Employer
	err := scanEmployer(pool.QueryRow(ctx, `
		UPDATE employers SET
			name_en = $1, name_ar = $2, cr_number = $3,
			contact_email = $4, contact_phone = $5,
			id_card_warn_days = $6, passport_warn_days = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING `+employerCols,
		req.NameEn, req.NameAr, req.CRNumber, req.ContactEmail, req.ContactPhone,
		req.IDCardWarnDays, req.PassportWarnDays, id,
	), &employer)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "employer", employer.ID, map[string]interface{}{
		"nameEn": employer.NameEn,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    employer,
		"message": "Employer updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/employers/{id} (admin+)
// Promoters assigned to the employer are unassigned, not deleted.
func (h *EmployerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Employer ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Unassign first so the roster stays intact
	if _, err := pool.Exec(ctx, "UPDATE promoters SET employer_id = NULL, updated_at = NOW() WHERE employer_id = $1", id); err != nil {
		log.Printf("Error unassigning promoters for employer %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete employer")
		return
	}

	tag, err := pool.Exec(ctx, "DELETE FROM employers WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting employer %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete employer")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Employer not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "employer", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Employer deleted successfully",
	})
}
