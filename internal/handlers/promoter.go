package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"promoter-backend/internal/ctxkeys"
	"promoter-backend/internal/database"
	"promoter-backend/internal/export"
	"promoter-backend/internal/metrics"
	"promoter-backend/internal/models"
	"promoter-backend/internal/roster"
)

// PromoterHandler handles promoter-related HTTP requests.
type PromoterHandler struct {
	db database.Service
}

// NewPromoterHandler creates a new PromoterHandler.
func NewPromoterHandler(db database.Service) *PromoterHandler {
	return &PromoterHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────
// Central column lists keep Create/GetByID/List all in sync.
// Aliased version (for SELECT with FROM clause):
const promoterCols = `p.id, p.employer_id::text, p.first_name, p.last_name,
	p.name_en, p.name_ar, p.email, p.mobile, p.job_title, p.nationality,
	p.id_card_number, p.id_card_expiry_date::text,
	p.passport_number, p.passport_expiry_date::text,
	p.status, p.photo_url, p.notes,
	p.created_at, p.updated_at`

// Unaliased version (for INSERT/UPDATE RETURNING):
const promoterRetCols = `id, employer_id::text, first_name, last_name,
	name_en, name_ar, email, mobile, job_title, nationality,
	id_card_number, id_card_expiry_date::text,
	passport_number, passport_expiry_date::text,
	status, photo_url, notes,
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanPromoter(scanner interface {
	Scan(dest ...interface{}) error
}, p *models.Promoter) error {
	return scanner.Scan(
		&p.ID, &p.EmployerID, &p.FirstName, &p.LastName,
		&p.NameEn, &p.NameAr, &p.Email, &p.Mobile, &p.JobTitle, &p.Nationality,
		&p.IDCardNumber, &p.IDCardExpiryDate,
		&p.PassportNumber, &p.PassportExpiryDate,
		&p.Status, &p.PhotoURL, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

// fetchRoster loads promoters (optionally scoped/filtered in SQL) and
// classifies every row. All status, health, and completeness fields
// come out of the health/roster packages — never out of SQL — so the
// classification rules live in exactly one place.
func fetchRoster(ctx context.Context, pool *pgxpool.Pool, where string, args []interface{}) ([]models.PromoterWithHealth, error) {
	settings := loadComplianceSettings(ctx, pool)
	now := time.Now()

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s,
			e.name_en AS employer_name,
			e.id_card_warn_days, e.passport_warn_days
		FROM promoters p
		LEFT JOIN employers e ON p.employer_id = e.id
		%s
		ORDER BY p.created_at DESC
	`, promoterCols, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classified := []models.PromoterWithHealth{}
	for rows.Next() {
		var p models.Promoter
		var employerName *string
		var idWarnOverride, passportWarnOverride *int

		if err := rows.Scan(
			&p.ID, &p.EmployerID, &p.FirstName, &p.LastName,
			&p.NameEn, &p.NameAr, &p.Email, &p.Mobile, &p.JobTitle, &p.Nationality,
			&p.IDCardNumber, &p.IDCardExpiryDate,
			&p.PassportNumber, &p.PassportExpiryDate,
			&p.Status, &p.PhotoURL, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt,
			&employerName, &idWarnOverride, &passportWarnOverride,
		); err != nil {
			log.Printf("Error scanning promoter: %v", err)
			continue
		}

		// Per-employer threshold overrides, falling back to the global settings
		effective := settings
		if idWarnOverride != nil {
			effective.IDCardWarnDays = *idWarnOverride
		}
		if passportWarnOverride != nil {
			effective.PassportWarnDays = *passportWarnOverride
		}

		classified = append(classified, roster.Classify(p, employerName, effective, now))
	}

	return classified, rows.Err()
}

// scopedRosterWhere builds the base WHERE clause for roster reads:
// employer scope plus an optional explicit employer filter.
func scopedRosterWhere(ctx context.Context, employerID string) (string, []interface{}) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, argIdx = appendEmployerScope(ctx, where, args, argIdx, "p.employer_id")

	if employerID != "" {
		where += fmt.Sprintf(" AND p.employer_id = $%d", argIdx)
		args = append(args, employerID)
	}
	return where, args
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/promoters
// Fetches the scoped roster, then filters, sorts, and paginates the
// classified rows in memory. Response envelope: {success, promoters, ...}.
func (h *PromoterHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filters := roster.Filters{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		Document:   q.Get("document"),
		Assignment: q.Get("assignment"),
	}

	// Whitelist allowed sort fields
	sortBy := q.Get("sort_by")
	switch sortBy {
	case roster.SortByName, roster.SortByStatus, roster.SortByCreated, roster.SortByDocuments:
	default:
		sortBy = roster.SortByName
	}
	sortOrder := q.Get("sort_order")
	if sortOrder != roster.OrderDesc {
		sortOrder = roster.OrderAsc
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	where, args := scopedRosterWhere(ctx, q.Get("employer_id"))

	rosterRows, err := fetchRoster(ctx, h.db.GetPool(), where, args)
	if err != nil {
		log.Printf("Error querying promoters: %v", err)
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Failed to fetch promoters",
		})
		return
	}

	filtered := roster.Filter(rosterRows, filters)
	sorted := roster.Sort(filtered, sortBy, sortOrder)

	// Paginate the filtered result
	total := len(sorted)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"promoters": sorted[start:end],
		"pagination": PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/promoters/{id}
// Returns the classified profile: per-document health, overall status,
// and completeness score.
func (h *PromoterHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Promoter ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := fetchRoster(ctx, h.db.GetPool(), "WHERE p.id = $1", []interface{}{id})
	if err != nil || len(rows) == 0 {
		if err != nil {
			log.Printf("Error fetching promoter %s: %v", id, err)
		}
		JSONError(w, http.StatusNotFound, "Promoter not found")
		return
	}

	promoter := rows[0]
	if !checkEmployerAccess(r.Context(), promoter.EmployerID) {
		JSONError(w, http.StatusForbidden, "Access denied to this promoter")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": promoter,
	})
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/promoters
func (h *PromoterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePromoterRequest
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

	// Default status to "active" if not provided
	if req.Status == "" {
		req.Status = "active"
	}

	if req.EmployerID != nil && !checkEmployerAccess(r.Context(), req.EmployerID) {
		JSONError(w, http.StatusForbidden, "Access denied to this employer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var promoter models.Promoter
	err := scanPromoter(pool.QueryRow(ctx, `
		INSERT INTO promoters (
			employer_id, first_name, last_name, name_en, name_ar,
			email, mobile, job_title, nationality,
			id_card_number, id_card_expiry_date,
			passport_number, passport_expiry_date,
			status, photo_url, notes
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING `+promoterRetCols,
		req.EmployerID, req.FirstName, req.LastName, req.NameEn, req.NameAr,
		req.Email, req.Mobile, req.JobTitle, req.Nationality,
		req.IDCardNumber, emptyDateToNil(req.IDCardExpiryDate),
		req.PassportNumber, emptyDateToNil(req.PassportExpiryDate),
		req.Status, req.PhotoURL, req.Notes,
	), &promoter)
	if err != nil {
		log.Printf("Error creating promoter: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create promoter")
		return
	}

	metrics.PromotersCreated.Inc()

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "promoter", promoter.ID, map[string]interface{}{
		"firstName": promoter.FirstName, "lastName": promoter.LastName,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    promoter,
		"message": "Promoter created successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/promoters/{id}
func (h *PromoterHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Promoter ID is required")
		return
	}

	if !checkPromoterAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this promoter")
		return
	}

	var req models.UpdatePromoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.Status != nil && !models.ValidPromoterStatuses[*req.Status] {
		JSONError(w, http.StatusUnprocessableEntity, "Invalid promoter status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic SET clause — only update provided fields
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.EmployerID != nil {
		addField("employer_id", nilIfEmptyStr(*req.EmployerID))
	}
	if req.FirstName != nil {
		addField("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		addField("last_name", *req.LastName)
	}
	if req.NameEn != nil {
		addField("name_en", *req.NameEn)
	}
	if req.NameAr != nil {
		addField("name_ar", *req.NameAr)
	}
	if req.Email != nil {
		addField("email", *req.Email)
	}
	if req.Mobile != nil {
		addField("mobile", *req.Mobile)
	}
	if req.JobTitle != nil {
		addField("job_title", *req.JobTitle)
	}
	if req.Nationality != nil {
		addField("nationality", *req.Nationality)
	}
	if req.IDCardNumber != nil {
		addField("id_card_number", *req.IDCardNumber)
	}
	if req.IDCardExpiryDate != nil {
		addField("id_card_expiry_date", emptyDateToNil(req.IDCardExpiryDate))
	}
	if req.PassportNumber != nil {
		addField("passport_number", *req.PassportNumber)
	}
	if req.PassportExpiryDate != nil {
		addField("passport_expiry_date", emptyDateToNil(req.PassportExpiryDate))
	}
	if req.Status != nil {
		addField("status", *req.Status)
	}
	if req.PhotoURL != nil {
		addField("photo_url", *req.PhotoURL)
	}
	if req.Notes != nil {
		addField("notes", *req.Notes)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	// Always update updated_at
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE promoters SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, promoterRetCols)
	args = append(args, id)

	var promoter models.Promoter
	if err := scanPromoter(pool.QueryRow(ctx, query, args...), &promoter); err != nil {
		log.Printf("Error updating promoter %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Promoter not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "promoter", promoter.ID, map[string]interface{}{
		"firstName": promoter.FirstName, "lastName": promoter.LastName,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    promoter,
		"message": "Promoter updated successfully",
	})
}

// ── UpdateStatus ───────────────────────────────────────────────

// UpdateStatus handles PATCH /api/promoters/{id}/status
// Records a lifecycle transition (on_leave, suspended, terminated, ...).
func (h *PromoterHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Promoter ID is required")
		return
	}

	if !checkPromoterAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this promoter")
		return
	}

	var req models.UpdatePromoterStatusRequest
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

	var promoter models.Promoter
	err := scanPromoter(pool.QueryRow(ctx, `
		UPDATE promoters SET
			status = $1,
			notes = COALESCE($2, notes),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+promoterRetCols,
		req.Status, req.Notes, id,
	), &promoter)
	if err != nil {
		log.Printf("Error updating promoter status %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Promoter not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "status_changed", "promoter", promoter.ID, map[string]interface{}{
		"status": req.Status,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    promoter,
		"message": "Promoter status updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/promoters/{id}
func (h *PromoterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Promoter ID is required")
		return
	}

	if !checkPromoterAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this promoter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM promoters WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting promoter %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete promoter")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Promoter not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "promoter", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Promoter deleted successfully",
	})
}

// ── BatchDelete ────────────────────────────────────────────────

// BatchDelete handles POST /api/promoters/batch-delete
// Accepts { "ids": ["uuid1", "uuid2", ...] } and deletes all matching promoters.
func (h *PromoterHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		JSONError(w, http.StatusBadRequest, "No promoter IDs provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	scope := ctxkeys.GetEmployerScope(r.Context())
	var tag pgconn.CommandTag
	var err error
	if scope == nil {
		tag, err = pool.Exec(ctx, "DELETE FROM promoters WHERE id = ANY($1::uuid[])", req.IDs)
	} else {
		tag, err = pool.Exec(ctx, "DELETE FROM promoters WHERE id = ANY($1::uuid[]) AND employer_id = ANY($2)", req.IDs, scope)
	}
	if err != nil {
		log.Printf("Error batch deleting promoters: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete promoters")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	for _, id := range req.IDs {
		logActivity(pool, userID, "deleted", "promoter", id, nil)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%d promoter(s) deleted successfully", tag.RowsAffected()),
		"deleted": tag.RowsAffected(),
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/promoters/export
// Query params: format=csv|json, fields=comma,separated (defaults to
// all exportable fields), date_format=iso|locale|custom. The same
// search/status/document/assignment filters as List apply, so the
// export matches what the user sees.
func (h *PromoterHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := export.Options{
		Format:     q.Get("format"),
		DateFormat: q.Get("date_format"),
	}
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}

	if fieldsParam, ok := q["fields"]; ok {
		// Explicit selection — an empty list is a client error, not a
		// silent empty file
		opts.Fields = splitFields(strings.Join(fieldsParam, ","))
	} else {
		opts.Fields = export.FieldNames
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	where, args := scopedRosterWhere(ctx, q.Get("employer_id"))

	rosterRows, err := fetchRoster(ctx, h.db.GetPool(), where, args)
	if err != nil {
		log.Printf("Error exporting promoters: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}

	filtered := roster.Filter(rosterRows, roster.Filters{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		Document:   q.Get("document"),
		Assignment: q.Get("assignment"),
	})
	sorted := roster.Sort(filtered, roster.SortByName, roster.OrderAsc)

	out, err := export.Export(sorted, opts)
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	metrics.ExportsTotal.WithLabelValues(opts.Format).Inc()

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(h.db.GetPool(), userID, "exported", "promoter", "roster", map[string]interface{}{
		"format": opts.Format, "records": len(sorted),
	})

	if opts.Format == export.FormatJSON {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=promoters.json")
	} else {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=promoters.csv")
	}
	w.Write(out)
}

// ── Helpers ────────────────────────────────────────────────────

// emptyDateToNil maps nil or "" to SQL NULL, otherwise the date string.
func emptyDateToNil(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// splitFields parses a comma-separated field list, dropping blanks.
func splitFields(s string) []string {
	fields := []string{}
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
