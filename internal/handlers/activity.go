package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"promoter-backend/internal/database"
	"promoter-backend/internal/models"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	db database.Service
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(db database.Service) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List handles GET /api/activity (admin+)
// Recent audit entries joined with the acting user's name.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	if entityType := q.Get("entity_type"); entityType != "" {
		where += " AND a.entity_type = $" + strconv.Itoa(argIdx)
		args = append(args, entityType)
		argIdx++
	}
	if entityID := q.Get("entity_id"); entityID != "" {
		where += " AND a.entity_id = $" + strconv.Itoa(argIdx)
		args = append(args, entityID)
		argIdx++
	}
	args = append(args, limit)

	rows, err := h.db.GetPool().Query(ctx, `
		SELECT a.id, a.user_id::text, u.name, a.action, a.entity_type, a.entity_id,
			a.details, a.created_at::text
		FROM activity_log a
		LEFT JOIN users u ON a.user_id = u.id
		`+where+`
		ORDER BY a.created_at DESC
		LIMIT $`+strconv.Itoa(argIdx)+`
	`, args...)
	if err != nil {
		log.Printf("Error querying activity log: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.Action,
			&a.EntityType, &a.EntityID, &a.Details, &a.CreatedAt); err != nil {
			log.Printf("Error scanning activity: %v", err)
			continue
		}
		activities = append(activities, a)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"activities": activities,
	})
}
