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

// UserManagementHandler lets admins manage accounts, roles, and
// employer assignments.
type UserManagementHandler struct {
	db database.Service
}

// NewUserManagementHandler creates a new UserManagementHandler.
func NewUserManagementHandler(db database.Service) *UserManagementHandler {
	return &UserManagementHandler{db: db}
}

// List handles GET /api/users (admin+)
func (h *UserManagementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.db.GetPool().Query(ctx, `
		SELECT id, email, name, role, created_at::text, updated_at::text
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("Error querying users: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Printf("Error scanning user: %v", err)
			continue
		}
		users = append(users, u)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

// UpdateRole handles PATCH /api/users/{id}/role (super_admin only)
func (h *UserManagementHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID, _ := r.Context().Value(ctxkeys.UserID).(string)

	if id == actorID {
		JSONError(w, http.StatusBadRequest, "You cannot change your own role")
		return
	}

	var req models.UpdateRoleRequest
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

	tag, err := pool.Exec(ctx,
		"UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2", req.Role, id)
	if err != nil {
		log.Printf("Error updating user role: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	logActivity(pool, actorID, "role_changed", "user", id, map[string]interface{}{
		"role": req.Role,
	})

	JSON(w, http.StatusOK, map[string]string{"message": "Role updated successfully"})
}

// AssignEmployers handles PUT /api/users/{id}/employers (admin+)
// Replaces the set of employers an employer_manager user can see.
func (h *UserManagementHandler) AssignEmployers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		EmployerIDs []string `json:"employerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update assignments")
		return
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM user_employers WHERE user_id = $1", id); err != nil {
		log.Printf("Error clearing user employers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update assignments")
		return
	}
	for _, employerID := range req.EmployerIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO user_employers (user_id, employer_id) VALUES ($1, $2)", id, employerID); err != nil {
			log.Printf("Error assigning employer %s: %v", employerID, err)
			JSONError(w, http.StatusInternalServerError, "Failed to update assignments")
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		log.Printf("Error committing assignments: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update assignments")
		return
	}

	actorID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, actorID, "employers_assigned", "user", id, map[string]interface{}{
		"employerIds": req.EmployerIDs,
	})

	JSON(w, http.StatusOK, map[string]string{"message": "Employer assignments updated"})
}

// Delete handles DELETE /api/users/{id} (super_admin only)
func (h *UserManagementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID, _ := r.Context().Value(ctxkeys.UserID).(string)

	if id == actorID {
		JSONError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting user %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	logActivity(pool, actorID, "deleted", "user", id, nil)

	JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
