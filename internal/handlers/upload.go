package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"promoter-backend/internal/ctxkeys"
	"promoter-backend/internal/database"
	"promoter-backend/internal/storage"
)

// maxUploadSize limits photo and document-scan uploads to 10 MB.
const maxUploadSize = 10 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadHandler stores promoter photos and document scans.
type UploadHandler struct {
	db    database.Service
	store storage.Store
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(db database.Service, store storage.Store) *UploadHandler {
	return &UploadHandler{db: db, store: store}
}

// Upload handles POST /api/uploads
// Multipart form with a "file" part and an optional "kind" field
// (photo | document). The stored object key is namespaced by kind and
// randomized, so originals never collide.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large (max 10 MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		JSONError(w, http.StatusUnsupportedMediaType, "Only JPEG, PNG, WebP, and PDF files are accepted")
		return
	}

	kind := r.FormValue("kind")
	if kind != "document" {
		kind = "photo"
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("%ss/%s%s", kind, uuid.New().String(), ext)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	info, err := h.store.Save(ctx, key, file, contentType)
	if err != nil {
		log.Printf("Error saving upload %s: %v", key, err)
		JSONError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(h.db.GetPool(), userID, "uploaded", "file", key, map[string]interface{}{
		"fileName": header.Filename, "fileSize": info.FileSize, "kind": kind,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    info,
		"message": "File uploaded successfully",
	})
}

// Delete handles DELETE /api/uploads/{key}
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/uploads/")
	if key == "" || strings.Contains(key, "..") {
		JSONError(w, http.StatusBadRequest, "Invalid file key")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, key); err != nil {
		log.Printf("Error deleting upload %s: %v", key, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully",
	})
}
