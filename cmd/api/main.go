package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"promoter-backend/internal/config"
	"promoter-backend/internal/cron"
	"promoter-backend/internal/database"
	"promoter-backend/internal/handlers"
	"promoter-backend/internal/middleware"
	"promoter-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage (R2 when configured, local disk otherwise)
	var fileStore storage.Store
	if cfg.Storage.AccountID != "" {
		fileStore, err = storage.NewR2Store(
			cfg.Storage.AccountID, cfg.Storage.AccessKey, cfg.Storage.SecretKey,
			cfg.Storage.Bucket, cfg.Storage.PublicURL,
		)
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	dashboardHandler := handlers.NewDashboardHandler(db)
	promoterHandler := handlers.NewPromoterHandler(db)
	employerHandler := handlers.NewEmployerHandler(db)
	uploadHandler := handlers.NewUploadHandler(db, fileStore)
	settingsHandler := handlers.NewSettingsHandler(db)
	activityHandler := handlers.NewActivityHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	userHandler := handlers.NewUserManagementHandler(db)

	// Start background cron jobs
	cron.StartNotifier(db)

	// 6. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Promoter Back-Office API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes — public, rate-limited against credential stuffing
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Every(12*time.Second), 5))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Serve uploaded files (local storage only — R2 serves its own URLs)
	r.Handle("/api/files/*", http.StripPrefix("/api/files/",
		http.FileServer(http.Dir(cfg.Upload.Dir))))

	// 7. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.InjectEmployerScope(db.GetPool()))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// File upload
		r.Post("/api/uploads", uploadHandler.Upload)
		r.Delete("/api/uploads/*", uploadHandler.Delete)

		// Dashboard (read-only — accessible to all authenticated users)
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)
		r.Get("/api/dashboard/expiry-alerts", dashboardHandler.GetExpiryAlerts)
		r.Get("/api/dashboard/employers", dashboardHandler.GetEmployerSummary)

		// Notifications (user-scoped, all authenticated users)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/unread-count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Compliance settings — read for everyone, write for admins
		r.Get("/api/settings/compliance", settingsHandler.Get)

		// Employers — list is read-only for all roles
		r.Get("/api/employers", employerHandler.List)
		r.Get("/api/employers/{id}", employerHandler.GetByID)

		// Read-only promoter endpoints — accessible to viewers
		r.Get("/api/promoters", promoterHandler.List)
		r.Get("/api/promoters/export", promoterHandler.Export)
		r.Get("/api/promoters/{id}", promoterHandler.GetByID)

		// Write operations restricted to employer_manager and above
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("employer_manager"))

			r.Post("/api/promoters", promoterHandler.Create)
			r.Put("/api/promoters/{id}", promoterHandler.Update)
			r.Patch("/api/promoters/{id}/status", promoterHandler.UpdateStatus)
			r.Delete("/api/promoters/{id}", promoterHandler.Delete)
			r.Post("/api/promoters/batch-delete", promoterHandler.BatchDelete)
		})

		// Admin operations
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Post("/api/employers", employerHandler.Create)
			r.Put("/api/employers/{id}", employerHandler.Update)
			r.Delete("/api/employers/{id}", employerHandler.Delete)

			r.Put("/api/settings/compliance", settingsHandler.Update)

			r.Get("/api/activity", activityHandler.List)

			r.Get("/api/users", userHandler.List)
			r.Put("/api/users/{id}/employers", userHandler.AssignEmployers)
		})

		// Super-admin operations
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("super_admin"))

			r.Patch("/api/users/{id}/role", userHandler.UpdateRole)
			r.Delete("/api/users/{id}", userHandler.Delete)
		})
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
