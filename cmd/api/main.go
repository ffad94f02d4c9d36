package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "mealtrust/docs" // This is for Swagger
	"mealtrust/internal/auth"
	"mealtrust/internal/config"
	"mealtrust/internal/database"
	"mealtrust/internal/handlers"
	"mealtrust/internal/logger"
	"mealtrust/internal/middleware"
	"mealtrust/internal/models"
	"mealtrust/internal/repository"
	"mealtrust/internal/service"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title MealTrust API
// @version 1.0
// @description Backend API for the MealTrust school meal food safety platform

// @contact.name API Support
// @contact.email support@mealtrust.org

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	kitchenRepo := repository.NewKitchenRepository(db.DB)
	reviewRepo := repository.NewReviewRepository(db.DB)
	disputeRepo := repository.NewDisputeHistoryRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	notificationAuditRepo := repository.NewNotificationAuditRepository(db.DB)
	incidentRepo := repository.NewIncidentRepository(db.DB)
	badgeRepo := repository.NewBadgeRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	authSvc := service.NewAuthService(userRepo, authService)
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(db.DB, notificationRepo, notificationAuditRepo, kitchenRepo, userRepo, &cfg.Notify)
	reviewService := service.NewReviewService(db.DB, reviewRepo, disputeRepo, kitchenRepo, auditRepo, notificationService)
	trendService := service.NewTrendService(reviewRepo, incidentRepo, kitchenRepo)
	kitchenService := service.NewKitchenService(kitchenRepo, reviewRepo, badgeRepo)
	incidentService := service.NewIncidentService(incidentRepo, kitchenRepo)
	statsService := service.NewStatsService(kitchenRepo, reviewRepo, incidentRepo)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware()
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(db.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	kitchenHandler := handlers.NewKitchenHandler(kitchenService, reviewService, trendService)
	incidentHandler := handlers.NewIncidentHandler(incidentService)
	statsHandler := handlers.NewStatsHandler(statsService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Setup router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))

	mux.HandleFunc("GET /api/v1/reviews/public", reviewHandler.ListPublic)
	mux.HandleFunc("GET /api/v1/kitchens", kitchenHandler.List)
	mux.HandleFunc("GET /api/v1/kitchens/{id}", kitchenHandler.Get)
	mux.HandleFunc("GET /api/v1/kitchens/{id}/trend", kitchenHandler.GetTrend)
	mux.HandleFunc("GET /api/v1/kitchens/{id}/stats", kitchenHandler.GetStats)
	mux.HandleFunc("GET /api/v1/kitchens/{id}/badges", kitchenHandler.ListBadges)
	mux.HandleFunc("GET /api/v1/incidents", incidentHandler.List)
	mux.HandleFunc("GET /api/v1/stats/national", statsHandler.GetNationalStats)

	// Review lifecycle routes
	mux.Handle("POST /api/v1/reviews",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.SubmitReview)))
	mux.Handle("POST /api/v1/reviews/batch",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.SubmitBatch)))
	mux.Handle("GET /api/v1/reviews/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.GetReview)))
	mux.Handle("PATCH /api/v1/reviews/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.UpdateReview)))
	mux.Handle("DELETE /api/v1/reviews/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.DeleteReview)))
	mux.Handle("GET /api/v1/kitchens/{id}/reviews",
		authMw.Authenticate(http.HandlerFunc(kitchenHandler.ListReviews)))

	// Verification routes - admin only
	mux.Handle("POST /api/v1/reviews/{id}/verify",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				auditMw.Log("review_verification", "review")(
					http.HandlerFunc(reviewHandler.Verify),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/reviews/{id}/reject-verification",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				auditMw.Log("verification_rejection", "review")(
					http.HandlerFunc(reviewHandler.RejectVerification),
				),
			),
		),
	)

	// Dispute routes - filing is restricted to the reviewed party,
	// advancing to moderators
	mux.Handle("POST /api/v1/reviews/{id}/dispute",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(models.RoleKitchen, models.RoleSupplier)(
				auditMw.Log("dispute_filed", "review")(
					http.HandlerFunc(reviewHandler.FileDispute),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/reviews/{id}/dispute/advance",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				auditMw.Log("dispute_advanced", "review")(
					http.HandlerFunc(reviewHandler.AdvanceDispute),
				),
			),
		),
	)
	mux.Handle("GET /api/v1/reviews/{id}/dispute/history",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.GetDisputeHistory)))

	// Notification routes
	mux.Handle("GET /api/v1/notifications",
		authMw.Authenticate(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/notifications/{id}/view",
		authMw.Authenticate(http.HandlerFunc(notificationHandler.MarkViewed)))
	mux.Handle("POST /api/v1/notifications/{id}/resolve",
		authMw.Authenticate(http.HandlerFunc(notificationHandler.MarkResolved)))
	mux.Handle("GET /api/v1/notifications/{id}/audit",
		authMw.Authenticate(http.HandlerFunc(notificationHandler.GetAuditTrail)))

	// Incident reporting - admin only
	mux.Handle("POST /api/v1/incidents",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				http.HandlerFunc(incidentHandler.Report),
			),
		),
	)

	// Badge awarding - admin only
	mux.Handle("POST /api/v1/kitchens/{id}/badges",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				http.HandlerFunc(kitchenHandler.AwardBadge),
			),
		),
	)

	// Moderation audit log - admin only
	mux.Handle("GET /api/v1/audit/{type}/{id}",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				http.HandlerFunc(auditHandler.ListByEntity),
			),
		),
	)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
				return
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
			return
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
