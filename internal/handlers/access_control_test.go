package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mealtrust/internal/auth"
	"mealtrust/internal/config"
	"mealtrust/internal/handlers"
	"mealtrust/internal/middleware"
	"mealtrust/internal/models"
	"mealtrust/internal/repository"
	"mealtrust/internal/service"
	"mealtrust/internal/testutil"
)

// newRouter wires the moderation routes the way the server does, against
// a real database.
func newRouter(t *testing.T, containers *testutil.TestContainers) *http.ServeMux {
	t.Helper()
	db := containers.DB

	userRepo := repository.NewUserRepository(db)
	kitchenRepo := repository.NewKitchenRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	disputeRepo := repository.NewDisputeHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditTrailRepo := repository.NewNotificationAuditRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)

	notifyCfg := &config.NotifyConfig{RatingThreshold: 3.5}
	notificationService := service.NewNotificationService(db, notificationRepo, auditTrailRepo, kitchenRepo, userRepo, notifyCfg)
	reviewService := service.NewReviewService(db, reviewRepo, disputeRepo, kitchenRepo, auditRepo, notificationService)
	incidentService := service.NewIncidentService(incidentRepo, kitchenRepo)

	jwtCfg := &config.JWTConfig{
		Secret:     string(containers.JWTSecret),
		Expiration: time.Hour,
	}
	authMw := middleware.NewAuthMiddleware(auth.NewService(jwtCfg))
	rbacMw := middleware.NewRBACMiddleware()

	reviewHandler := handlers.NewReviewHandler(reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	incidentHandler := handlers.NewIncidentHandler(incidentService)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/reviews/{id}/verify",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				http.HandlerFunc(reviewHandler.Verify),
			),
		),
	)
	mux.Handle("POST /api/v1/reviews/{id}/dispute",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(models.RoleKitchen, models.RoleSupplier)(
				http.HandlerFunc(reviewHandler.FileDispute),
			),
		),
	)
	mux.Handle("GET /api/v1/notifications",
		authMw.Authenticate(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/incidents",
		authMw.Authenticate(
			rbacMw.RequireRole(models.RoleAdmin)(
				http.HandlerFunc(incidentHandler.Report),
			),
		),
	)
	return mux
}

func TestModerationAccessControl(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	mux := newRouter(t, containers)
	authHelper := testutil.NewAuthHelper()

	review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
	verifyURL := "/api/v1/reviews/" + review.ID.String() + "/verify"
	disputeURL := "/api/v1/reviews/" + review.ID.String() + "/dispute"

	t.Run("missing token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, verifyURL, strings.NewReader(`{"status":"in_progress"}`))
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatus(t, http.StatusUnauthorized)
	})

	t.Run("school cannot verify", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, verifyURL, strings.NewReader(`{"status":"in_progress"}`))
		authHelper.AddAuthHeader(t, req, fixtures.SchoolUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusForbidden(t)
	})

	t.Run("school cannot file disputes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, disputeURL, strings.NewReader(`{"reason":"unfair"}`))
		authHelper.AddAuthHeader(t, req, fixtures.SchoolUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusForbidden(t)
	})

	t.Run("kitchen files dispute on own review", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, disputeURL, strings.NewReader(`{"reason":"delivery logs disagree"}`))
		authHelper.AddAuthHeader(t, req, fixtures.KitchenUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusOK(t)
	})

	t.Run("admin advances verification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, verifyURL, strings.NewReader(`{"status":"in_progress"}`))
		authHelper.AddAuthHeader(t, req, fixtures.AdminUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusOK(t)
	})

	t.Run("admin retries the same transition and conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, verifyURL, strings.NewReader(`{"status":"in_progress"}`))
		authHelper.AddAuthHeader(t, req, fixtures.AdminUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusConflict(t)
	})

	incidentBody := func() string {
		return `{"kitchen_id":"` + fixtures.Kitchen.ID.String() +
			`","date":"2026-08-01T10:00:00Z","severity":"major","affected_count":12}`
	}

	t.Run("kitchen cannot report incidents", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader(incidentBody()))
		authHelper.AddAuthHeader(t, req, fixtures.KitchenUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusForbidden(t)
	})

	t.Run("admin reports an incident", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader(incidentBody()))
		authHelper.AddAuthHeader(t, req, fixtures.AdminUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusCreated(t)
	})

	t.Run("authenticated actor lists notifications", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		authHelper.AddAuthHeader(t, req, fixtures.KitchenUser)
		rec := testutil.NewTestResponse()
		mux.ServeHTTP(rec, req)
		rec.AssertStatusOK(t)
	})
}
