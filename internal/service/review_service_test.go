package service_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"mealtrust/internal/config"
	"mealtrust/internal/models"
	"mealtrust/internal/repository"
	"mealtrust/internal/service"
	"mealtrust/internal/testutil"
)

type services struct {
	reviews       *service.ReviewService
	notifications *service.NotificationService
	trend         *service.TrendService

	reviewRepo       *repository.ReviewRepository
	notificationRepo *repository.NotificationRepository
	auditTrailRepo   *repository.NotificationAuditRepository
	disputeRepo      *repository.DisputeHistoryRepository
	auditRepo        *repository.AuditRepository
}

func newServices(db *sql.DB) *services {
	userRepo := repository.NewUserRepository(db)
	kitchenRepo := repository.NewKitchenRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	disputeRepo := repository.NewDisputeHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditTrailRepo := repository.NewNotificationAuditRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notifyCfg := &config.NotifyConfig{RatingThreshold: 3.5}
	notifications := service.NewNotificationService(db, notificationRepo, auditTrailRepo, kitchenRepo, userRepo, notifyCfg)
	reviews := service.NewReviewService(db, reviewRepo, disputeRepo, kitchenRepo, auditRepo, notifications)
	trend := service.NewTrendService(reviewRepo, incidentRepo, kitchenRepo)

	return &services{
		reviews:          reviews,
		notifications:    notifications,
		trend:            trend,
		reviewRepo:       reviewRepo,
		notificationRepo: notificationRepo,
		auditTrailRepo:   auditTrailRepo,
		disputeRepo:      disputeRepo,
		auditRepo:        auditRepo,
	}
}

func validSubmission(kitchenID uuid.UUID) service.SubmitReviewInput {
	return service.SubmitReviewInput{
		KitchenID:    kitchenID,
		ReviewerType: models.ReviewerConsumer,
		Ratings:      testutil.DefaultRatings(),
		Comment:      "Meals arrived on time and at temperature.",
		ReportSource: models.SourcePublic,
	}
}

func TestSubmitReview(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)
	school := testutil.Actor(fixtures.SchoolUser)

	t.Run("defaults", func(t *testing.T) {
		review, err := svc.reviews.Submit(school, validSubmission(fixtures.Kitchen.ID))
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if review.VerificationStatus != models.VerificationUnverified {
			t.Errorf("new review verification = %s, want unverified", review.VerificationStatus)
		}
		if review.DisputeStatus != models.DisputeNone {
			t.Errorf("new review dispute = %s, want none", review.DisputeStatus)
		}
		if review.ConfidenceLevel != models.ConfidenceMedium {
			t.Errorf("public report confidence = %s, want medium", review.ConfidenceLevel)
		}
		if review.Verified {
			t.Error("new review must not be verified")
		}
		if review.AverageRating == 0 {
			t.Error("average rating should be derived on submission")
		}
	})

	t.Run("official inspector defaults to high confidence", func(t *testing.T) {
		input := validSubmission(fixtures.Kitchen.ID)
		input.ReportSource = models.SourceOfficialInspector
		review, err := svc.reviews.Submit(school, input)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if review.ConfidenceLevel != models.ConfidenceHigh {
			t.Errorf("inspector report confidence = %s, want high", review.ConfidenceLevel)
		}
	})

	t.Run("unknown kitchen", func(t *testing.T) {
		_, err := svc.reviews.Submit(school, validSubmission(uuid.New()))
		var notFound *service.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*service.SubmitReviewInput)
			field  string
		}{
			{"rating above range", func(in *service.SubmitReviewInput) { in.Ratings.Taste = 5.5 }, "taste"},
			{"rating below range", func(in *service.SubmitReviewInput) { in.Ratings.Hygiene = -0.1 }, "hygiene"},
			{"rating granularity", func(in *service.SubmitReviewInput) { in.Ratings.Temperature = 3.55 }, "temperature"},
			{"comment too short", func(in *service.SubmitReviewInput) { in.Comment = "too short" }, "comment"},
			{"too many photos", func(in *service.SubmitReviewInput) {
				in.Photos = []string{"a", "b", "c", "d", "e", "f"}
			}, "photos"},
			{"unknown root cause", func(in *service.SubmitReviewInput) {
				in.RootCauses = []models.RootCause{"bad_weather"}
			}, "root_causes"},
			{"unknown reviewer type", func(in *service.SubmitReviewInput) { in.ReviewerType = "inspector" }, "reviewer_type"},
			{"unknown confidence", func(in *service.SubmitReviewInput) { in.ConfidenceLevel = "certain" }, "confidence_level"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				input := validSubmission(fixtures.Kitchen.ID)
				tc.mutate(&input)
				_, err := svc.reviews.Submit(school, input)
				var validationErr *service.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if validationErr.Field != tc.field {
					t.Errorf("validation field = %s, want %s", validationErr.Field, tc.field)
				}
			})
		}
	})

	t.Run("batch items are independent", func(t *testing.T) {
		bad := validSubmission(fixtures.Kitchen.ID)
		bad.Comment = "short"
		results := svc.reviews.SubmitBatch(school, []service.SubmitReviewInput{
			validSubmission(fixtures.Kitchen.ID),
			bad,
			validSubmission(fixtures.Kitchen.ID),
		})
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if results[0].Error != "" || results[0].Review == nil {
			t.Errorf("first item should succeed: %+v", results[0])
		}
		if results[1].Error == "" {
			t.Error("second item should fail validation")
		}
		if results[2].Error != "" || results[2].Review == nil {
			t.Errorf("third item should succeed despite second failing: %+v", results[2])
		}
	})
}

func TestAuthorEditRules(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)

	school := testutil.Actor(fixtures.SchoolUser)
	other := testutil.Actor(fixtures.SupplierUser)
	newComment := "Updated: the delivery temperature log was incomplete."

	t.Run("owner can edit before verification", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		updated, err := svc.reviews.Update(school, review.ID, service.UpdateReviewInput{Comment: &newComment})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Comment != newComment {
			t.Errorf("comment not updated: %s", updated.Comment)
		}
	})

	t.Run("non-owner cannot edit", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		_, err := svc.reviews.Update(other, review.ID, service.UpdateReviewInput{Comment: &newComment})
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("verified review is immutable even for owner", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.VerificationStatus = models.VerificationVerified
			r.Verified = true
		})
		_, err := svc.reviews.Update(school, review.ID, service.UpdateReviewInput{Comment: &newComment})
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("verified review cannot be deleted", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.VerificationStatus = models.VerificationVerified
			r.Verified = true
		})
		err := svc.reviews.Delete(school, review.ID)
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("owner can delete unverified review", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		if err := svc.reviews.Delete(school, review.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, err := svc.reviews.GetByID(review.ID)
		var notFound *service.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected NotFoundError after delete, got %v", err)
		}
	})
}

func TestVerificationStateMachine(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)

	admin := testutil.Actor(fixtures.AdminUser)
	school := testutil.Actor(fixtures.SchoolUser)

	t.Run("forward transitions", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)

		review, err := svc.reviews.SetVerificationStatus(admin, review.ID, models.VerificationInProgress)
		if err != nil {
			t.Fatalf("unverified -> in_progress failed: %v", err)
		}
		if review.VerificationStatus != models.VerificationInProgress {
			t.Errorf("status = %s, want in_progress", review.VerificationStatus)
		}

		review, err = svc.reviews.SetVerificationStatus(admin, review.ID, models.VerificationVerified)
		if err != nil {
			t.Fatalf("in_progress -> verified failed: %v", err)
		}
		if !review.Verified {
			t.Error("verified flag should be set")
		}
	})

	t.Run("skipping in_progress is rejected", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		_, err := svc.reviews.SetVerificationStatus(admin, review.ID, models.VerificationVerified)
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})

	t.Run("verified is terminal", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.VerificationStatus = models.VerificationVerified
			r.Verified = true
		})
		_, err := svc.reviews.SetVerificationStatus(admin, review.ID, models.VerificationInProgress)
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})

	t.Run("non-moderator cannot verify", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		_, err := svc.reviews.SetVerificationStatus(school, review.ID, models.VerificationInProgress)
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("reject returns in_progress to unverified", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.VerificationStatus = models.VerificationInProgress
		})
		review, err := svc.reviews.RejectVerification(admin, review.ID, "photos do not match the menu code")
		if err != nil {
			t.Fatalf("RejectVerification failed: %v", err)
		}
		if review.VerificationStatus != models.VerificationUnverified {
			t.Errorf("status = %s, want unverified", review.VerificationStatus)
		}

		logs, err := svc.auditRepo.ListByEntity("review", review.ID.String())
		if err != nil {
			t.Fatalf("ListByEntity failed: %v", err)
		}
		found := false
		for _, entry := range logs {
			if entry.Action == "verification_rejected" {
				found = true
			}
		}
		if !found {
			t.Error("expected a verification_rejected audit entry")
		}
	})

	t.Run("verified review cannot be rejected", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.VerificationStatus = models.VerificationVerified
			r.Verified = true
		})
		_, err := svc.reviews.RejectVerification(admin, review.ID, "too late")
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})
}

func TestDisputeLifecycle(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)

	admin := testutil.Actor(fixtures.AdminUser)
	kitchen := testutil.Actor(fixtures.KitchenUser)
	school := testutil.Actor(fixtures.SchoolUser)

	t.Run("full lifecycle with rejected outcome", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)

		review, err := svc.reviews.FileDispute(kitchen, review.ID, "delivery logs contradict the claimed temperature")
		if err != nil {
			t.Fatalf("FileDispute failed: %v", err)
		}
		if review.DisputeStatus != models.DisputeDisputed {
			t.Errorf("status = %s, want disputed", review.DisputeStatus)
		}

		review, err = svc.reviews.AdvanceDispute(admin, review.ID, models.DisputeUnderReview, false, "")
		if err != nil {
			t.Fatalf("advance to under_review failed: %v", err)
		}

		review, err = svc.reviews.AdvanceDispute(admin, review.ID, models.DisputeResolved, false, "logs confirm the review")
		if err != nil {
			t.Fatalf("advance to resolved failed: %v", err)
		}
		if review.DisputeStatus != models.DisputeResolved {
			t.Errorf("status = %s, want resolved", review.DisputeStatus)
		}

		history, err := svc.reviews.GetDisputeHistory(review.ID)
		if err != nil {
			t.Fatalf("GetDisputeHistory failed: %v", err)
		}
		wantActions := []models.DisputeAction{
			models.DisputeActionFiled,
			models.DisputeActionUnderReview,
			models.DisputeActionRejected,
		}
		if len(history) != len(wantActions) {
			t.Fatalf("history length = %d, want %d", len(history), len(wantActions))
		}
		for i, want := range wantActions {
			if history[i].Action != want {
				t.Errorf("history[%d].Action = %s, want %s", i, history[i].Action, want)
			}
		}
	})

	t.Run("upheld resolution records Resolved", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.DisputeStatus = models.DisputeUnderReview
		})
		_, err := svc.reviews.AdvanceDispute(admin, review.ID, models.DisputeResolved, true, "review was inaccurate")
		if err != nil {
			t.Fatalf("AdvanceDispute failed: %v", err)
		}
		history, err := svc.reviews.GetDisputeHistory(review.ID)
		if err != nil {
			t.Fatalf("GetDisputeHistory failed: %v", err)
		}
		if len(history) != 1 || history[0].Action != models.DisputeActionResolved {
			t.Errorf("expected a single Resolved entry, got %+v", history)
		}
	})

	t.Run("disputes may target unverified reviews", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		if review.VerificationStatus != models.VerificationUnverified {
			t.Fatal("precondition: review should be unverified")
		}
		if _, err := svc.reviews.FileDispute(kitchen, review.ID, "contested before verification"); err != nil {
			t.Errorf("filing on unverified review should succeed: %v", err)
		}
	})

	t.Run("school actors cannot file", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		_, err := svc.reviews.FileDispute(school, review.ID, "unhappy")
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("kitchen actor of another kitchen cannot file", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.OtherKitchen.ID, nil)
		_, err := svc.reviews.FileDispute(kitchen, review.ID, "not my kitchen")
		var forbidden *service.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("double filing is rejected", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.DisputeStatus = models.DisputeDisputed
		})
		_, err := svc.reviews.FileDispute(kitchen, review.ID, "again")
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})

	t.Run("skipping under_review is rejected", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
			r.DisputeStatus = models.DisputeDisputed
		})
		_, err := svc.reviews.AdvanceDispute(admin, review.ID, models.DisputeResolved, true, "")
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})

	t.Run("advancing without a dispute is rejected", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
		_, err := svc.reviews.AdvanceDispute(admin, review.ID, models.DisputeDisputed, false, "")
		var transitionErr *service.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("expected InvalidTransitionError, got %v", err)
		}
	})
}
