package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/service"
	"mealtrust/internal/testutil"
)

func TestCompareAndSwapTransitions(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)
	admin := testutil.Actor(fixtures.AdminUser)

	t.Run("stale verification status updates nothing", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)

		tx, err := containers.DB.Begin()
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		// The review is unverified; expecting in_progress is stale.
		applied, err := svc.reviewRepo.UpdateVerificationStatusTx(tx, review.ID,
			models.VerificationInProgress, models.VerificationVerified)
		if err != nil {
			t.Fatalf("UpdateVerificationStatusTx failed: %v", err)
		}
		if applied {
			t.Fatal("swap with a stale expected status must not apply")
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}

		got, err := svc.reviews.GetByID(review.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.VerificationStatus != models.VerificationUnverified {
			t.Errorf("verification status = %s, want unverified", got.VerificationStatus)
		}
	})

	t.Run("stale dispute status updates nothing", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)

		tx, err := containers.DB.Begin()
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		// The review has no dispute; expecting disputed is stale.
		applied, err := svc.reviewRepo.UpdateDisputeStatusTx(tx, review.ID,
			models.DisputeDisputed, models.DisputeUnderReview)
		if err != nil {
			t.Fatalf("UpdateDisputeStatusTx failed: %v", err)
		}
		if applied {
			t.Fatal("swap with a stale expected status must not apply")
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}
	})

	t.Run("stale notification status updates nothing", func(t *testing.T) {
		var notificationID uuid.UUID
		err := containers.DB.QueryRow(`
			INSERT INTO notifications (title, category, priority, status, target_role, created_by)
			VALUES ('Low hygiene rating', 'hygiene', 'medium', 'resolved', 'kitchen', $1)
			RETURNING id
		`, fixtures.SchoolUser.UniqueCode).Scan(&notificationID)
		if err != nil {
			t.Fatalf("Failed to create notification: %v", err)
		}

		tx, err := containers.DB.Begin()
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		// The notification is resolved; expecting new is stale.
		applied, err := svc.notificationRepo.UpdateStatusTx(tx, notificationID,
			models.NotificationNew, models.NotificationViewed)
		if err != nil {
			t.Fatalf("UpdateStatusTx failed: %v", err)
		}
		if applied {
			t.Fatal("swap with a stale expected status must not apply")
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}
	})

	t.Run("loser of a verification race gets concurrent modification", func(t *testing.T) {
		review := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)

		// A competing transition holds the row lock uncommitted. The service
		// reads the old status, validates the transition, and then its
		// conditional update waits on the lock. Once the competitor commits,
		// the update re-checks the status, matches zero rows, and the
		// service reports the lost race.
		tx, err := containers.DB.Begin()
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		if _, err := tx.Exec(
			`UPDATE reviews SET verification_status = 'in_progress' WHERE id = $1`, review.ID); err != nil {
			t.Fatalf("Failed to stage competing transition: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			_, err := svc.reviews.SetVerificationStatus(admin, review.ID, models.VerificationInProgress)
			done <- err
		}()

		// Give the service time to read the row and block on the update.
		time.Sleep(500 * time.Millisecond)
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		if err := <-done; !errors.Is(err, service.ErrConcurrentModification) {
			t.Errorf("expected ErrConcurrentModification, got %v", err)
		}

		got, err := svc.reviews.GetByID(review.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.VerificationStatus != models.VerificationInProgress {
			t.Errorf("verification status = %s, want the winner's in_progress", got.VerificationStatus)
		}
	})
}
