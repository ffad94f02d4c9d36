package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/service"
	"mealtrust/internal/testutil"
)

func TestComplianceTrend(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)
	svc := newServices(containers.DB)

	// monthStart avoids end-of-month drift when stepping back whole months.
	monthStart := func(monthsAgo int) time.Time {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -monthsAgo, 0)
	}
	backdate := func(t *testing.T, reviewID uuid.UUID, monthsAgo int) {
		t.Helper()
		created := monthStart(monthsAgo).Add(15 * 24 * time.Hour)
		if _, err := containers.DB.Exec(
			"UPDATE reviews SET created_at = $1 WHERE id = $2", created, reviewID); err != nil {
			t.Fatalf("Failed to backdate review: %v", err)
		}
	}

	// Two verified reviews this month with averages 4.25 and 3.25, one
	// verified review two months ago, and an unverified one that must not
	// count.
	fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
		r.VerificationStatus = models.VerificationVerified
		r.Verified = true
	})
	fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
		r.Ratings = models.HaccpRatings{Taste: 3.0, Hygiene: 3.5, Freshness: 3.0, Temperature: 3.5, Packaging: 3.0, Handling: 3.5}
		r.VerificationStatus = models.VerificationVerified
		r.Verified = true
	})

	old := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, func(r *models.Review) {
		r.VerificationStatus = models.VerificationVerified
		r.Verified = true
	})
	backdate(t, old.ID, 2)

	unverified := fixtures.CreateReview(t, fixtures.SchoolUser, fixtures.Kitchen.ID, nil)
	backdate(t, unverified.ID, 1)

	// One incident last month, in a month with no verified reviews.
	incidentDate := monthStart(1).Add(10 * 24 * time.Hour)
	if _, err := containers.DB.Exec(`
		INSERT INTO incidents (kitchen_id, date, severity, status)
		VALUES ($1, $2, 'major', 'investigating')
	`, fixtures.Kitchen.ID, incidentDate); err != nil {
		t.Fatalf("Failed to create incident: %v", err)
	}

	t.Run("window shape and ordering", func(t *testing.T) {
		points, err := svc.trend.GetTrend(fixtures.Kitchen.ID, 3)
		if err != nil {
			t.Fatalf("GetTrend failed: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("expected 3 points, got %d", len(points))
		}

		now := time.Now().UTC()
		currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i, point := range points {
			want := currentMonth.AddDate(0, -i, 0).Format("2006-01")
			if point.Month != want {
				t.Errorf("points[%d].Month = %s, want %s", i, point.Month, want)
			}
		}
	})

	t.Run("scores from verified reviews only", func(t *testing.T) {
		points, err := svc.trend.GetTrend(fixtures.Kitchen.ID, 3)
		if err != nil {
			t.Fatalf("GetTrend failed: %v", err)
		}

		// Current month: mean of 4.25 and 3.25, rounded to one decimal.
		if points[0].Score == nil {
			t.Fatal("current month should carry a score")
		}
		if math.Abs(*points[0].Score-3.8) > 1e-9 {
			t.Errorf("current month score = %v, want 3.8", *points[0].Score)
		}
		if points[0].ReviewCount != 2 {
			t.Errorf("current month review count = %d, want 2", points[0].ReviewCount)
		}

		// Last month has only an unverified review: nil score, never zero.
		if points[1].Score != nil {
			t.Errorf("month with no verified reviews must have nil score, got %v", *points[1].Score)
		}
		if points[1].IncidentCount != 1 {
			t.Errorf("incident count = %d, want 1", points[1].IncidentCount)
		}

		// Two months back has one verified review.
		if points[2].Score == nil {
			t.Fatal("month with a verified review should carry a score")
		}
		if math.Abs(*points[2].Score-4.3) > 1e-9 {
			t.Errorf("old month score = %v, want 4.3", *points[2].Score)
		}
	})

	t.Run("idempotent over unchanged data", func(t *testing.T) {
		first, err := svc.trend.GetTrend(fixtures.Kitchen.ID, 6)
		if err != nil {
			t.Fatalf("GetTrend failed: %v", err)
		}
		second, err := svc.trend.GetTrend(fixtures.Kitchen.ID, 6)
		if err != nil {
			t.Fatalf("GetTrend failed: %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("point counts differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].Month != second[i].Month || first[i].ReviewCount != second[i].ReviewCount ||
				first[i].IncidentCount != second[i].IncidentCount {
				t.Errorf("points[%d] differ between calls: %+v vs %+v", i, first[i], second[i])
			}
		}
	})

	t.Run("window bounds", func(t *testing.T) {
		for _, months := range []int{0, -1, 37} {
			_, err := svc.trend.GetTrend(fixtures.Kitchen.ID, months)
			var validationErr *service.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("months=%d: expected ValidationError, got %v", months, err)
			}
		}
		if _, err := svc.trend.GetTrend(fixtures.Kitchen.ID, 36); err != nil {
			t.Errorf("months=36 should be accepted: %v", err)
		}
	})

	t.Run("unknown kitchen", func(t *testing.T) {
		_, err := svc.trend.GetTrend(uuid.New(), 12)
		var notFound *service.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}
