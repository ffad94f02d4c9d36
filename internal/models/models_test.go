package models

import (
	"math"
	"testing"
)

func ratings(taste, hygiene, freshness, temperature, packaging, handling float64) HaccpRatings {
	return HaccpRatings{
		Taste:       taste,
		Hygiene:     hygiene,
		Freshness:   freshness,
		Temperature: temperature,
		Packaging:   packaging,
		Handling:    handling,
	}
}

func TestHaccpRatingsAverage(t *testing.T) {
	r := ratings(4.0, 4.5, 4.0, 4.5, 4.0, 4.5)
	want := 4.25
	if got := r.Average(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Average() = %v, want %v", got, want)
	}
}

func TestHaccpRatingsLowest(t *testing.T) {
	tests := []struct {
		name         string
		ratings      HaccpRatings
		wantCategory RatingCategory
		wantScore    float64
	}{
		{
			name:         "single lowest dimension",
			ratings:      ratings(1.5, 4.0, 4.0, 4.5, 4.0, 4.0),
			wantCategory: CategoryTaste,
			wantScore:    1.5,
		},
		{
			name:         "all equal picks temperature first",
			ratings:      ratings(3.0, 3.0, 3.0, 3.0, 3.0, 3.0),
			wantCategory: CategoryTemperature,
			wantScore:    3.0,
		},
		{
			name:         "hygiene beats handling on tie",
			ratings:      ratings(4.0, 2.0, 4.0, 4.0, 4.0, 2.0),
			wantCategory: CategoryHygiene,
			wantScore:    2.0,
		},
		{
			name:         "temperature beats hygiene on tie",
			ratings:      ratings(4.0, 2.5, 4.0, 2.5, 4.0, 4.0),
			wantCategory: CategoryTemperature,
			wantScore:    2.5,
		},
		{
			name:         "freshness beats packaging and taste on tie",
			ratings:      ratings(1.0, 4.0, 1.0, 4.0, 1.0, 4.0),
			wantCategory: CategoryFreshness,
			wantScore:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, score := tt.ratings.Lowest()
			if category != tt.wantCategory {
				t.Errorf("Lowest() category = %s, want %s", category, tt.wantCategory)
			}
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("Lowest() score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestRootCauseIsCritical(t *testing.T) {
	critical := []RootCause{RootCauseTemperatureControl, RootCauseHygienePractice, RootCauseCrossContamination}
	for _, c := range critical {
		if !c.IsCritical() {
			t.Errorf("%s should be critical", c)
		}
	}

	benign := []RootCause{RootCauseSupplierQuality, RootCauseStorageHandling, RootCausePackagingDefect, RootCauseTransportDelay}
	for _, c := range benign {
		if c.IsCritical() {
			t.Errorf("%s should not be critical", c)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !RoleAdmin.IsValid() || Role("superuser").IsValid() {
		t.Error("Role validity check broken")
	}
	if !VerificationInProgress.IsValid() || VerificationStatus("rejected").IsValid() {
		t.Error("VerificationStatus validity check broken")
	}
	if !DisputeUnderReview.IsValid() || DisputeStatus("open").IsValid() {
		t.Error("DisputeStatus validity check broken")
	}
	if !SourceOfficialInspector.IsValid() || ReportSource("anonymous").IsValid() {
		t.Error("ReportSource validity check broken")
	}
	if !RootCauseTransportDelay.IsValid() || RootCause("bad_luck").IsValid() {
		t.Error("RootCause validity check broken")
	}
	if !SeverityCritical.IsValid() || IncidentSeverity("fatal").IsValid() {
		t.Error("IncidentSeverity validity check broken")
	}
}

func TestActorIsModerator(t *testing.T) {
	if !(Actor{Role: RoleAdmin}).IsModerator() {
		t.Error("admin should be a moderator")
	}
	for _, role := range []Role{RoleKitchen, RoleSupplier, RoleSchool} {
		if (Actor{Role: role}).IsModerator() {
			t.Errorf("%s should not be a moderator", role)
		}
	}
}
