package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the role of an authenticated user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleKitchen  Role = "kitchen"
	RoleSupplier Role = "supplier"
	RoleSchool   Role = "school"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleKitchen, RoleSupplier, RoleSchool:
		return true
	}
	return false
}

// ReviewerType identifies who submitted a review.
type ReviewerType string

const (
	ReviewerConsumer ReviewerType = "consumer"
	ReviewerSupplier ReviewerType = "supplier"
	ReviewerKitchen  ReviewerType = "kitchen"
)

func (t ReviewerType) IsValid() bool {
	switch t {
	case ReviewerConsumer, ReviewerSupplier, ReviewerKitchen:
		return true
	}
	return false
}

// VerificationStatus is the moderation state of a review.
// Transitions are strictly forward: unverified -> in_progress -> verified.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationInProgress VerificationStatus = "in_progress"
	VerificationVerified   VerificationStatus = "verified"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationUnverified, VerificationInProgress, VerificationVerified:
		return true
	}
	return false
}

// DisputeStatus is the dispute state of a review.
// Transitions are strictly forward: none -> disputed -> under_review -> resolved.
type DisputeStatus string

const (
	DisputeNone        DisputeStatus = "none"
	DisputeDisputed    DisputeStatus = "disputed"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
)

func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeNone, DisputeDisputed, DisputeUnderReview, DisputeResolved:
		return true
	}
	return false
}

// DisputeAction is the closed set of actions recorded in the dispute history.
type DisputeAction string

const (
	DisputeActionFiled       DisputeAction = "Filed"
	DisputeActionUnderReview DisputeAction = "UnderReview"
	DisputeActionResolved    DisputeAction = "Resolved"
	DisputeActionRejected    DisputeAction = "Rejected"
)

// ReportSource identifies the channel a review came through.
type ReportSource string

const (
	SourcePublic            ReportSource = "public"
	SourceOfficialInspector ReportSource = "official_inspector"
	SourceHealthWorker      ReportSource = "health_worker"
)

func (s ReportSource) IsValid() bool {
	switch s {
	case SourcePublic, SourceOfficialInspector, SourceHealthWorker:
		return true
	}
	return false
}

// ConfidenceLevel grades how credible a report source is.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// RatingCategory is one of the six HACCP quality/safety dimensions.
type RatingCategory string

const (
	CategoryTaste       RatingCategory = "taste"
	CategoryHygiene     RatingCategory = "hygiene"
	CategoryFreshness   RatingCategory = "freshness"
	CategoryTemperature RatingCategory = "temperature"
	CategoryPackaging   RatingCategory = "packaging"
	CategoryHandling    RatingCategory = "handling"
)

// categoryTiePriority orders dimensions for lowest-score tie breaking.
// Temperature and hygiene failures are the most safety-relevant.
var categoryTiePriority = []RatingCategory{
	CategoryTemperature,
	CategoryHygiene,
	CategoryHandling,
	CategoryFreshness,
	CategoryPackaging,
	CategoryTaste,
}

// RootCause is a tag from the fixed failure taxonomy.
type RootCause string

const (
	RootCauseSupplierQuality    RootCause = "supplier_quality"
	RootCauseStorageHandling    RootCause = "storage_handling"
	RootCauseTemperatureControl RootCause = "temperature_control"
	RootCauseHygienePractice    RootCause = "hygiene_practice"
	RootCauseCrossContamination RootCause = "cross_contamination"
	RootCausePackagingDefect    RootCause = "packaging_defect"
	RootCauseTransportDelay     RootCause = "transport_delay"
)

func (c RootCause) IsValid() bool {
	switch c {
	case RootCauseSupplierQuality, RootCauseStorageHandling, RootCauseTemperatureControl,
		RootCauseHygienePractice, RootCauseCrossContamination, RootCausePackagingDefect,
		RootCauseTransportDelay:
		return true
	}
	return false
}

// IsCritical reports whether the root cause alone can escalate a
// notification to critical priority when the report confidence is high.
func (c RootCause) IsCritical() bool {
	switch c {
	case RootCauseTemperatureControl, RootCauseHygienePractice, RootCauseCrossContamination:
		return true
	}
	return false
}

// HaccpRatings holds the six per-dimension scores of a review.
// Each value is in [0.0, 5.0] with 0.1 granularity.
type HaccpRatings struct {
	Taste       float64 `json:"taste"`
	Hygiene     float64 `json:"hygiene"`
	Freshness   float64 `json:"freshness"`
	Temperature float64 `json:"temperature"`
	Packaging   float64 `json:"packaging"`
	Handling    float64 `json:"handling"`
}

// ByCategory returns the score for a single dimension.
func (h HaccpRatings) ByCategory(c RatingCategory) float64 {
	switch c {
	case CategoryTaste:
		return h.Taste
	case CategoryHygiene:
		return h.Hygiene
	case CategoryFreshness:
		return h.Freshness
	case CategoryTemperature:
		return h.Temperature
	case CategoryPackaging:
		return h.Packaging
	case CategoryHandling:
		return h.Handling
	}
	return 0
}

// Average is the arithmetic mean of the six ratings. It is always derived
// from the stored ratings and never persisted on its own.
func (h HaccpRatings) Average() float64 {
	return (h.Taste + h.Hygiene + h.Freshness + h.Temperature + h.Packaging + h.Handling) / 6
}

// Lowest returns the dimension with the lowest score. Ties are broken by a
// fixed safety-relevance order: temperature, hygiene, handling, freshness,
// packaging, taste.
func (h HaccpRatings) Lowest() (RatingCategory, float64) {
	best := categoryTiePriority[0]
	bestScore := h.ByCategory(best)
	for _, c := range categoryTiePriority[1:] {
		if s := h.ByCategory(c); s < bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

// Evidence holds optional structured supporting data attached to a review.
type Evidence struct {
	PhotoTimestamp  *time.Time `json:"photo_timestamp,omitempty"`
	MenuCode        string     `json:"menu_code,omitempty"`
	SchoolLocation  string     `json:"school_location,omitempty"`
	ConsumptionTime string     `json:"consumption_time,omitempty"`
	Symptoms        []string   `json:"symptoms,omitempty"`
}

// Review is one submitted HACCP assessment of a kitchen.
type Review struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	KitchenID          uuid.UUID          `json:"kitchen_id" db:"kitchen_id"`
	ReviewerID         uuid.UUID          `json:"reviewer_id" db:"reviewer_id"`
	ReviewerName       string             `json:"reviewer_name" db:"reviewer_name"`
	ReviewerType       ReviewerType       `json:"reviewer_type" db:"reviewer_type"`
	Ratings            HaccpRatings       `json:"ratings"`
	AverageRating      float64            `json:"average_rating"` // derived, never stored
	Comment            string             `json:"comment" db:"comment"`
	Photos             []string           `json:"photos" db:"photos"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	ReportSource       ReportSource       `json:"report_source" db:"report_source"`
	ConfidenceLevel    ConfidenceLevel    `json:"confidence_level" db:"confidence_level"`
	RootCauses         []RootCause        `json:"root_causes" db:"root_causes"`
	Evidence           *Evidence          `json:"evidence,omitempty" db:"evidence"`
	DisputeStatus      DisputeStatus      `json:"dispute_status" db:"dispute_status"`
	Verified           bool               `json:"verified" db:"verified"`
	IsDraft            bool               `json:"is_draft" db:"is_draft"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// DisputeHistoryEntry is one append-only log row for a review's dispute
// lifecycle. Entries are never mutated or deleted.
type DisputeHistoryEntry struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ReviewID   uuid.UUID     `json:"review_id" db:"review_id"`
	Timestamp  time.Time     `json:"timestamp" db:"timestamp"`
	Action     DisputeAction `json:"action" db:"action"`
	ByUserID   *uuid.UUID    `json:"by_user_id,omitempty" db:"by_user_id"`
	ByUserCode string        `json:"by_user_code,omitempty" db:"by_user_code"`
	Notes      string        `json:"notes,omitempty" db:"notes"`
}

// NotificationPriority ranks how urgently a notification needs attention.
type NotificationPriority string

const (
	PriorityCritical NotificationPriority = "critical"
	PriorityMedium   NotificationPriority = "medium"
	PriorityMinor    NotificationPriority = "minor"
)

// NotificationStatus tracks acknowledgement of a notification.
// new -> viewed -> resolved, or new -> resolved; resolved is terminal.
type NotificationStatus string

const (
	NotificationNew      NotificationStatus = "new"
	NotificationViewed   NotificationStatus = "viewed"
	NotificationResolved NotificationStatus = "resolved"
)

// TargetRole selects which audience a notification is directed at.
type TargetRole string

const (
	TargetAll      TargetRole = "all"
	TargetKitchen  TargetRole = "kitchen"
	TargetSupplier TargetRole = "supplier"
	TargetConsumer TargetRole = "consumer"
)

// Notification is one actionable alert produced from a review event.
type Notification struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	Title       string               `json:"title" db:"title"`
	Description string               `json:"description" db:"description"`
	Category    RatingCategory       `json:"category" db:"category"`
	Priority    NotificationPriority `json:"priority" db:"priority"`
	KitchenCode string               `json:"kitchen_code,omitempty" db:"kitchen_code"`
	SchoolCode  string               `json:"school_code,omitempty" db:"school_code"`
	ReviewID    *uuid.UUID           `json:"review_id,omitempty" db:"review_id"`
	Status      NotificationStatus   `json:"status" db:"status"`
	TargetRole  TargetRole           `json:"target_role" db:"target_role"`
	CreatedBy   string               `json:"created_by" db:"created_by"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}

// NotificationAuditEntry is one append-only audit row for a notification.
type NotificationAuditEntry struct {
	ID             uuid.UUID `json:"id" db:"id"`
	NotificationID uuid.UUID `json:"notification_id" db:"notification_id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	Action         string    `json:"action" db:"action"`
	UserCode       string    `json:"user_code" db:"user_code"`
}

// ComplianceTrendPoint is one month of derived compliance data for a
// kitchen. Score is nil when the month has no verified reviews; it is
// never reported as zero in that case.
type ComplianceTrendPoint struct {
	KitchenID     uuid.UUID `json:"kitchen_id"`
	Month         string    `json:"month"` // YYYY-MM
	Score         *float64  `json:"score,omitempty"`
	IncidentCount int       `json:"incident_count"`
	ReviewCount   int       `json:"review_count"`
}

// IncidentSeverity grades a food safety incident.
type IncidentSeverity string

const (
	SeverityMinor    IncidentSeverity = "minor"
	SeverityMajor    IncidentSeverity = "major"
	SeverityCritical IncidentSeverity = "critical"
)

func (s IncidentSeverity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// IncidentStatus tracks the handling state of an incident.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentEscalated     IncidentStatus = "escalated"
)

func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentInvestigating, IncidentResolved, IncidentEscalated:
		return true
	}
	return false
}

// Incident is a reported food safety event tied to a kitchen. Incidents
// feed the monthly compliance trend regardless of review activity.
type Incident struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	KitchenID     uuid.UUID        `json:"kitchen_id" db:"kitchen_id"`
	Date          time.Time        `json:"date" db:"date"`
	Location      string           `json:"location,omitempty" db:"location"`
	Province      string           `json:"province,omitempty" db:"province"`
	FoodType      string           `json:"food_type,omitempty" db:"food_type"`
	AffectedCount int              `json:"affected_count" db:"affected_count"`
	Cause         string           `json:"cause,omitempty" db:"cause"`
	Severity      IncidentSeverity `json:"severity" db:"severity"`
	Status        IncidentStatus   `json:"status" db:"status"`
	Description   string           `json:"description,omitempty" db:"description"`
	ReportedBy    string           `json:"reported_by,omitempty" db:"reported_by"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Kitchen is a registered central kitchen.
type Kitchen struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Address     string    `json:"address,omitempty" db:"address"`
	City        string    `json:"city,omitempty" db:"city"`
	Province    string    `json:"province,omitempty" db:"province"`
	MealsServed int       `json:"meals_served" db:"meals_served"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// KitchenWithStats extends Kitchen with aggregates computed from reviews.
type KitchenWithStats struct {
	Kitchen
	TotalReviews  int      `json:"total_reviews"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// KitchenStats holds per-dimension aggregates for one kitchen.
type KitchenStats struct {
	KitchenID       uuid.UUID `json:"kitchen_id"`
	TotalReviews    int       `json:"total_reviews"`
	VerifiedReviews int       `json:"verified_reviews"`
	AverageRating   *float64  `json:"average_rating,omitempty"`
	TasteAvg        *float64  `json:"taste_avg,omitempty"`
	HygieneAvg      *float64  `json:"hygiene_avg,omitempty"`
	FreshnessAvg    *float64  `json:"freshness_avg,omitempty"`
	TemperatureAvg  *float64  `json:"temperature_avg,omitempty"`
	PackagingAvg    *float64  `json:"packaging_avg,omitempty"`
	HandlingAvg     *float64  `json:"handling_avg,omitempty"`
}

// RatingBucket is one bar of the review score distribution.
type RatingBucket struct {
	Bucket int `json:"bucket"` // floor of the average rating, 0..5
	Count  int `json:"count"`
}

// NationalStats is a point-in-time snapshot across all kitchens.
type NationalStats struct {
	TotalKitchens     int      `json:"total_kitchens"`
	TotalReviews      int      `json:"total_reviews"`
	VerifiedReviews   int      `json:"verified_reviews"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
	TotalIncidents    int      `json:"total_incidents"`
	ActiveIncidents   int      `json:"active_incidents"`
	ResolvedIncidents int      `json:"resolved_incidents"`
	CriticalIncidents int      `json:"critical_incidents"`
}

// PerformanceBadge is an award earned by a kitchen.
type PerformanceBadge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	KitchenID   uuid.UUID `json:"kitchen_id" db:"kitchen_id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	EarnedDate  time.Time `json:"earned_date" db:"earned_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// User is an authenticated actor. Password handling lives in the auth
// service; the core only consumes identity and role.
type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Role            Role       `json:"role" db:"role"`
	UniqueCode      string     `json:"unique_code" db:"unique_code"`
	Phone           string     `json:"phone,omitempty" db:"phone"`
	Verified        bool       `json:"verified" db:"verified"`
	InstitutionName string     `json:"institution_name,omitempty" db:"institution_name"`
	KitchenID       *uuid.UUID `json:"kitchen_id,omitempty" db:"kitchen_id"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	LastLogin       *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Actor is the identity attached to a request by the auth middleware.
type Actor struct {
	UserID    uuid.UUID
	Code      string
	Name      string
	Role      Role
	KitchenID *uuid.UUID
}

// IsModerator reports whether the actor may perform moderation actions
// (verification and dispute advancement).
func (a Actor) IsModerator() bool {
	return a.Role == RoleAdmin
}

// AuditLog records a moderator or system action on an entity.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	UserName   string     `json:"user_name,omitempty" db:"user_name"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   string     `json:"entity_id" db:"entity_id"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	IPAddress  string     `json:"ip_address,omitempty" db:"ip_address"`
	Details    string     `json:"details,omitempty" db:"details"`
}
