// Package models defines the core data structures for rentassist.
//
// It includes the situational context derived from customer queries, reusable
// response templates with their running quality statistics, and the interaction
// audit records shared across modules.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// VehicleType classifies the vehicle a customer is asking about.
type VehicleType string

const (
	VehicleCompact VehicleType = "compact"
	VehicleSedan   VehicleType = "sedan"
	VehicleSUV     VehicleType = "suv"
	VehicleLuxury  VehicleType = "luxury"
	VehicleVan     VehicleType = "van"
	// VehicleUnknown is used when no vehicle keyword matched the query.
	VehicleUnknown VehicleType = "unknown"
)

// PriceRange classifies the price band a customer is asking about.
// Unlike VehicleType there is no unknown value: queries without a price
// keyword default to PriceMedium.
type PriceRange string

const (
	PriceEconomic PriceRange = "economic"
	PriceMedium   PriceRange = "medium"
	PricePremium  PriceRange = "premium"
)

// Season represents the rental demand season derived from the calendar date.
type Season string

const (
	SeasonLow    Season = "low"
	SeasonMedium Season = "medium"
	SeasonHigh   Season = "high"
)

// Intent represents the detected intent of a customer query. Values keep the
// Spanish labels used by the support operation.
type Intent string

const (
	IntentQuote     Intent = "cotización"
	IntentBooking   Intent = "reserva"
	IntentInfo      Intent = "información"
	IntentComplaint Intent = "reclamo"
	IntentDamage    Intent = "daños"
)

// Category names for query classification. Categories are fixed reference
// data; classification always resolves to exactly one of these.
const (
	CategoryPricing     = "pricing"
	CategoryBooking     = "booking"
	CategoryVehicleInfo = "vehicle_info"
	CategoryDamage      = "damage"
	CategoryClaims      = "claims"
	CategoryGeneral     = "general"
)

// Complexity buckets an interaction by response word count.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Feedback score bounds and the threshold above which an interaction counts
// as successful for retrieval and template metrics.
const (
	MinFeedbackScore = 0.0
	MaxFeedbackScore = 5.0
	// SuccessFeedbackThreshold marks feedback as successful when score >= threshold.
	SuccessFeedbackThreshold = 4.0
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuery               = errors.New("query cannot be empty")
	ErrFeedbackScoreOutOfRange  = errors.New("feedback score must be between 0.0 and 5.0")
	ErrEmptyInteractionID       = errors.New("interaction id cannot be empty")
	ErrTemplateNotFound         = errors.New("template not found")
	ErrInteractionNotFound      = errors.New("interaction not found")
	ErrFeedbackAlreadyRecorded  = errors.New("feedback already recorded for interaction")
	ErrMissingTemplatePlacehold = errors.New("template placeholder missing from context")
)

// QueryCategory is a named classification bucket. Reference data created at
// setup time and read-only afterward.
type QueryCategory struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	SuccessPatterns []string `json:"success_patterns,omitempty"`
}

// ResponseTemplate is a reusable answer pattern tied to a category, carrying
// running usage and quality statistics. Statistics are mutated exclusively
// through ApplyFeedback.
type ResponseTemplate struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	Template        string    `json:"template"`
	ContextPattern  string    `json:"context_pattern,omitempty"`
	UseCount        int       `json:"use_count"`
	AverageFeedback float64   `json:"average_feedback"`
	SuccessRate     float64   `json:"success_rate"`
	LastUpdated     time.Time `json:"last_updated"`
}

// ApplyFeedback folds a new feedback score into the template's running
// statistics. The incremental mean weights the previous average by the
// pre-increment use count. The success rate is recomputed on every call,
// with an indicator of 0 for sub-threshold feedback, so its denominator
// always matches use_count.
func (t *ResponseTemplate) ApplyFeedback(score float64, now time.Time) {
	before := float64(t.UseCount)
	t.UseCount++
	after := float64(t.UseCount)

	t.AverageFeedback = (t.AverageFeedback*before + score) / after

	indicator := 0.0
	if score >= SuccessFeedbackThreshold {
		indicator = 1.0
	}
	t.SuccessRate = (t.SuccessRate*before + indicator) / after

	t.LastUpdated = now
}

// LocationInfo holds pickup and return locations extracted from a query.
// Either or both may be absent.
type LocationInfo struct {
	PickupLocation string `json:"pickup_location,omitempty"`
	ReturnLocation string `json:"return_location,omitempty"`
}

// DurationInfo holds the rental length extracted from a query. Zero days
// means no duration was mentioned.
type DurationInfo struct {
	DurationDays int `json:"duration_days,omitempty"`
}

// SpecialRequirements holds independent add-on flags mentioned in a query.
// Flags are not mutually exclusive; each is evaluated on its own.
type SpecialRequirements struct {
	GPS              bool `json:"gps"`
	ChildSeat        bool `json:"child_seat"`
	AdditionalDriver bool `json:"additional_driver"`
	Insurance        bool `json:"insurance"`
	Automatic        bool `json:"automatic"`
}

// SituationalContext is the structured per-query snapshot used for prompt
// construction and similarity scoring. Every field has a defined default so
// a built context is always fully populated and comparable.
type SituationalContext struct {
	Timestamp    time.Time           `json:"timestamp"`
	VehicleType  VehicleType         `json:"vehicle_type"`
	PriceRange   PriceRange          `json:"price_range"`
	Season       Season              `json:"season"`
	IsWeekend    bool                `json:"is_weekend"`
	QueryIntent  Intent              `json:"query_intent"`
	Location     LocationInfo        `json:"location_info"`
	Duration     DurationInfo        `json:"duration_info"`
	Requirements SpecialRequirements `json:"special_requirements"`
}

// Flatten serializes the context into a flat string mapping: timestamps as
// RFC 3339, enums and booleans as their string forms. The flat form is what
// gets embedded into interaction rows and substituted into templates.
func (c SituationalContext) Flatten() map[string]string {
	m := map[string]string{
		"timestamp":         c.Timestamp.Format(time.RFC3339),
		"vehicle_type":      string(c.VehicleType),
		"price_range":       string(c.PriceRange),
		"season":            string(c.Season),
		"is_weekend":        strconv.FormatBool(c.IsWeekend),
		"query_intent":      string(c.QueryIntent),
		"gps":               strconv.FormatBool(c.Requirements.GPS),
		"child_seat":        strconv.FormatBool(c.Requirements.ChildSeat),
		"additional_driver": strconv.FormatBool(c.Requirements.AdditionalDriver),
		"insurance":         strconv.FormatBool(c.Requirements.Insurance),
		"automatic":         strconv.FormatBool(c.Requirements.Automatic),
	}
	if c.Location.PickupLocation != "" {
		m["pickup_location"] = c.Location.PickupLocation
	}
	if c.Location.ReturnLocation != "" {
		m["return_location"] = c.Location.ReturnLocation
	}
	if c.Duration.DurationDays > 0 {
		m["duration_days"] = strconv.Itoa(c.Duration.DurationDays)
	}
	return m
}

// SuccessIndicators are derived quality signals attached to an interaction
// when feedback arrives.
type SuccessIndicators struct {
	ResponseTime float64 `json:"response_time"` // seconds since the interaction was created
	LedToBooking bool    `json:"led_to_booking"`
	// RequiredFollowup is a placeholder signal: always false until followup
	// detection is implemented.
	RequiredFollowup bool       `json:"required_followup"`
	SentimentScore   float64    `json:"sentiment_score"`
	ComplexityLevel  Complexity `json:"complexity_level"`
}

// Interaction is an audit record of one query/response exchange. It is
// immutable once created except for a single feedback attachment.
type Interaction struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	Query            string             `json:"query"`
	Response         string             `json:"response"`
	Category         string             `json:"category"`
	TemplateID       string             `json:"template_id,omitempty"`
	Context          map[string]string  `json:"context"`
	FeedbackScore    *float64           `json:"feedback_score,omitempty"`
	FeedbackComments string             `json:"feedback_comments,omitempty"`
	Indicators       *SuccessIndicators `json:"success_indicators,omitempty"`
}

// HasFeedback reports whether feedback has been attached to the interaction.
func (i *Interaction) HasFeedback() bool {
	return i.FeedbackScore != nil
}

// ValidateFeedbackScore checks that a feedback score is within the accepted
// 0.0–5.0 range.
func ValidateFeedbackScore(score float64) error {
	if score < MinFeedbackScore || score > MaxFeedbackScore {
		return fmt.Errorf("%w: got %.2f", ErrFeedbackScoreOutOfRange, score)
	}
	return nil
}

// DefaultCategories returns the fixed category reference set seeded into a
// store at setup time.
func DefaultCategories() []QueryCategory {
	return []QueryCategory{
		{Name: CategoryPricing, Description: "Rates, fees and quotes"},
		{Name: CategoryBooking, Description: "Reservations and availability"},
		{Name: CategoryVehicleInfo, Description: "Vehicle features and specifications"},
		{Name: CategoryDamage, Description: "Damage reports and assessments"},
		{Name: CategoryClaims, Description: "Complaints and claims handling"},
		{Name: CategoryGeneral, Description: "Anything that does not fit a specific bucket"},
	}
}
