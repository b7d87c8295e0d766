package models

import (
	"testing"
	"time"
)

func TestApplyFeedbackFirstScore(t *testing.T) {
	tmpl := ResponseTemplate{ID: "t1", Category: CategoryPricing, Template: "Tarifa {price_range}"}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tmpl.ApplyFeedback(5.0, now)

	if tmpl.UseCount != 1 {
		t.Errorf("expected use_count 1, got %d", tmpl.UseCount)
	}
	if tmpl.AverageFeedback != 5.0 {
		t.Errorf("expected average_feedback 5.0, got %v", tmpl.AverageFeedback)
	}
	if tmpl.SuccessRate != 1.0 {
		t.Errorf("expected success_rate 1.0, got %v", tmpl.SuccessRate)
	}
	if !tmpl.LastUpdated.Equal(now) {
		t.Errorf("expected last_updated %v, got %v", now, tmpl.LastUpdated)
	}
}

func TestApplyFeedbackSequence(t *testing.T) {
	tmpl := ResponseTemplate{ID: "t1"}
	now := time.Now()

	tmpl.ApplyFeedback(5.0, now)
	tmpl.ApplyFeedback(1.0, now)

	if tmpl.UseCount != 2 {
		t.Errorf("expected use_count 2, got %d", tmpl.UseCount)
	}
	if tmpl.AverageFeedback != 3.0 {
		t.Errorf("expected average_feedback 3.0, got %v", tmpl.AverageFeedback)
	}
	// Success rate is recomputed on every call: one success out of two uses.
	if tmpl.SuccessRate != 0.5 {
		t.Errorf("expected success_rate 0.5, got %v", tmpl.SuccessRate)
	}
}

func TestApplyFeedbackThresholdBoundary(t *testing.T) {
	tmpl := ResponseTemplate{ID: "t1"}
	tmpl.ApplyFeedback(4.0, time.Now())
	if tmpl.SuccessRate != 1.0 {
		t.Errorf("score 4.0 should count as success, got rate %v", tmpl.SuccessRate)
	}
	tmpl2 := ResponseTemplate{ID: "t2"}
	tmpl2.ApplyFeedback(3.99, time.Now())
	if tmpl2.SuccessRate != 0.0 {
		t.Errorf("score 3.99 should not count as success, got rate %v", tmpl2.SuccessRate)
	}
}

func TestValidateFeedbackScore(t *testing.T) {
	for _, score := range []float64{0.0, 2.5, 5.0} {
		if err := ValidateFeedbackScore(score); err != nil {
			t.Errorf("score %v should be valid: %v", score, err)
		}
	}
	for _, score := range []float64{-0.1, 5.1, 100} {
		if err := ValidateFeedbackScore(score); err == nil {
			t.Errorf("score %v should be rejected", score)
		}
	}
}

func TestFlattenFullyPopulated(t *testing.T) {
	ctx := SituationalContext{
		Timestamp:   time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
		VehicleType: VehicleSUV,
		PriceRange:  PriceMedium,
		Season:      SeasonHigh,
		IsWeekend:   true,
		QueryIntent: IntentQuote,
		Location:    LocationInfo{PickupLocation: "aeropuerto"},
		Duration:    DurationInfo{DurationDays: 3},
		Requirements: SpecialRequirements{
			GPS: true,
		},
	}

	flat := ctx.Flatten()

	expect := map[string]string{
		"timestamp":       "2024-01-10T09:30:00Z",
		"vehicle_type":    "suv",
		"price_range":     "medium",
		"season":          "high",
		"is_weekend":      "true",
		"query_intent":    "cotización",
		"pickup_location": "aeropuerto",
		"duration_days":   "3",
		"gps":             "true",
		"child_seat":      "false",
	}
	for key, want := range expect {
		if got := flat[key]; got != want {
			t.Errorf("flat[%q] = %q, want %q", key, got, want)
		}
	}
	if _, ok := flat["return_location"]; ok {
		t.Error("absent return location should not be present in flat context")
	}
}

func TestFlattenOmitsAbsentOptionals(t *testing.T) {
	flat := SituationalContext{}.Flatten()
	for _, key := range []string{"pickup_location", "return_location", "duration_days"} {
		if _, ok := flat[key]; ok {
			t.Errorf("key %q should be omitted for zero-value context", key)
		}
	}
	// Mandatory fields are always present, even on a zero value.
	for _, key := range []string{"timestamp", "vehicle_type", "price_range", "season", "is_weekend", "query_intent"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("mandatory key %q missing from flat context", key)
		}
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	resp := Success(map[string]string{"k": "v"})
	if resp.Status != string(APIStatusOK) {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
	errResp := Error("boom")
	if errResp.Status != string(APIStatusError) || errResp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", errResp)
	}
	rec := Recorded(nil)
	if rec.Status != string(APIStatusRecorded) {
		t.Errorf("expected status recorded, got %s", rec.Status)
	}
}
