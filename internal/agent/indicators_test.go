package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/fleetline/rentassist/internal/models"
)

func TestSentimentScore(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"gracias, excelente servicio", 1.0},
		{"mal servicio, queja", 0.0},
		{"el auto estaba limpio", 0.5},
		{"gracias pero hubo un problema", 0.5},
		{"GRACIAS, todo PERFECTO", 1.0},
	}
	for _, tc := range cases {
		if got := SentimentScore(tc.text); got != tc.want {
			t.Errorf("SentimentScore(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestQueryComplexity(t *testing.T) {
	short := "Respuesta corta."
	medium := strings.Repeat("palabra ", 30)
	long := strings.Repeat("palabra ", 80)

	if got := QueryComplexity("", short); got != models.ComplexitySimple {
		t.Errorf("short response: got %v, want simple", got)
	}
	if got := QueryComplexity("", medium); got != models.ComplexityMedium {
		t.Errorf("medium response: got %v, want medium", got)
	}
	if got := QueryComplexity("", long); got != models.ComplexityComplex {
		t.Errorf("long response: got %v, want complex", got)
	}

	// A very long query must not change the bucket.
	if got := QueryComplexity(strings.Repeat("consulta ", 100), short); got != models.ComplexitySimple {
		t.Errorf("query length leaked into complexity: got %v", got)
	}
}

func TestDeriveIndicators(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := &models.Interaction{
		CreatedAt: created,
		Query:     "quiero alquilar un auto",
		Response:  "Gracias por tu consulta, tu reserva está confirmada.",
	}
	ind := DeriveIndicators(in, 5.0, created.Add(90*time.Second))

	if ind.ResponseTime != 90 {
		t.Errorf("ResponseTime = %v, want 90", ind.ResponseTime)
	}
	if !ind.LedToBooking {
		t.Error("LedToBooking = false, want true for response mentioning reserva")
	}
	if ind.RequiredFollowup {
		t.Error("RequiredFollowup = true, want false")
	}
	if ind.SentimentScore != 1.0 {
		t.Errorf("SentimentScore = %v, want 1.0", ind.SentimentScore)
	}
	if ind.ComplexityLevel != models.ComplexitySimple {
		t.Errorf("ComplexityLevel = %v, want simple", ind.ComplexityLevel)
	}
}

func TestDeriveIndicatorsNoBooking(t *testing.T) {
	in := &models.Interaction{
		CreatedAt: time.Now().UTC(),
		Response:  "El SUV cuenta con GPS incluido.",
	}
	ind := DeriveIndicators(in, 3.0, time.Now().UTC())
	if ind.LedToBooking {
		t.Error("LedToBooking = true, want false")
	}
}
