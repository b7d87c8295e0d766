package agent

import (
	"strings"
	"time"

	"github.com/fleetline/rentassist/internal/models"
)

var positiveWords = []string{"gracias", "excelente", "perfecto", "genial", "ayuda"}

var negativeWords = []string{"problema", "error", "mal", "queja", "insatisfecho"}

// DeriveIndicators computes the success indicators for an interaction at
// feedback time.
func DeriveIndicators(in *models.Interaction, score float64, now time.Time) models.SuccessIndicators {
	return models.SuccessIndicators{
		ResponseTime:     now.Sub(in.CreatedAt).Seconds(),
		LedToBooking:     strings.Contains(strings.ToLower(in.Response), "reserva"),
		RequiredFollowup: false,
		SentimentScore:   SentimentScore(in.Response),
		ComplexityLevel:  QueryComplexity(in.Query, in.Response),
	}
}

// SentimentScore rates a response by keyword counts: the positive fraction
// of all sentiment hits, or 0.5 when no keyword matches.
func SentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.5
	}
	return float64(pos) / float64(pos+neg)
}

// QueryComplexity buckets an interaction by response length. The query is
// accepted for signature stability but does not influence the result.
func QueryComplexity(query, response string) models.Complexity {
	words := len(strings.Fields(response))
	switch {
	case words < 20:
		return models.ComplexitySimple
	case words < 50:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}
