// Package optimizer implements the response optimization and retrieval
// engine: it decides whether a historical answer template should be reused
// for an incoming query, and maintains running template quality statistics
// from feedback.
package optimizer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetline/rentassist/internal/models"
	"github.com/fleetline/rentassist/internal/store"
)

// Scoring weights and candidate-pool bounds.
const (
	// HistoryWindow bounds the candidate pool to recent interactions.
	HistoryWindow = 30 * 24 * time.Hour

	textWeight    = 0.7
	contextWeight = 0.3

	vehicleWeight = 0.4
	priceWeight   = 0.3
	seasonWeight  = 0.3
)

// priceBands maps the categorical price ranges to numeric daily-rate bands.
// Bands overlap at the edges so adjacent categories score partial similarity
// under interval overlap; equal categories always score 1.0.
var priceBands = map[models.PriceRange][2]float64{
	models.PriceEconomic: {20, 45},
	models.PriceMedium:   {40, 120},
	models.PricePremium:  {110, 400},
}

// Optimizer selects reusable response templates from interaction history and
// records template feedback.
type Optimizer struct {
	store store.Store
	now   func() time.Time
}

// New creates an optimizer over the given store.
func New(st store.Store) *Optimizer {
	return &Optimizer{store: st, now: time.Now}
}

// NewAt creates an optimizer with a fixed clock for deterministic window
// filtering in tests.
func NewAt(st store.Store, now func() time.Time) *Optimizer {
	return &Optimizer{store: st, now: now}
}

// SelectTemplate searches the recent successful interaction history for the
// best-matching response template. It returns (nil, nil) when no candidate
// qualifies: an empty pool, a degenerate pool with no scorable query text,
// or no candidate with a strictly positive combined score. Pure read path.
func (o *Optimizer) SelectTemplate(query string, ctx models.SituationalContext) (*models.ResponseTemplate, error) {
	since := o.now().Add(-HistoryWindow)
	pool, err := o.store.RecentSuccessfulInteractions(models.SuccessFeedbackThreshold, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}
	if len(pool) == 0 {
		slog.Debug("Optimizer.SelectTemplate: empty candidate pool")
		return nil, nil
	}

	// A pool whose query texts carry no tokens cannot be vectorized; the
	// defined fallback is no template rather than an error.
	scorable := false
	docs := make([]string, 0, len(pool)+1)
	for _, cand := range pool {
		docs = append(docs, cand.Query)
		if len(tokenize(cand.Query)) > 0 {
			scorable = true
		}
	}
	if !scorable {
		slog.Debug("Optimizer.SelectTemplate: candidate pool has no scorable query text")
		return nil, nil
	}

	// The vectorizer is fit jointly over the candidate queries plus the
	// incoming query, and discarded when the call returns.
	docs = append(docs, query)
	vec := fitVectorizer(docs)
	queryVec := vec.vectorize(query)

	var best *models.Interaction
	bestScore := 0.0
	for i := range pool {
		cand := &pool[i]
		textScore := cosineSimilarity(queryVec, vec.vectorize(cand.Query))
		ctxScore := ContextSimilarity(ctx, cand.Context)
		combined := textWeight*textScore + contextWeight*ctxScore

		// Strict improvement only: ties keep the earlier candidate, and a
		// combined score of exactly 0 is never eligible.
		if combined > bestScore {
			bestScore = combined
			best = cand
		}
	}

	if best == nil || best.TemplateID == "" {
		slog.Debug("Optimizer.SelectTemplate: no eligible template", "best_score", bestScore)
		return nil, nil
	}

	tmpl, err := o.store.GetTemplate(best.TemplateID)
	if errors.Is(err, models.ErrTemplateNotFound) {
		slog.Warn("Optimizer.SelectTemplate: winning interaction references missing template",
			"interaction", best.ID, "template", best.TemplateID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selected template: %w", err)
	}
	slog.Debug("Optimizer.SelectTemplate: template selected",
		"template", tmpl.ID, "score", bestScore, "interaction", best.ID)
	return tmpl, nil
}

// RecordFeedback folds a feedback score into the referenced template's
// running statistics and returns the updated template. The update is
// serialized per template by the store.
func (o *Optimizer) RecordFeedback(templateID string, score float64) (*models.ResponseTemplate, error) {
	if err := models.ValidateFeedbackScore(score); err != nil {
		return nil, err
	}
	tmpl, err := o.store.UpdateTemplateMetrics(templateID, score)
	if err != nil {
		return nil, err
	}
	slog.Debug("Optimizer.RecordFeedback: metrics updated",
		"template", tmpl.ID, "use_count", tmpl.UseCount,
		"average_feedback", tmpl.AverageFeedback, "success_rate", tmpl.SuccessRate)
	return tmpl, nil
}

// ContextSimilarity computes the weighted similarity between an incoming
// context and a stored flat context mapping: vehicle type exact match 0.4,
// price band overlap 0.3, season exact match 0.3, normalized by the total
// weight. All three sub-scores are always defined, so the result is in [0,1].
func ContextSimilarity(a models.SituationalContext, b map[string]string) float64 {
	score := 0.0
	total := 0.0

	if string(a.VehicleType) == b["vehicle_type"] {
		score += vehicleWeight
	}
	total += vehicleWeight

	score += priceWeight * priceRangeSimilarity(a.PriceRange, models.PriceRange(b["price_range"]))
	total += priceWeight

	if string(a.Season) == b["season"] {
		score += seasonWeight
	}
	total += seasonWeight

	return score / total
}

// priceRangeSimilarity scores two categorical price ranges through their
// numeric daily-rate bands: interval overlap divided by the smaller band
// width, clamped to [0,1]. Unrecognized categories score 0.
func priceRangeSimilarity(a, b models.PriceRange) float64 {
	bandA, okA := priceBands[a]
	bandB, okB := priceBands[b]
	if !okA || !okB {
		return 0
	}

	widthA := bandA[1] - bandA[0]
	widthB := bandB[1] - bandB[0]
	if widthA <= 0 || widthB <= 0 {
		return 0
	}

	overlap := min(bandA[1], bandB[1]) - max(bandA[0], bandB[0])
	if overlap <= 0 {
		return 0
	}

	sim := overlap / min(widthA, widthB)
	if sim > 1 {
		sim = 1
	}
	return sim
}
