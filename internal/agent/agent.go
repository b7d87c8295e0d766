// Package agent orchestrates query processing for the rental support
// assistant: context extraction, classification, template retrieval,
// response generation, interaction recording and feedback handling.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetline/rentassist/internal/classify"
	"github.com/fleetline/rentassist/internal/genai"
	"github.com/fleetline/rentassist/internal/models"
	"github.com/fleetline/rentassist/internal/optimizer"
	"github.com/fleetline/rentassist/internal/rentalctx"
	"github.com/fleetline/rentassist/internal/store"
)

// FallbackResponse is returned to the customer whenever query processing
// fails past recovery.
const FallbackResponse = "Lo siento, estoy teniendo problemas para procesar tu consulta. ¿Podrías reformularla?"

// Generator is the text-generation collaborator. Implementations must honor
// context deadlines.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Agent processes customer queries and feedback events.
type Agent struct {
	store     store.Store
	optimizer *optimizer.Optimizer
	builder   *rentalctx.Builder
	generator Generator
	now       func() time.Time
}

// New creates an agent over the given collaborators.
func New(st store.Store, opt *optimizer.Optimizer, gen Generator) *Agent {
	return &Agent{
		store:     st,
		optimizer: opt,
		builder:   rentalctx.NewBuilder(),
		generator: gen,
		now:       time.Now,
	}
}

// NewAt creates an agent with a fixed clock and context builder, for
// deterministic tests.
func NewAt(st store.Store, opt *optimizer.Optimizer, gen Generator, now func() time.Time) *Agent {
	return &Agent{
		store:     st,
		optimizer: opt,
		builder:   rentalctx.NewBuilderAt(now),
		generator: gen,
		now:       now,
	}
}

// QueryResult is the outcome of processing one customer query. On failure
// Response holds the fallback text and Error carries the diagnostic detail;
// processing never fails past this boundary.
type QueryResult struct {
	Response      string            `json:"response"`
	InteractionID string            `json:"interaction_id,omitempty"`
	Category      string            `json:"category,omitempty"`
	Context       map[string]string `json:"context,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// ProcessQuery runs the full pipeline for one query: build context,
// classify, retrieve a reusable template or generate a fresh response, and
// record the interaction.
func (a *Agent) ProcessQuery(ctx context.Context, query string, overrides map[string]string) QueryResult {
	sctx := a.builder.BuildContext(query, overrides)
	category := classify.Categorize(query)
	flat := sctx.Flatten()

	tmpl, err := a.optimizer.SelectTemplate(query, sctx)
	if err != nil {
		// Retrieval is advisory: a failed lookup degrades to fresh
		// generation instead of failing the query.
		slog.Warn("Agent.ProcessQuery: template retrieval failed, generating fresh response", "error", err)
		tmpl = nil
	}

	var response string
	var templateID string
	if tmpl != nil {
		templateID = tmpl.ID
		response, err = RenderTemplate(tmpl.Template, flat)
		if err != nil {
			// A template with a missing placeholder is regenerated from its
			// category with an empty query; the context carries the details.
			slog.Warn("Agent.ProcessQuery: template render failed, regenerating",
				"template", tmpl.ID, "error", err)
			response, err = a.generate(ctx, "", tmpl.Category, flat)
		}
	} else {
		response, err = a.generate(ctx, query, category, flat)
	}
	if err != nil {
		slog.Error("Agent.ProcessQuery: generation failed", "error", err, "category", category)
		return QueryResult{Response: FallbackResponse, Error: err.Error()}
	}

	id, err := a.store.AddInteraction(models.Interaction{
		CreatedAt:  a.now().UTC(),
		Query:      query,
		Response:   response,
		Category:   category,
		TemplateID: templateID,
		Context:    flat,
	})
	if err != nil {
		slog.Error("Agent.ProcessQuery: failed to record interaction", "error", err)
		return QueryResult{Response: FallbackResponse, Error: err.Error()}
	}

	slog.Info("Agent.ProcessQuery: query processed",
		"interaction", id, "category", category, "template_used", templateID != "")
	return QueryResult{
		Response:      response,
		InteractionID: id,
		Category:      category,
		Context:       flat,
	}
}

// ProcessFeedback attaches a feedback event to an interaction, derives its
// success indicators and updates the referenced template's metrics. Unknown
// interactions and templates are reported as errors, never as panics.
func (a *Agent) ProcessFeedback(ctx context.Context, interactionID string, score float64, comments string) error {
	if interactionID == "" {
		return models.ErrEmptyInteractionID
	}
	if err := models.ValidateFeedbackScore(score); err != nil {
		return err
	}

	in, err := a.store.GetInteraction(interactionID)
	if err != nil {
		return err
	}
	if in.HasFeedback() {
		return fmt.Errorf("interaction %s: %w", interactionID, models.ErrFeedbackAlreadyRecorded)
	}

	indicators := DeriveIndicators(in, score, a.now().UTC())
	if err := a.store.AttachFeedback(interactionID, score, comments, indicators); err != nil {
		return err
	}

	if in.TemplateID != "" {
		if _, err := a.optimizer.RecordFeedback(in.TemplateID, score); err != nil {
			slog.Warn("Agent.ProcessFeedback: template metrics update failed",
				"interaction", interactionID, "template", in.TemplateID, "error", err)
			return err
		}
	}

	slog.Info("Agent.ProcessFeedback: feedback recorded",
		"interaction", interactionID, "score", score, "template", in.TemplateID)
	return nil
}

// generate produces a fresh response via the text-generation collaborator
// using the category's prompt skeleton.
func (a *Agent) generate(ctx context.Context, query, category string, flat map[string]string) (string, error) {
	system := genai.SystemPromptFor(category)
	user := genai.UserPrompt(query, flat)
	return a.generator.Generate(ctx, system, user)
}
