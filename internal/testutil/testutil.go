// Package testutil provides common test utilities and helpers for rentassist tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetline/rentassist/internal/agent"
	"github.com/fleetline/rentassist/internal/api"
	"github.com/fleetline/rentassist/internal/models"
	"github.com/fleetline/rentassist/internal/optimizer"
	"github.com/fleetline/rentassist/internal/store"
)

// StaticGenerator is a Generator stub returning a fixed response, for tests
// that exercise the pipeline without a live completion backend.
type StaticGenerator struct {
	Response string
	Err      error
}

// Generate returns the configured response or error.
func (g *StaticGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.Response, g.Err
}

// NewTestAgent creates an agent over an in-memory store with a fixed clock
// and a static generator. The store is returned for direct inspection.
func NewTestAgent(response string) (*agent.Agent, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	now := func() time.Time { return time.Date(2024, 7, 6, 10, 0, 0, 0, time.UTC) }
	gen := &StaticGenerator{Response: response}
	return agent.NewAt(st, optimizer.NewAt(st, now), gen, now), st
}

// NewTestServer creates a test API server with in-memory dependencies.
// This centralizes the test server creation logic used across multiple test files.
func NewTestServer(response string) (*api.Server, *store.InMemoryStore) {
	a, st := NewTestAgent(response)
	return api.NewServer(a, st), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedTemplate saves a template and one successful interaction referencing
// it, making the template eligible for retrieval.
func SeedTemplate(t *testing.T, st store.Store, tmpl *models.ResponseTemplate, query string) {
	t.Helper()
	if err := st.SaveTemplate(tmpl); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}
	id, err := st.AddInteraction(models.Interaction{
		CreatedAt:  time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		Query:      query,
		Response:   "respuesta previa",
		Category:   tmpl.Category,
		TemplateID: tmpl.ID,
	})
	if err != nil {
		t.Fatalf("failed to add interaction: %v", err)
	}
	if err := st.AttachFeedback(id, models.MaxFeedbackScore, "", models.SuccessIndicators{SentimentScore: 1.0}); err != nil {
		t.Fatalf("failed to attach feedback: %v", err)
	}
}
