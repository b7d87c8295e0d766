package genai

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/fleetline/rentassist/internal/models"
)

// mockCompletions is a test double for the chat completion service.
type mockCompletions struct {
	response string
	err      error
	gotCtx   context.Context
	got      openai.ChatCompletionNewParams
}

func (m *mockCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.gotCtx = ctx
	m.got = params
	if m.err != nil {
		return nil, m.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.response}},
		},
	}, nil
}

func newTestClient(mock *mockCompletions) *Client {
	return &Client{completions: mock, model: openai.ChatModelGPT4oMini, timeout: time.Second}
}

func TestGenerateReturnsContent(t *testing.T) {
	mock := &mockCompletions{response: "Claro, el SUV cuesta $80 por día."}
	c := newTestClient(mock)

	got, err := c.Generate(context.Background(), "sistema", "usuario")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != mock.response {
		t.Errorf("Generate = %q, want %q", got, mock.response)
	}
	if len(mock.got.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(mock.got.Messages))
	}
}

func TestGenerateAppliesDeadline(t *testing.T) {
	mock := &mockCompletions{response: "ok"}
	c := newTestClient(mock)

	if _, err := c.Generate(context.Background(), "s", "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mock.gotCtx.Deadline(); !ok {
		t.Error("generation context must carry a deadline")
	}
}

func TestGeneratePropagatesError(t *testing.T) {
	mock := &mockCompletions{err: fmt.Errorf("upstream unavailable")}
	c := newTestClient(mock)

	if _, err := c.Generate(context.Background(), "s", "u"); err == nil {
		t.Error("expected error from failing completion service")
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	c := &Client{completions: emptyChoices{}, model: openai.ChatModelGPT4oMini, timeout: time.Second}
	if _, err := c.Generate(context.Background(), "s", "u"); err == nil {
		t.Error("expected error when no choices are returned")
	}
}

type emptyChoices struct{}

func (emptyChoices) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	return &openai.ChatCompletion{}, nil
}

func TestSystemPromptFor(t *testing.T) {
	for _, category := range []string{
		models.CategoryPricing, models.CategoryBooking, models.CategoryVehicleInfo,
		models.CategoryDamage, models.CategoryClaims,
	} {
		p := SystemPromptFor(category)
		if p == genericPrompt || p == "" {
			t.Errorf("category %s should have a specific prompt", category)
		}
	}
	if SystemPromptFor(models.CategoryGeneral) != genericPrompt {
		t.Error("general category should use the generic prompt")
	}
	if SystemPromptFor("nonsense") != genericPrompt {
		t.Error("unknown category should use the generic prompt")
	}
}

func TestUserPromptIncludesContextAndQuery(t *testing.T) {
	p := UserPrompt("¿cuánto cuesta?", map[string]string{"vehicle_type": "suv", "season": "high"})
	if !strings.Contains(p, "vehicle_type: suv") || !strings.Contains(p, "season: high") {
		t.Errorf("prompt missing context lines: %q", p)
	}
	if !strings.Contains(p, "Consulta: ¿cuánto cuesta?") {
		t.Errorf("prompt missing query: %q", p)
	}
}

func TestUserPromptWithoutContext(t *testing.T) {
	p := UserPrompt("hola", nil)
	if strings.Contains(p, "Contexto") {
		t.Errorf("empty context should not emit a context block: %q", p)
	}
}
