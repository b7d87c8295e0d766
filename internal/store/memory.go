// Package store provides storage backends for rentassist.
//
// This file implements the in-memory store used in tests and development.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fleetline/rentassist/internal/models"
)

// InMemoryStore keeps all rows in process memory. A single mutex serializes
// every operation, which also satisfies the per-template serialization
// requirement for metric updates.
type InMemoryStore struct {
	mu           sync.Mutex
	interactions map[string]*models.Interaction
	templates    map[string]*models.ResponseTemplate
	categories   []models.QueryCategory
	order        []string // interaction insertion order, for stable listings
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		interactions: make(map[string]*models.Interaction),
		templates:    make(map[string]*models.ResponseTemplate),
	}
}

func (s *InMemoryStore) AddInteraction(in models.Interaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	cp := in
	s.interactions[cp.ID] = &cp
	s.order = append(s.order, cp.ID)
	return cp.ID, nil
}

func (s *InMemoryStore) GetInteraction(id string) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, models.ErrInteractionNotFound)
	}
	cp := *in
	return &cp, nil
}

func (s *InMemoryStore) RecentSuccessfulInteractions(minFeedback float64, since time.Time) ([]models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Interaction
	for _, id := range s.order {
		in := s.interactions[id]
		if in.FeedbackScore == nil || *in.FeedbackScore < minFeedback {
			continue
		}
		if in.CreatedAt.Before(since) {
			continue
		}
		out = append(out, *in)
	}
	return out, nil
}

func (s *InMemoryStore) AttachFeedback(id string, score float64, comments string, ind models.SuccessIndicators) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.interactions[id]
	if !ok {
		return fmt.Errorf("interaction %s: %w", id, models.ErrInteractionNotFound)
	}
	if in.FeedbackScore != nil {
		return fmt.Errorf("interaction %s: %w", id, models.ErrFeedbackAlreadyRecorded)
	}
	in.FeedbackScore = &score
	in.FeedbackComments = comments
	indCopy := ind
	in.Indicators = &indCopy
	return nil
}

func (s *InMemoryStore) GetTemplate(id string) (*models.ResponseTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrTemplateNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) SaveTemplate(t *models.ResponseTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	s.templates[cp.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateTemplateMetrics(templateID string, score float64) (*models.ResponseTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, models.ErrTemplateNotFound)
	}
	t.ApplyFeedback(score, time.Now().UTC())
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) ListTemplates() ([]models.ResponseTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ResponseTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (s *InMemoryStore) SeedCategories(categories []models.QueryCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range categories {
		exists := false
		for _, have := range s.categories {
			if have.Name == c.Name {
				exists = true
				break
			}
		}
		if !exists {
			s.categories = append(s.categories, c)
		}
	}
	return nil
}

func (s *InMemoryStore) ListCategories() ([]models.QueryCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.QueryCategory, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
