// Package store provides storage backends for rentassist.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores for persistent deployments. All backends serialize
// template metric updates per template, since the incremental mean/rate
// update is a read-modify-write sequence.
package store

import (
	"strings"
	"time"

	"github.com/fleetline/rentassist/internal/models"
)

// Store is the persistence contract consumed by the agent and optimizer.
type Store interface {
	// AddInteraction persists a new interaction and returns its assigned id.
	AddInteraction(in models.Interaction) (string, error)
	// GetInteraction returns the interaction with the given id, or
	// models.ErrInteractionNotFound.
	GetInteraction(id string) (*models.Interaction, error)
	// RecentSuccessfulInteractions returns interactions with feedback_score
	// >= minFeedback created at or after since. This is the retrieval
	// scorer's candidate pool.
	RecentSuccessfulInteractions(minFeedback float64, since time.Time) ([]models.Interaction, error)
	// AttachFeedback records feedback and derived success indicators on an
	// interaction, exactly once. Returns models.ErrInteractionNotFound or
	// models.ErrFeedbackAlreadyRecorded.
	AttachFeedback(id string, score float64, comments string, ind models.SuccessIndicators) error

	// GetTemplate returns the template with the given id, or
	// models.ErrTemplateNotFound.
	GetTemplate(id string) (*models.ResponseTemplate, error)
	// SaveTemplate inserts or updates a template, assigning an id when empty.
	SaveTemplate(t *models.ResponseTemplate) error
	// UpdateTemplateMetrics folds a feedback score into a template's running
	// statistics atomically per template and returns the updated row.
	UpdateTemplateMetrics(templateID string, score float64) (*models.ResponseTemplate, error)
	// ListTemplates returns all templates with their running statistics.
	ListTemplates() ([]models.ResponseTemplate, error)

	// SeedCategories inserts category reference data, ignoring existing rows.
	SeedCategories(categories []models.QueryCategory) error
	// ListCategories returns the category reference data.
	ListCategories() ([]models.QueryCategory, error)

	Close() error
}

// Opts holds configuration options for persistent store backends.
type Opts struct {
	DSN string // database connection string or SQLite file path
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use a URL scheme or key=value connection parameters; anything else is
// treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
