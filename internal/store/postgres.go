// Package store provides storage backends for rentassist.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/fleetline/rentassist/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddInteraction(in models.Interaction) (string, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	contextJSON, err := marshalContext(in.Context)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(
		`INSERT INTO interactions (id, created_at, query, response, category, template_id, context)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		in.ID, in.CreatedAt, in.Query, in.Response, in.Category, nilIfEmpty(in.TemplateID), contextJSON,
	)
	if err != nil {
		slog.Error("PostgresStore AddInteraction failed", "error", err, "id", in.ID)
		return "", fmt.Errorf("failed to insert interaction %s: %w", in.ID, err)
	}
	slog.Debug("PostgresStore AddInteraction succeeded", "id", in.ID, "category", in.Category)
	return in.ID, nil
}

func (s *PostgresStore) GetInteraction(id string) (*models.Interaction, error) {
	row := s.db.QueryRow(`SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id)
	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interaction %s: %w", id, models.ErrInteractionNotFound)
	}
	if err != nil {
		slog.Error("PostgresStore GetInteraction failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to load interaction %s: %w", id, err)
	}
	return &in, nil
}

func (s *PostgresStore) RecentSuccessfulInteractions(minFeedback float64, since time.Time) ([]models.Interaction, error) {
	rows, err := s.db.Query(
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE feedback_score >= $1 AND created_at >= $2
		 ORDER BY created_at`,
		minFeedback, since,
	)
	if err != nil {
		slog.Error("PostgresStore RecentSuccessfulInteractions query failed", "error", err)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			slog.Error("PostgresStore RecentSuccessfulInteractions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}
	slog.Debug("PostgresStore RecentSuccessfulInteractions succeeded", "count", len(out))
	return out, nil
}

func (s *PostgresStore) AttachFeedback(id string, score float64, comments string, ind models.SuccessIndicators) error {
	indicatorsJSON, err := marshalIndicators(ind)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(
		`UPDATE interactions SET feedback_score = $1, feedback_comments = $2, success_indicators = $3
		 WHERE id = $4 AND feedback_score IS NULL`,
		score, nilIfEmpty(comments), indicatorsJSON, id,
	)
	if err != nil {
		slog.Error("PostgresStore AttachFeedback failed", "error", err, "id", id)
		return fmt.Errorf("failed to attach feedback to %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", id, err)
	}
	if affected == 0 {
		if _, err := s.GetInteraction(id); err != nil {
			return err
		}
		return fmt.Errorf("interaction %s: %w", id, models.ErrFeedbackAlreadyRecorded)
	}
	slog.Debug("PostgresStore AttachFeedback succeeded", "id", id, "score", score)
	return nil
}

func (s *PostgresStore) GetTemplate(id string) (*models.ResponseTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+` FROM response_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrTemplateNotFound)
	}
	if err != nil {
		slog.Error("PostgresStore GetTemplate failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return &t, nil
}

func (s *PostgresStore) SaveTemplate(t *models.ResponseTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO response_templates
		 (id, category, template, context_pattern, use_count, average_feedback, success_rate, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   category = EXCLUDED.category,
		   template = EXCLUDED.template,
		   context_pattern = EXCLUDED.context_pattern,
		   use_count = EXCLUDED.use_count,
		   average_feedback = EXCLUDED.average_feedback,
		   success_rate = EXCLUDED.success_rate,
		   last_updated = EXCLUDED.last_updated`,
		t.ID, t.Category, t.Template, nilIfEmpty(t.ContextPattern),
		t.UseCount, t.AverageFeedback, t.SuccessRate, t.LastUpdated,
	)
	if err != nil {
		slog.Error("PostgresStore SaveTemplate failed", "error", err, "id", t.ID)
		return fmt.Errorf("failed to save template %s: %w", t.ID, err)
	}
	slog.Debug("PostgresStore SaveTemplate succeeded", "id", t.ID, "category", t.Category)
	return nil
}

// UpdateTemplateMetrics locks the template row for the duration of the
// read-modify-write so concurrent feedback events on the same template
// serialize instead of racing.
func (s *PostgresStore) UpdateTemplateMetrics(templateID string, score float64) (*models.ResponseTemplate, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin metrics transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+templateColumns+` FROM response_templates WHERE id = $1 FOR UPDATE`, templateID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", templateID, models.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	t.ApplyFeedback(score, time.Now().UTC())

	_, err = tx.Exec(
		`UPDATE response_templates SET use_count = $1, average_feedback = $2, success_rate = $3, last_updated = $4 WHERE id = $5`,
		t.UseCount, t.AverageFeedback, t.SuccessRate, t.LastUpdated, t.ID,
	)
	if err != nil {
		slog.Error("PostgresStore UpdateTemplateMetrics failed", "error", err, "id", templateID)
		return nil, fmt.Errorf("failed to update template %s metrics: %w", templateID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit metrics for %s: %w", templateID, err)
	}
	slog.Debug("PostgresStore UpdateTemplateMetrics succeeded", "id", templateID, "use_count", t.UseCount)
	return &t, nil
}

func (s *PostgresStore) ListTemplates() ([]models.ResponseTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM response_templates ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore ListTemplates query failed", "error", err)
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []models.ResponseTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SeedCategories(categories []models.QueryCategory) error {
	for _, c := range categories {
		patterns, err := json.Marshal(c.SuccessPatterns)
		if err != nil {
			return fmt.Errorf("encode success patterns for %s: %w", c.Name, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO query_categories (name, description, success_patterns)
			 VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
			c.Name, nilIfEmpty(c.Description), string(patterns),
		)
		if err != nil {
			slog.Error("PostgresStore SeedCategories failed", "error", err, "category", c.Name)
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListCategories() ([]models.QueryCategory, error) {
	rows, err := s.db.Query(`SELECT name, description, success_patterns FROM query_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []models.QueryCategory
	for rows.Next() {
		var c models.QueryCategory
		var description, patterns sql.NullString
		if err := rows.Scan(&c.Name, &description, &patterns); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		c.Description = description.String
		if patterns.Valid && patterns.String != "" {
			if err := json.Unmarshal([]byte(patterns.String), &c.SuccessPatterns); err != nil {
				return nil, fmt.Errorf("decode success patterns for %s: %w", c.Name, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
