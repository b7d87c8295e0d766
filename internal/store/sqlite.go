// Package store provides storage backends for rentassist.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fleetline/rentassist/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddInteraction(in models.Interaction) (string, error) {
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
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.CreatedAt, in.Query, in.Response, in.Category, nilIfEmpty(in.TemplateID), contextJSON,
	)
	if err != nil {
		slog.Error("SQLiteStore AddInteraction failed", "error", err, "id", in.ID)
		return "", fmt.Errorf("failed to insert interaction %s: %w", in.ID, err)
	}
	slog.Debug("SQLiteStore AddInteraction succeeded", "id", in.ID, "category", in.Category)
	return in.ID, nil
}

const interactionColumns = `id, created_at, query, response, category, template_id, context, feedback_score, feedback_comments, success_indicators`

func (s *SQLiteStore) GetInteraction(id string) (*models.Interaction, error) {
	row := s.db.QueryRow(`SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id)
	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interaction %s: %w", id, models.ErrInteractionNotFound)
	}
	if err != nil {
		slog.Error("SQLiteStore GetInteraction failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to load interaction %s: %w", id, err)
	}
	return &in, nil
}

func (s *SQLiteStore) RecentSuccessfulInteractions(minFeedback float64, since time.Time) ([]models.Interaction, error) {
	rows, err := s.db.Query(
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE feedback_score >= ? AND created_at >= ?
		 ORDER BY created_at`,
		minFeedback, since,
	)
	if err != nil {
		slog.Error("SQLiteStore RecentSuccessfulInteractions query failed", "error", err)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			slog.Error("SQLiteStore RecentSuccessfulInteractions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}
	slog.Debug("SQLiteStore RecentSuccessfulInteractions succeeded", "count", len(out))
	return out, nil
}

func (s *SQLiteStore) AttachFeedback(id string, score float64, comments string, ind models.SuccessIndicators) error {
	indicatorsJSON, err := marshalIndicators(ind)
	if err != nil {
		return err
	}

	// The feedback_score IS NULL guard keeps the attachment one-shot even
	// under concurrent submissions.
	res, err := s.db.Exec(
		`UPDATE interactions SET feedback_score = ?, feedback_comments = ?, success_indicators = ?
		 WHERE id = ? AND feedback_score IS NULL`,
		score, nilIfEmpty(comments), indicatorsJSON, id,
	)
	if err != nil {
		slog.Error("SQLiteStore AttachFeedback failed", "error", err, "id", id)
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
	slog.Debug("SQLiteStore AttachFeedback succeeded", "id", id, "score", score)
	return nil
}

const templateColumns = `id, category, template, context_pattern, use_count, average_feedback, success_rate, last_updated`

func (s *SQLiteStore) GetTemplate(id string) (*models.ResponseTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+` FROM response_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrTemplateNotFound)
	}
	if err != nil {
		slog.Error("SQLiteStore GetTemplate failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return &t, nil
}

func (s *SQLiteStore) SaveTemplate(t *models.ResponseTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO response_templates
		 (id, category, template, context_pattern, use_count, average_feedback, success_rate, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Category, t.Template, nilIfEmpty(t.ContextPattern),
		t.UseCount, t.AverageFeedback, t.SuccessRate, t.LastUpdated,
	)
	if err != nil {
		slog.Error("SQLiteStore SaveTemplate failed", "error", err, "id", t.ID)
		return fmt.Errorf("failed to save template %s: %w", t.ID, err)
	}
	slog.Debug("SQLiteStore SaveTemplate succeeded", "id", t.ID, "category", t.Category)
	return nil
}

// UpdateTemplateMetrics performs the read-modify-write inside a transaction.
// SQLite serializes writers, so the row cannot change between the read and
// the write within the transaction.
func (s *SQLiteStore) UpdateTemplateMetrics(templateID string, score float64) (*models.ResponseTemplate, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin metrics transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+templateColumns+` FROM response_templates WHERE id = ?`, templateID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", templateID, models.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	t.ApplyFeedback(score, time.Now().UTC())

	_, err = tx.Exec(
		`UPDATE response_templates SET use_count = ?, average_feedback = ?, success_rate = ?, last_updated = ? WHERE id = ?`,
		t.UseCount, t.AverageFeedback, t.SuccessRate, t.LastUpdated, t.ID,
	)
	if err != nil {
		slog.Error("SQLiteStore UpdateTemplateMetrics failed", "error", err, "id", templateID)
		return nil, fmt.Errorf("failed to update template %s metrics: %w", templateID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit metrics for %s: %w", templateID, err)
	}
	slog.Debug("SQLiteStore UpdateTemplateMetrics succeeded", "id", templateID, "use_count", t.UseCount)
	return &t, nil
}

func (s *SQLiteStore) ListTemplates() ([]models.ResponseTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM response_templates ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore ListTemplates query failed", "error", err)
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

func (s *SQLiteStore) SeedCategories(categories []models.QueryCategory) error {
	for _, c := range categories {
		patterns, err := json.Marshal(c.SuccessPatterns)
		if err != nil {
			return fmt.Errorf("encode success patterns for %s: %w", c.Name, err)
		}
		_, err = s.db.Exec(
			`INSERT OR IGNORE INTO query_categories (name, description, success_patterns) VALUES (?, ?, ?)`,
			c.Name, nilIfEmpty(c.Description), string(patterns),
		)
		if err != nil {
			slog.Error("SQLiteStore SeedCategories failed", "error", err, "category", c.Name)
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListCategories() ([]models.QueryCategory, error) {
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

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
