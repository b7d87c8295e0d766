package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fleetline/rentassist/internal/models"
)

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanInteraction scans an interaction row, decoding the JSON context and
// success-indicator columns.
func scanInteraction(row rowScanner) (models.Interaction, error) {
	var in models.Interaction
	var templateID, comments, contextJSON, indicatorsJSON sql.NullString
	var score sql.NullFloat64

	err := row.Scan(
		&in.ID, &in.CreatedAt, &in.Query, &in.Response, &in.Category,
		&templateID, &contextJSON, &score, &comments, &indicatorsJSON,
	)
	if err != nil {
		return in, err
	}

	in.TemplateID = templateID.String
	in.FeedbackComments = comments.String
	if score.Valid {
		v := score.Float64
		in.FeedbackScore = &v
	}
	if contextJSON.Valid && contextJSON.String != "" {
		in.Context = make(map[string]string)
		if err := json.Unmarshal([]byte(contextJSON.String), &in.Context); err != nil {
			return in, fmt.Errorf("decode interaction context: %w", err)
		}
	}
	if indicatorsJSON.Valid && indicatorsJSON.String != "" {
		var ind models.SuccessIndicators
		if err := json.Unmarshal([]byte(indicatorsJSON.String), &ind); err != nil {
			return in, fmt.Errorf("decode success indicators: %w", err)
		}
		in.Indicators = &ind
	}
	return in, nil
}

// scanTemplate scans a response template row.
func scanTemplate(row rowScanner) (models.ResponseTemplate, error) {
	var t models.ResponseTemplate
	var contextPattern sql.NullString
	var lastUpdated sql.NullTime

	err := row.Scan(
		&t.ID, &t.Category, &t.Template, &contextPattern,
		&t.UseCount, &t.AverageFeedback, &t.SuccessRate, &lastUpdated,
	)
	if err != nil {
		return t, err
	}
	t.ContextPattern = contextPattern.String
	if lastUpdated.Valid {
		t.LastUpdated = lastUpdated.Time
	}
	return t, nil
}

// marshalContext encodes the flat context mapping for storage.
func marshalContext(ctx map[string]string) (string, error) {
	if ctx == nil {
		ctx = map[string]string{}
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("encode interaction context: %w", err)
	}
	return string(data), nil
}

// marshalIndicators encodes success indicators for storage.
func marshalIndicators(ind models.SuccessIndicators) (string, error) {
	data, err := json.Marshal(ind)
	if err != nil {
		return "", fmt.Errorf("encode success indicators: %w", err)
	}
	return string(data), nil
}
