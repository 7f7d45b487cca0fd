package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type SuggestionRepo struct {
	DB DBTX
}

const suggestionColumns = `id, created_at, user_id, title, author, note, status, resolved_at, resolved_by`

const createSuggestion = `-- name: CreateSuggestion
INSERT INTO book_suggestions (user_id, title, author, note)
VALUES ($1, $2, $3, $4)
RETURNING ` + suggestionColumns

func (r *SuggestionRepo) CreateSuggestion(ctx context.Context, arg repository.CreateSuggestionParams) (models.Suggestion, error) {
	rows, _ := r.DB.Query(ctx, createSuggestion, arg.UserID, arg.Title, arg.Author, arg.Note)
	s, err := pgx.CollectOneRow(rows, rowToSuggestion)
	if err != nil {
		return s, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

const getSuggestion = `-- name: GetSuggestion
SELECT ` + suggestionColumns + `
FROM book_suggestions
WHERE id = $1
`

func (r *SuggestionRepo) GetSuggestion(ctx context.Context, id int64) (models.Suggestion, error) {
	rows, _ := r.DB.Query(ctx, getSuggestion, id)
	return collectSuggestion(rows)
}

const listSuggestionsByUser = `-- name: ListSuggestionsByUser
SELECT ` + suggestionColumns + `
FROM book_suggestions
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *SuggestionRepo) ListByUser(ctx context.Context, userID int64) ([]models.Suggestion, error) {
	rows, _ := r.DB.Query(ctx, listSuggestionsByUser, userID)
	suggestions, err := pgx.CollectRows(rows, rowToSuggestion)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return suggestions, nil
}

const listAllSuggestions = `-- name: ListAllSuggestions
SELECT ` + suggestionColumns + `
FROM book_suggestions
ORDER BY created_at DESC
`

func (r *SuggestionRepo) ListAll(ctx context.Context) ([]models.Suggestion, error) {
	rows, _ := r.DB.Query(ctx, listAllSuggestions)
	suggestions, err := pgx.CollectRows(rows, rowToSuggestion)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return suggestions, nil
}

const resolveSuggestion = `-- name: ResolveSuggestion
UPDATE book_suggestions
SET status = $2, resolved_at = $3, resolved_by = $4
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + suggestionColumns

// ResolveSuggestion flips a PENDING suggestion to its final status.
// A suggestion can be resolved exactly once.
func (r *SuggestionRepo) ResolveSuggestion(ctx context.Context, arg repository.ResolveSuggestionParams) (models.Suggestion, error) {
	rows, _ := r.DB.Query(ctx, resolveSuggestion, arg.SuggestionID, arg.Status, arg.ResolvedAt, arg.ResolvedBy)
	s, err := pgx.CollectOneRow(rows, rowToSuggestion)

	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return s, fmt.Errorf("db error: %w", err)
	}

	// Either unknown or already resolved, check which
	s, err = r.GetSuggestion(ctx, arg.SuggestionID)
	if err != nil {
		return s, err
	}
	return s, apperrors.ErrSuggestionResolved
}

func collectSuggestion(rows pgx.Rows) (models.Suggestion, error) {
	s, err := pgx.CollectOneRow(rows, rowToSuggestion)

	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, pgx.ErrNoRows):
		return s, apperrors.ErrSuggestionNotFound
	default:
		return s, fmt.Errorf("db error: %w", err)
	}
}

func rowToSuggestion(row pgx.CollectableRow) (models.Suggestion, error) {
	var s models.Suggestion
	err := row.Scan(
		&s.ID, &s.CreatedAt, &s.UserID, &s.Title, &s.Author, &s.Note,
		&s.Status, &s.ResolvedAt, &s.ResolvedBy,
	)
	return s, err
}
