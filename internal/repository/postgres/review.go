package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type ReviewRepo struct {
	DB DBTX
}

const reviewColumns = `r.id, r.created_at, r.updated_at, r.book_id, r.user_id, u.username, r.rating, r.comment`

const createReview = `-- name: CreateReview
WITH inserted AS (
	INSERT INTO reviews (book_id, user_id, rating, comment)
	VALUES ($1, $2, $3, $4)
	RETURNING *
)
SELECT r.id, r.created_at, r.updated_at, r.book_id, r.user_id, u.username, r.rating, r.comment
FROM inserted r
JOIN users u ON u.id = r.user_id
`

func (r *ReviewRepo) CreateReview(ctx context.Context, arg repository.CreateReviewParams) (models.Review, error) {
	rows, _ := r.DB.Query(ctx, createReview, arg.BookID, arg.UserID, arg.Rating, arg.Comment)
	review, err := pgx.CollectOneRow(rows, rowToReview)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return review, apperrors.ErrReviewAlreadyExists
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return review, apperrors.ErrBookNotFound
		default:
			return review, fmt.Errorf("db error: %w", err)
		}
	}

	return review, nil
}

const getReview = `-- name: GetReview
SELECT ` + reviewColumns + `
FROM reviews r
JOIN users u ON u.id = r.user_id
WHERE r.id = $1
`

func (r *ReviewRepo) GetReview(ctx context.Context, id int64) (models.Review, error) {
	rows, _ := r.DB.Query(ctx, getReview, id)
	return collectReview(rows)
}

const updateReview = `-- name: UpdateReview
WITH updated AS (
	UPDATE reviews
	SET rating = $2, comment = $3, updated_at = now()
	WHERE id = $1
	RETURNING *
)
SELECT r.id, r.created_at, r.updated_at, r.book_id, r.user_id, u.username, r.rating, r.comment
FROM updated r
JOIN users u ON u.id = r.user_id
`

func (r *ReviewRepo) UpdateReview(ctx context.Context, id int64, rating int, comment string) (models.Review, error) {
	rows, _ := r.DB.Query(ctx, updateReview, id, rating, comment)
	return collectReview(rows)
}

const deleteReview = `-- name: DeleteReview
DELETE FROM reviews
WHERE id = $1
`

func (r *ReviewRepo) DeleteReview(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteReview, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrReviewNotFound
	default:
		return nil
	}
}

const listReviewsByBook = `-- name: ListReviewsByBook
SELECT ` + reviewColumns + `
FROM reviews r
JOIN users u ON u.id = r.user_id
WHERE r.book_id = $1
ORDER BY r.created_at DESC
`

func (r *ReviewRepo) ListByBook(ctx context.Context, bookID int64) ([]models.Review, error) {
	rows, _ := r.DB.Query(ctx, listReviewsByBook, bookID)
	reviews, err := pgx.CollectRows(rows, rowToReview)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reviews, nil
}

func collectReview(rows pgx.Rows) (models.Review, error) {
	review, err := pgx.CollectOneRow(rows, rowToReview)

	switch {
	case err == nil:
		return review, nil
	case errors.Is(err, pgx.ErrNoRows):
		return review, apperrors.ErrReviewNotFound
	default:
		return review, fmt.Errorf("db error: %w", err)
	}
}

func rowToReview(row pgx.CollectableRow) (models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ID, &rv.CreatedAt, &rv.UpdatedAt, &rv.BookID, &rv.UserID, &rv.Username,
		&rv.Rating, &rv.Comment,
	)
	return rv, err
}
