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

type BookRepo struct {
	DB DBTX
}

// Rating aggregates are computed in SQL so listing stays a single query.
// AVG comes back as numeric and is scanned into decimal.Decimal.
const bookColumns = `b.id, b.created_at, b.title, b.author, b.description, b.genre,
	b.published_year, b.cover_key, b.cover_url,
	COALESCE(AVG(r.rating), 0)::numeric(3, 2) AS avg_rating,
	COUNT(r.id) AS review_count`

const bookGroup = `GROUP BY b.id`

const createBook = `-- name: CreateBook
INSERT INTO books (title, author, description, genre, published_year)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, title, author, description, genre, published_year, cover_key, cover_url,
	0::numeric(3, 2), 0::bigint
`

func (r *BookRepo) CreateBook(ctx context.Context, arg repository.CreateBookParams) (models.Book, error) {
	rows, _ := r.DB.Query(ctx, createBook,
		arg.Title, arg.Author, arg.Description, arg.Genre, arg.PublishedYear)
	book, err := pgx.CollectOneRow(rows, rowToBook)
	if err != nil {
		return book, fmt.Errorf("db error: %w", err)
	}
	return book, nil
}

const getBook = `-- name: GetBook
SELECT ` + bookColumns + `
FROM books b
LEFT JOIN reviews r ON r.book_id = b.id
WHERE b.id = $1
` + bookGroup

func (r *BookRepo) GetBook(ctx context.Context, id int64) (models.Book, error) {
	rows, _ := r.DB.Query(ctx, getBook, id)
	return collectBook(rows)
}

const updateBook = `-- name: UpdateBook
UPDATE books
SET title = $2, author = $3, description = $4, genre = $5, published_year = $6
WHERE id = $1
RETURNING id, created_at, title, author, description, genre, published_year, cover_key, cover_url,
	0::numeric(3, 2), 0::bigint
`

func (r *BookRepo) UpdateBook(ctx context.Context, id int64, arg repository.CreateBookParams) (models.Book, error) {
	rows, _ := r.DB.Query(ctx, updateBook,
		id, arg.Title, arg.Author, arg.Description, arg.Genre, arg.PublishedYear)
	return collectBook(rows)
}

const listBooks = `-- name: ListBooks
SELECT ` + bookColumns + `
FROM books b
LEFT JOIN reviews r ON r.book_id = b.id
` + bookGroup + `
ORDER BY b.id
`

func (r *BookRepo) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, _ := r.DB.Query(ctx, listBooks)
	books, err := pgx.CollectRows(rows, rowToBook)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return books, nil
}

const deleteBook = `-- name: DeleteBook
DELETE FROM books
WHERE id = $1
`

func (r *BookRepo) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteBook, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrBookNotFound
	default:
		return nil
	}
}

const setCover = `-- name: SetBookCover
UPDATE books
SET cover_key = $2, cover_url = $3
WHERE id = $1
`

func (r *BookRepo) SetCover(ctx context.Context, id int64, key string, url string) error {
	tag, err := r.DB.Exec(ctx, setCover, id, key, url)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrBookNotFound
	default:
		return nil
	}
}

func collectBook(rows pgx.Rows) (models.Book, error) {
	book, err := pgx.CollectOneRow(rows, rowToBook)

	switch {
	case err == nil:
		return book, nil
	case errors.Is(err, pgx.ErrNoRows):
		return book, apperrors.ErrBookNotFound
	default:
		return book, fmt.Errorf("db error: %w", err)
	}
}

func rowToBook(row pgx.CollectableRow) (models.Book, error) {
	var b models.Book
	err := row.Scan(
		&b.ID, &b.CreatedAt, &b.Title, &b.Author, &b.Description, &b.Genre,
		&b.PublishedYear, &b.CoverKey, &b.CoverURL, &b.AvgRating, &b.ReviewCount,
	)
	return b, err
}
