package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/testutil"
)

func Test_BookRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	year := 1937
	bookParams := repository.CreateBookParams{
		Title:         "The Hobbit",
		Author:        "J.R.R. Tolkien",
		Description:   "There and back again",
		Genre:         "Fantasy",
		PublishedYear: &year,
	}

	createReader := func(t *testing.T, tx pgx.Tx, username string) models.User {
		t.Helper()
		users := UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), repository.CreateUserParams{
			Username:       username,
			Email:          username + "@example.com",
			HashedPassword: "hashedpassword123",
			Status:         models.UserStatusActive,
			IsActive:       true,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("create book ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := BookRepo{DB: tx}

			book, err := r.CreateBook(t.Context(), bookParams)

			require.NoError(t, err)
			assert.Equal(t, "The Hobbit", book.Title)
			assert.Equal(t, "J.R.R. Tolkien", book.Author)
			require.NotNil(t, book.PublishedYear)
			assert.Equal(t, 1937, *book.PublishedYear)
			assert.True(t, book.AvgRating.IsZero(), "no reviews yet")
			assert.Zero(t, book.ReviewCount)
		})
	})

	t.Run("get book not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := BookRepo{DB: tx}

			_, err := r.GetBook(t.Context(), 999999)

			assert.ErrorIs(t, err, apperrors.ErrBookNotFound, "should return well known error")
		})
	})

	t.Run("update book", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := BookRepo{DB: tx}

			created, err := r.CreateBook(t.Context(), bookParams)
			require.NoError(t, err)

			updatedParams := bookParams
			updatedParams.Genre = "Children's fantasy"
			updated, err := r.UpdateBook(t.Context(), created.ID, updatedParams)

			require.NoError(t, err)
			assert.Equal(t, "Children's fantasy", updated.Genre)

			_, err = r.UpdateBook(t.Context(), 999999, updatedParams)
			assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
		})
	})

	t.Run("delete book", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := BookRepo{DB: tx}

			created, err := r.CreateBook(t.Context(), bookParams)
			require.NoError(t, err)

			require.NoError(t, r.DeleteBook(t.Context(), created.ID))

			_, err = r.GetBook(t.Context(), created.ID)
			assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
		})
	})

	t.Run("set cover", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := BookRepo{DB: tx}

			created, err := r.CreateBook(t.Context(), bookParams)
			require.NoError(t, err)

			err = r.SetCover(t.Context(), created.ID, "books/1/cover.jpg", "https://cdn.example.com/books/1/cover.jpg")
			require.NoError(t, err)

			got, err := r.GetBook(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, "books/1/cover.jpg", got.CoverKey)
			assert.Equal(t, "https://cdn.example.com/books/1/cover.jpg", got.CoverURL)
		})
	})

	t.Run("rating aggregates", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			books := BookRepo{DB: tx}
			reviews := ReviewRepo{DB: tx}

			created, err := books.CreateBook(t.Context(), bookParams)
			require.NoError(t, err)

			alice := createReader(t, tx, "alice")
			bob := createReader(t, tx, "bob")

			_, err = reviews.CreateReview(t.Context(), repository.CreateReviewParams{
				BookID: created.ID, UserID: alice.ID, Rating: 5, Comment: "loved it",
			})
			require.NoError(t, err)
			_, err = reviews.CreateReview(t.Context(), repository.CreateReviewParams{
				BookID: created.ID, UserID: bob.ID, Rating: 4, Comment: "pretty good",
			})
			require.NoError(t, err)

			got, err := books.GetBook(t.Context(), created.ID)
			require.NoError(t, err)

			assert.Equal(t, int64(2), got.ReviewCount)
			assert.True(t, got.AvgRating.Equal(decimal.RequireFromString("4.5")),
				"avg of 5 and 4 is 4.5, got %s", got.AvgRating)
		})
	})
}
