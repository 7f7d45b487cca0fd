package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/testutil"
)

func Test_SuggestionRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx, username string) models.User {
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

	t.Run("create and list", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SuggestionRepo{DB: tx}
			user := createUser(t, tx, "suggester")

			created, err := r.CreateSuggestion(t.Context(), repository.CreateSuggestionParams{
				UserID: user.ID,
				Title:  "Solaris",
				Author: "Stanislaw Lem",
				Note:   "classic",
			})
			require.NoError(t, err)
			assert.Equal(t, models.SuggestionStatusPending, created.Status)
			assert.Nil(t, created.ResolvedAt)

			mine, err := r.ListByUser(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Len(t, mine, 1)

			all, err := r.ListAll(t.Context())
			require.NoError(t, err)
			assert.NotEmpty(t, all)
		})
	})

	t.Run("resolve wins only once", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SuggestionRepo{DB: tx}
			user := createUser(t, tx, "resolveme")
			admin := createUser(t, tx, "resolveadmin")

			created, err := r.CreateSuggestion(t.Context(), repository.CreateSuggestionParams{
				UserID: user.ID, Title: "Blindsight", Author: "Peter Watts",
			})
			require.NoError(t, err)

			resolved, err := r.ResolveSuggestion(t.Context(), repository.ResolveSuggestionParams{
				SuggestionID: created.ID,
				Status:       models.SuggestionStatusApproved,
				ResolvedBy:   admin.ID,
				ResolvedAt:   time.Now(),
			})
			require.NoError(t, err)
			assert.Equal(t, models.SuggestionStatusApproved, resolved.Status)
			require.NotNil(t, resolved.ResolvedBy)
			assert.Equal(t, admin.ID, *resolved.ResolvedBy)

			// Already resolved, a second resolution must fail
			_, err = r.ResolveSuggestion(t.Context(), repository.ResolveSuggestionParams{
				SuggestionID: created.ID,
				Status:       models.SuggestionStatusRejected,
				ResolvedBy:   admin.ID,
				ResolvedAt:   time.Now(),
			})
			assert.ErrorIs(t, err, apperrors.ErrSuggestionResolved, "should return well known error")
		})
	})

	t.Run("resolve unknown suggestion", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := SuggestionRepo{DB: tx}
			admin := createUser(t, tx, "lonelyadmin")

			_, err := r.ResolveSuggestion(t.Context(), repository.ResolveSuggestionParams{
				SuggestionID: 999999,
				Status:       models.SuggestionStatusApproved,
				ResolvedBy:   admin.ID,
				ResolvedAt:   time.Now(),
			})

			assert.ErrorIs(t, err, apperrors.ErrSuggestionNotFound)
		})
	})
}
