package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/repository/postgres"
	"github.com/vmaleev/bookreview/internal/service/auth/tokencodec"
	"github.com/vmaleev/bookreview/internal/testutil"
)

type fakeNotifier struct {
	newUserCalls []models.User
}

func (n *fakeNotifier) AdminNewUser(_ context.Context, user models.User) {
	n.newUserCalls = append(n.newUserCalls, user)
}

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newService := func(t *testing.T, tx pgx.Tx, notifier Notifier) (*AuthService, repository.Storage) {
		t.Helper()
		storage := postgres.NewStorage(tx)
		s, err := NewService(Config{SecretKey: "test-secret-key"}, storage, notifier, nil)
		require.NoError(t, err, "auth service should be created without errors")
		return s, storage
	}

	registerUser := func(t *testing.T, s *AuthService, username string) models.User {
		t.Helper()
		user, err := s.Register(t.Context(), RegisterParams{
			Username: username,
			Email:    username + "@example.com",
			Password: "password1234",
		})
		require.NoError(t, err)
		return user
	}

	approveUser := func(t *testing.T, storage repository.Storage, userID int64) models.User {
		t.Helper()
		user, err := storage.User().ApproveUser(t.Context(), repository.ApproveUserParams{
			UserID:     userID,
			ApprovedBy: userID,
			ApprovedAt: time.Now(),
		})
		require.NoError(t, err)
		return user
	}

	loginParams := func(username string) LoginParams {
		return LoginParams{
			Username:  username,
			Password:  "password1234",
			IP:        "10.0.0.9",
			UserAgent: "tests",
		}
	}

	t.Run("register creates pending user and notifies admin", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			notifier := &fakeNotifier{}
			s, _ := newService(t, tx, notifier)

			user := registerUser(t, s, "newcomer")

			assert.Equal(t, models.UserStatusPending, user.Status)
			assert.False(t, user.CanAuthenticate(), "no tokens before approval")
			require.Len(t, notifier.newUserCalls, 1, "admin should be notified exactly once")
			assert.Equal(t, user.ID, notifier.newUserCalls[0].ID)
		})
	})

	t.Run("login", func(t *testing.T) {
		t.Run("pending account is gated", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, _ := newService(t, tx, nil)
				registerUser(t, s, "stillwaiting")

				_, _, err := s.Login(t.Context(), loginParams("stillwaiting"))

				assert.ErrorIs(t, err, apperrors.ErrPendingApproval)

				// And no refresh record must exist
				var count int
				err = tx.QueryRow(t.Context(), "SELECT count(*) FROM refresh_tokens").Scan(&count)
				require.NoError(t, err)
				assert.Zero(t, count, "gated login must not persist a session")
			})
		})

		t.Run("disabled account is gated", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "troublemaker")
				approveUser(t, storage, user.ID)

				_, err := tx.Exec(t.Context(), "UPDATE users SET status = 'DISABLED', is_active = FALSE WHERE id = $1", user.ID)
				require.NoError(t, err)

				_, _, err = s.Login(t.Context(), loginParams("troublemaker"))

				assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
			})
		})

		t.Run("rejected account is gated", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "declined")

				_, err := storage.User().RejectUser(t.Context(), user.ID)
				require.NoError(t, err)

				_, _, err = s.Login(t.Context(), loginParams("declined"))

				assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
			})
		})

		t.Run("wrong password", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "forgetful")
				approveUser(t, storage, user.ID)

				arg := loginParams("forgetful")
				arg.Password = "not-the-password"
				_, _, err := s.Login(t.Context(), arg)

				assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			})
		})

		t.Run("unknown user looks like wrong password", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, _ := newService(t, tx, nil)

				_, _, err := s.Login(t.Context(), loginParams("whoisthis"))

				assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "must not leak user existence")
			})
		})

		t.Run("active account gets a pair and a stored record", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "welcome")
				approveUser(t, storage, user.ID)

				pair, loggedIn, err := s.Login(t.Context(), loginParams("welcome"))
				require.NoError(t, err)

				assert.NotEmpty(t, pair.Access.Value)
				assert.NotEmpty(t, pair.Refresh.Value)
				assert.Equal(t, user.ID, loggedIn.ID)

				// Refresh record stores the hash of the token, never the token
				claims, err := s.codec.VerifyRefresh(pair.Refresh.Value)
				require.NoError(t, err)
				record, err := storage.Refresh().GetByJTI(t.Context(), claims.ID)
				require.NoError(t, err)
				assert.Equal(t, tokencodec.Hash(pair.Refresh.Value), record.TokenHash)
				assert.NotEqual(t, pair.Refresh.Value, record.TokenHash)
				assert.Equal(t, "10.0.0.9", record.IPAddress)
				assert.Equal(t, "tests", record.UserAgent)

				got, err := storage.User().GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				assert.NotNil(t, got.LastLoginAt, "last_login_at is stamped on login")
			})
		})

		t.Run("login by email", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "mailperson")
				approveUser(t, storage, user.ID)

				_, loggedIn, err := s.Login(t.Context(), LoginParams{
					Email:    "mailperson@example.com",
					Password: "password1234",
				})

				require.NoError(t, err)
				assert.Equal(t, user.ID, loggedIn.ID)
			})
		})
	})

	t.Run("refresh", func(t *testing.T) {
		login := func(t *testing.T, s *AuthService, storage repository.Storage, username string) models.TokenPair {
			t.Helper()
			user := registerUser(t, s, username)
			approveUser(t, storage, user.ID)
			pair, _, err := s.Login(t.Context(), loginParams(username))
			require.NoError(t, err)
			return pair
		}

		t.Run("rotation issues a new pair and links records", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				pair := login(t, s, storage, "rotator")

				newPair, err := s.Refresh(t.Context(), RefreshParams{Token: pair.Refresh.Value})
				require.NoError(t, err)
				assert.NotEqual(t, pair.Refresh.Value, newPair.Refresh.Value)
				assert.NotEqual(t, pair.Access.Value, newPair.Access.Value)

				oldClaims, err := s.codec.VerifyRefresh(pair.Refresh.Value)
				require.NoError(t, err)
				newClaims, err := s.codec.VerifyRefresh(newPair.Refresh.Value)
				require.NoError(t, err)

				oldRecord, err := storage.Refresh().GetByJTI(t.Context(), oldClaims.ID)
				require.NoError(t, err)
				assert.True(t, oldRecord.Revoked, "used token is revoked")
				require.NotNil(t, oldRecord.ReplacedByJTI)
				assert.Equal(t, newClaims.ID, *oldRecord.ReplacedByJTI, "rotation chain is recorded")

				newRecord, err := storage.Refresh().GetByJTI(t.Context(), newClaims.ID)
				require.NoError(t, err)
				assert.False(t, newRecord.Revoked)
			})
		})

		t.Run("replay of a rotated token fails and is audited", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				pair := login(t, s, storage, "victim")

				_, err := s.Refresh(t.Context(), RefreshParams{Token: pair.Refresh.Value})
				require.NoError(t, err)

				// Present the same token again
				_, err = s.Refresh(t.Context(), RefreshParams{Token: pair.Refresh.Value, IP: "6.6.6.6"})
				assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

				entries, err := storage.Audit().List(t.Context(), 10, 0)
				require.NoError(t, err)
				var found bool
				for _, e := range entries {
					if e.Action == models.AuditTokenReplayDetected {
						found = true
						assert.Equal(t, "6.6.6.6", e.IPAddress)
					}
				}
				assert.True(t, found, "replay must leave an audit trail")
			})
		})

		t.Run("hash mismatch fails without revoking the real token", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				pair := login(t, s, storage, "target")

				claims, err := s.codec.VerifyRefresh(pair.Refresh.Value)
				require.NoError(t, err)

				// Simulate token material that verifies but whose stored hash differs
				_, err = tx.Exec(t.Context(), "UPDATE refresh_tokens SET token_hash = 'different' WHERE jti = $1", claims.ID)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), RefreshParams{Token: pair.Refresh.Value})
				assert.ErrorIs(t, err, apperrors.ErrTokenMismatch)

				record, err := storage.Refresh().GetByJTI(t.Context(), claims.ID)
				require.NoError(t, err)
				assert.False(t, record.Revoked, "a mismatch must not let an attacker revoke the legit session")

				entries, err := storage.Audit().List(t.Context(), 10, 0)
				require.NoError(t, err)
				var found bool
				for _, e := range entries {
					if e.Action == models.AuditTokenMismatchDetected {
						found = true
					}
				}
				assert.True(t, found)
			})
		})

		t.Run("disabled owner can't refresh", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				pair := login(t, s, storage, "suspended")

				_, err := tx.Exec(t.Context(), "UPDATE users SET status = 'DISABLED', is_active = FALSE WHERE username = 'suspended'")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), RefreshParams{Token: pair.Refresh.Value})
				assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
			})
		})

		t.Run("garbage token", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, _ := newService(t, tx, nil)

				_, err := s.Refresh(t.Context(), RefreshParams{Token: "not-a-jwt"})

				assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
			})
		})

		t.Run("valid claims but unknown record", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, _ := newService(t, tx, nil)

				// Signed by the same key but never persisted
				token, _, _, err := s.codec.IssueRefresh(12345)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), RefreshParams{Token: token})
				assert.ErrorIs(t, err, apperrors.ErrTokenNotRecognized)
			})
		})
	})

	t.Run("logout", func(t *testing.T) {
		t.Run("revokes and is idempotent", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, storage := newService(t, tx, nil)
				user := registerUser(t, s, "leaver")
				approveUser(t, storage, user.ID)
				pair, _, err := s.Login(t.Context(), loginParams("leaver"))
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), pair.Refresh.Value))

				claims, err := s.codec.VerifyRefresh(pair.Refresh.Value)
				require.NoError(t, err)
				record, err := storage.Refresh().GetByJTI(t.Context(), claims.ID)
				require.NoError(t, err)
				assert.True(t, record.Revoked)

				got, err := storage.User().GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				assert.NotNil(t, got.LastLogoutAt)

				// Logging out twice is fine
				require.NoError(t, s.Logout(t.Context(), pair.Refresh.Value))
			})
		})

		t.Run("malformed token is an error", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				s, _ := newService(t, tx, nil)

				err := s.Logout(t.Context(), "garbage")

				assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
			})
		})
	})

	t.Run("logout all revokes every session and audits", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s, storage := newService(t, tx, nil)
			user := registerUser(t, s, "paranoid")
			approveUser(t, storage, user.ID)

			var pairs []models.TokenPair
			for range 3 {
				pair, _, err := s.Login(t.Context(), loginParams("paranoid"))
				require.NoError(t, err)
				pairs = append(pairs, pair)
			}

			require.NoError(t, s.LogoutAll(t.Context(), user.ID))

			for _, pair := range pairs {
				claims, err := s.codec.VerifyRefresh(pair.Refresh.Value)
				require.NoError(t, err)
				record, err := storage.Refresh().GetByJTI(t.Context(), claims.ID)
				require.NoError(t, err)
				assert.True(t, record.Revoked)
			}

			entries, err := storage.Audit().List(t.Context(), 10, 0)
			require.NoError(t, err)
			var found bool
			for _, e := range entries {
				if e.Action == models.AuditSessionsRevoked {
					found = true
					assert.EqualValues(t, 3, e.Metadata["revoked_count"])
				}
			}
			assert.True(t, found)
		})
	})
}

// The refresh rotation is single use even when invocations race: the
// conditional revoke decides one winner, everyone else observes the revoked
// record. Runs on the pool directly so every call takes its own connection.
func Test_AuthService_ConcurrentRefresh(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	s, err := NewService(Config{SecretKey: "test-secret-key"}, storage, nil, nil)
	require.NoError(t, err)

	user, err := s.Register(t.Context(), RegisterParams{
		Username: "racer",
		Email:    "racer@example.com",
		Password: "password1234",
	})
	require.NoError(t, err)

	_, err = storage.User().ApproveUser(t.Context(), repository.ApproveUserParams{
		UserID:     user.ID,
		ApprovedBy: user.ID,
		ApprovedAt: time.Now(),
	})
	require.NoError(t, err)

	pair, _, err := s.Login(t.Context(), LoginParams{
		Username:  "racer",
		Password:  "password1234",
		IP:        "10.0.0.9",
		UserAgent: "tests",
	})
	require.NoError(t, err)

	const racers = 4
	start := make(chan struct{})
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = s.Refresh(context.Background(), RefreshParams{
				Token: pair.Refresh.Value,
				IP:    "10.0.0.9",
			})
		}()
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrTokenRevoked, "every loser must observe the revoked record")
	}
	assert.Equal(t, 1, winners, "exactly one rotation may win")
}
