package tokencodec

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmaleev/bookreview/internal/apperrors"
)

func Test_Codec(t *testing.T) {
	t.Parallel()

	newCodec := func(t *testing.T, cfg Config) *Codec {
		if cfg.SecretKey == "" {
			cfg.SecretKey = "test-secret-key"
		}
		c, err := New(cfg)
		require.NoError(t, err, "codec should be created without errors")
		return c
	}

	t.Run("new defaults", func(t *testing.T) {
		c, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "codec should be created without errors")

		require.Equal(t, "secret", c.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, c.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, c.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, c.alg.Alg(), "default signing method should be set")
	})

	t.Run("new requires secret", func(t *testing.T) {
		_, err := New(Config{})

		require.Error(t, err, "empty secret must be rejected")
	})

	t.Run("IssueAccess", func(t *testing.T) {
		t.Run("claims", func(t *testing.T) {
			c := newCodec(t, Config{AccessTTL: 15 * time.Minute})

			token, expiresAt, err := c.IssueAccess(42, true)
			require.NoError(t, err)

			claims, err := c.VerifyAccess(token)
			require.NoError(t, err)

			assert.Equal(t, int64(42), claims.UserID, "user id in token should match")
			assert.True(t, claims.IsAdmin, "is_admin should round trip")
			assert.Equal(t, TypeAccess, claims.TokenType)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Second)
			assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, 0, "expires at should match returned value")
		})

		t.Run("unique jti per token", func(t *testing.T) {
			c := newCodec(t, Config{})

			first, _, err := c.IssueAccess(1, false)
			require.NoError(t, err)
			second, _, err := c.IssueAccess(1, false)
			require.NoError(t, err)

			firstClaims, err := c.VerifyAccess(first)
			require.NoError(t, err)
			secondClaims, err := c.VerifyAccess(second)
			require.NoError(t, err)

			assert.NotEqual(t, firstClaims.ID, secondClaims.ID, "every token gets its own jti")
		})
	})

	t.Run("IssueRefresh", func(t *testing.T) {
		c := newCodec(t, Config{RefreshTTL: 24 * time.Hour})

		token, jti, expiresAt, err := c.IssueRefresh(7)
		require.NoError(t, err)

		claims, err := c.VerifyRefresh(token)
		require.NoError(t, err)

		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, TypeRefresh, claims.TokenType)
		assert.Equal(t, jti, claims.ID, "returned jti should match the claim")
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Second)
	})

	t.Run("verify rejects expired token", func(t *testing.T) {
		c := newCodec(t, Config{AccessTTL: -time.Minute, RefreshTTL: -time.Minute})

		access, _, err := c.IssueAccess(1, false)
		require.NoError(t, err)
		refresh, _, _, err := c.IssueRefresh(1)
		require.NoError(t, err)

		_, err = c.VerifyAccess(access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "expired access token must fail")

		_, err = c.VerifyRefresh(refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "expired refresh token must fail")
	})

	t.Run("verify rejects wrong token type", func(t *testing.T) {
		c := newCodec(t, Config{})

		access, _, err := c.IssueAccess(1, false)
		require.NoError(t, err)
		refresh, _, _, err := c.IssueRefresh(1)
		require.NoError(t, err)

		_, err = c.VerifyAccess(refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "refresh token must not pass as access")

		_, err = c.VerifyRefresh(access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "access token must not pass as refresh")
	})

	t.Run("verify rejects tampered signature", func(t *testing.T) {
		c := newCodec(t, Config{})
		other := newCodec(t, Config{SecretKey: "another-secret"})

		token, _, err := other.IssueAccess(1, false)
		require.NoError(t, err)

		_, err = c.VerifyAccess(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "foreign signature must fail")
	})

	t.Run("verify rejects none algorithm", func(t *testing.T) {
		c := newCodec(t, Config{})

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "fake",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID:    1,
			TokenType: TypeAccess,
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = c.VerifyAccess(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "alg=none must never verify")
	})

	t.Run("hash is stable and token bound", func(t *testing.T) {
		c := newCodec(t, Config{})

		token, _, _, err := c.IssueRefresh(1)
		require.NoError(t, err)

		assert.Equal(t, Hash(token), Hash(token), "same token same digest")
		assert.Len(t, Hash(token), 64, "sha256 hex digest")
		assert.NotEqual(t, Hash(token), Hash(token+"x"), "different token different digest")
	})
}
