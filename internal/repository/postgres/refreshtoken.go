package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const tokenColumns = `id, user_id, jti, token_hash, issued_at, expires_at,
	revoked, revoked_at, replaced_by_jti, ip_address, user_agent`

const createToken = `-- name: CreateRefreshToken
INSERT INTO refresh_tokens (user_id, jti, token_hash, issued_at, expires_at, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + tokenColumns

func (r *RefreshTokenRepo) Create(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, createToken,
		token.UserID, token.JTI, token.TokenHash, token.IssuedAt, token.ExpiresAt,
		token.IPAddress, token.UserAgent)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getByJTI = `-- name: GetRefreshTokenByJTI
SELECT ` + tokenColumns + `
FROM refresh_tokens
WHERE jti = $1
`

func (r *RefreshTokenRepo) GetByJTI(ctx context.Context, jti string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getByJTI, jti)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotRecognized)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRefreshToken
UPDATE refresh_tokens
SET revoked = TRUE, revoked_at = COALESCE(revoked_at, $2)
WHERE jti = $1
`

// Revoke marks the record revoked keeping the first revoked_at.
// Idempotent: revoking an already revoked or unknown token is a no-op.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, jti string, at time.Time) error {
	_, err := r.DB.Exec(ctx, revokeToken, jti, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getAndRevoke = `-- name: GetAndRevokeRefreshToken
UPDATE refresh_tokens
SET revoked = TRUE, revoked_at = $2
WHERE jti = $1 AND NOT revoked
RETURNING ` + tokenColumns

// GetAndRevoke revokes the record only if it is still active.
// The conditional UPDATE makes concurrent rotations race safely: the row is
// locked, one caller gets it back, the rest observe revoked and fail.
func (r *RefreshTokenRepo) GetAndRevoke(ctx context.Context, jti string, at time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getAndRevoke, jti, at)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	if err == nil {
		return token, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return token, fmt.Errorf("db error: %w", err)
	}

	// No active row: distinguish a revoked token from an unknown jti
	token, err = r.GetByJTI(ctx, jti)
	if err != nil {
		return token, err
	}
	return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenRevoked)
}

const revokeAllForUser = `-- name: RevokeAllRefreshTokensForUser
UPDATE refresh_tokens
SET revoked = TRUE, revoked_at = $2
WHERE user_id = $1 AND NOT revoked
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, revokeAllForUser, userID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const linkRotation = `-- name: LinkRotation
UPDATE refresh_tokens
SET replaced_by_jti = $2
WHERE jti = $1
`

func (r *RefreshTokenRepo) LinkRotation(ctx context.Context, oldJTI string, newJTI string) error {
	tag, err := r.DB.Exec(ctx, linkRotation, oldJTI, newJTI)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrTokenNotRecognized)
	default:
		return nil
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.JTI, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt,
		&t.Revoked, &t.RevokedAt, &t.ReplacedByJTI, &t.IPAddress, &t.UserAgent,
	)
	return t, err
}
