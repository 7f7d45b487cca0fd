package tokencodec

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vmaleev/bookreview/internal/apperrors"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	// Values of the type claim, always checked on verification so an
	// access token is never accepted where a refresh is expected
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"type"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	TokenType string `json:"type"`
}

// Codec with sensible defaults
type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec produces and parses signed, time-bounded claim sets.
// It is pure: persistence of refresh records is the caller's job.
type Codec struct {
	key        string
	alg        jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// IssueAccess signs a new access token for the user
func (c *Codec) IssueAccess(userID int64, isAdmin bool) (string, time.Time, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.accessTTL)

	token := jwt.NewWithClaims(c.alg, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		IsAdmin:   isAdmin,
		TokenType: TypeAccess,
	})

	signed, err := token.SignedString([]byte(c.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return signed, expiresAt, nil
}

// IssueRefresh signs a new refresh token and returns its jti and expiry
// separately so the caller can persist a record without re-decoding
func (c *Codec) IssueRefresh(userID int64) (token string, jti string, expiresAt time.Time, err error) {
	now := time.Now().Truncate(time.Second)
	jti = uuid.NewString()
	expiresAt = now.Add(c.refreshTTL)

	t := jwt.NewWithClaims(c.alg, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		TokenType: TypeRefresh,
	})

	token, err = t.SignedString([]byte(c.key))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return token, jti, expiresAt, nil
}

// VerifyAccess parses the token and validates signature, expiry and type.
// Every failure surfaces as apperrors.ErrInvalidToken.
func (c *Codec) VerifyAccess(token string) (AccessClaims, error) {
	claims := AccessClaims{}

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(c.key), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)
	if err != nil {
		return claims, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	if claims.TokenType != TypeAccess {
		return claims, fmt.Errorf("%w: wrong token type", apperrors.ErrInvalidToken)
	}

	return claims, nil
}

// VerifyRefresh is symmetric to VerifyAccess with type == "refresh"
func (c *Codec) VerifyRefresh(token string) (RefreshClaims, error) {
	claims := RefreshClaims{}

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(c.key), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)
	if err != nil {
		return claims, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	if claims.TokenType != TypeRefresh {
		return claims, fmt.Errorf("%w: wrong token type", apperrors.ErrInvalidToken)
	}

	return claims, nil
}

// Hash returns the sha256 hex digest of the full token string.
// Stored instead of the raw token and compared on refresh to detect
// reconstructed tokens whose claims still verify.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
