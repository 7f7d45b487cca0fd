package models

import (
	"time"
)

// RefreshToken is the persisted record of an issued refresh token.
// The raw token string is never stored, only its hash. Records are kept
// forever for audit: rotation and revocation only flip flags.
type RefreshToken struct {
	ID     int64
	UserID int64

	// JTI is embedded in the token claims and is the lookup key
	JTI       string
	TokenHash string

	IssuedAt  time.Time
	ExpiresAt time.Time

	Revoked   bool
	RevokedAt *time.Time

	// Set when the token is rotated out, points at the successor's JTI
	ReplacedByJTI *string

	// Request provenance, write-only audit context
	IPAddress string
	UserAgent string
}
