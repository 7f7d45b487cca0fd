package models

import (
	"time"
)

// Audit actions recorded by the core. Security signals (revoked token reuse,
// hash mismatch) are recorded but do not trigger lockout.
const (
	AuditUserApproved       = "user.approved"
	AuditUserRejected       = "user.rejected"
	AuditUserDeleted        = "user.deleted"
	AuditUserCreatedByAdmin = "user.created_by_admin"

	AuditTokenReplayDetected   = "token.replay_detected"
	AuditTokenMismatchDetected = "token.mismatch_detected"
	AuditSessionsRevoked       = "token.sessions_revoked"

	AuditSuggestionApproved = "suggestion.approved"
	AuditSuggestionRejected = "suggestion.rejected"
)

type AuditEntry struct {
	ID          int64
	CreatedAt   time.Time
	ActorUserID *int64
	Action      string
	EntityType  string
	EntityID    *int64
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
}
