package repository

import (
	"context"
	"time"

	"github.com/vmaleev/bookreview/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
	IsAdmin        bool
	Status         string
	IsActive       bool
}

type ApproveUserParams struct {
	UserID     int64
	ApprovedBy int64
	ApprovedAt time.Time
}

// User repository interface
type UserRepo interface {
	// Create user
	// Has to return apperrors.ErrUserAlreadyExists on duplicate username or email
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, username or email
	// Has to return apperrors.ErrUserNotFound if absent
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Approve flips status to ACTIVE and is_active to true in one statement
	ApproveUser(ctx context.Context, arg ApproveUserParams) (models.User, error)
	RejectUser(ctx context.Context, userID int64) (models.User, error)

	SetLastLogin(ctx context.Context, userID int64, at time.Time) error
	SetLastLogout(ctx context.Context, userID int64, at time.Time) error
}

// RefreshToken repository interface
// Records are never deleted: revocation and rotation only flip columns
type RefreshTokenRepo interface {
	// Create token record
	// Duplicate jti must surface as an error, not be silently ignored
	Create(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Has to return apperrors.ErrTokenNotRecognized if the jti is unknown
	GetByJTI(ctx context.Context, jti string) (models.RefreshToken, error)

	// Revoke the record no matter its current state
	// Idempotent: the first revoked_at is kept, revoking again is a no-op
	Revoke(ctx context.Context, jti string, at time.Time) error

	// Revoke the record only if it is not revoked yet and return it.
	// Exactly one of several concurrent callers wins; the others get
	// apperrors.ErrTokenRevoked. This is the rotation critical section.
	GetAndRevoke(ctx context.Context, jti string, at time.Time) (models.RefreshToken, error)

	// Bulk-revoke every non-revoked record of the user, returns count
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error)

	// Point the old record at its successor
	LinkRotation(ctx context.Context, oldJTI string, newJTI string) error
}

type CreateBookParams struct {
	Title         string
	Author        string
	Description   string
	Genre         string
	PublishedYear *int
}

type BookRepo interface {
	CreateBook(ctx context.Context, arg CreateBookParams) (models.Book, error)

	// Both return apperrors.ErrBookNotFound if absent
	GetBook(ctx context.Context, id int64) (models.Book, error)
	UpdateBook(ctx context.Context, id int64, arg CreateBookParams) (models.Book, error)

	ListBooks(ctx context.Context) ([]models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	SetCover(ctx context.Context, id int64, key string, url string) error
}

type CreateReviewParams struct {
	BookID  int64
	UserID  int64
	Rating  int
	Comment string
}

type ReviewRepo interface {
	// Has to return apperrors.ErrReviewAlreadyExists if the user reviewed the book already
	CreateReview(ctx context.Context, arg CreateReviewParams) (models.Review, error)

	GetReview(ctx context.Context, id int64) (models.Review, error)
	UpdateReview(ctx context.Context, id int64, rating int, comment string) (models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	ListByBook(ctx context.Context, bookID int64) ([]models.Review, error)
}

type CreateSuggestionParams struct {
	UserID int64
	Title  string
	Author string
	Note   string
}

type ResolveSuggestionParams struct {
	SuggestionID int64
	Status       string
	ResolvedBy   int64
	ResolvedAt   time.Time
}

type SuggestionRepo interface {
	CreateSuggestion(ctx context.Context, arg CreateSuggestionParams) (models.Suggestion, error)
	GetSuggestion(ctx context.Context, id int64) (models.Suggestion, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Suggestion, error)
	ListAll(ctx context.Context) ([]models.Suggestion, error)

	// Has to return apperrors.ErrSuggestionResolved if the suggestion is not PENDING
	ResolveSuggestion(ctx context.Context, arg ResolveSuggestionParams) (models.Suggestion, error)
}

type AuditRepo interface {
	Record(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context, limit int, offset int) ([]models.AuditEntry, error)
}

// Storage aggregates every repository over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Book() BookRepo
	Review() ReviewRepo
	Suggestion() SuggestionRepo
	Audit() AuditRepo

	// InTx runs fn with a Storage bound to a single db transaction.
	// Commit if fn returns nil, rollback otherwise.
	InTx(ctx context.Context, fn func(s Storage) error) error
}
