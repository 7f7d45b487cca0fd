package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("username or email already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPendingApproval    = errors.New("account is pending approval")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNotRecognized = errors.New("refresh token not recognized")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrTokenMismatch      = errors.New("refresh token mismatch")

	ErrBookNotFound        = errors.New("book not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists for this user and book")
	ErrReviewNotOwned      = errors.New("review belongs to another user")

	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrSuggestionResolved = errors.New("suggestion already resolved")
)
