package models

import (
	"time"
)

const (
	SuggestionStatusPending  = "PENDING"
	SuggestionStatusApproved = "APPROVED"
	SuggestionStatusRejected = "REJECTED"
)

type Suggestion struct {
	ID         int64
	CreatedAt  time.Time
	UserID     int64
	Title      string
	Author     string
	Note       string
	Status     string
	ResolvedAt *time.Time
	ResolvedBy *int64
}
