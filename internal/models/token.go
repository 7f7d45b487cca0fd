package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by the auth service on login, register approval or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
