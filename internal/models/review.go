package models

import (
	"time"
)

type Review struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	BookID    int64
	UserID    int64
	Username  string // joined from users for rendering
	Rating    int
	Comment   string
}
