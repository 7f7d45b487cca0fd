package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID            int64
	CreatedAt     time.Time
	Title         string
	Author        string
	Description   string
	Genre         string
	PublishedYear *int

	// Object storage key and public URL of the cover image, empty until uploaded
	CoverKey string
	CoverURL string

	// Aggregates filled by list/get queries
	AvgRating   decimal.Decimal
	ReviewCount int64
}
