package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vmaleev/bookreview/internal/models"
)

type UserResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsAdmin     bool       `json:"is_admin"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		ApprovedAt:  u.ApprovedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

type BookResponse struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Description   string          `json:"description,omitempty"`
	Genre         string          `json:"genre,omitempty"`
	PublishedYear *int            `json:"published_year,omitempty"`
	CoverURL      string          `json:"cover_url,omitempty"`
	AvgRating     decimal.Decimal `json:"avg_rating"`
	ReviewCount   int64           `json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newBookResponse(b models.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		CoverURL:      b.CoverURL,
		AvgRating:     b.AvgRating,
		ReviewCount:   b.ReviewCount,
		CreatedAt:     b.CreatedAt,
	}
}

type ReviewResponse struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newReviewResponse(rv models.Review) ReviewResponse {
	return ReviewResponse{
		ID:        rv.ID,
		BookID:    rv.BookID,
		UserID:    rv.UserID,
		Username:  rv.Username,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
		UpdatedAt: rv.UpdatedAt,
	}
}

type SuggestionResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Note       string     `json:"note,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func newSuggestionResponse(s models.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:         s.ID,
		UserID:     s.UserID,
		Title:      s.Title,
		Author:     s.Author,
		Note:       s.Note,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt,
		ResolvedAt: s.ResolvedAt,
	}
}
