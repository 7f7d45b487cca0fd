package review

import (
	"context"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type ReviewService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ReviewService {
	return &ReviewService{storage: storage}
}

func (s *ReviewService) CreateReview(ctx context.Context, arg repository.CreateReviewParams) (models.Review, error) {
	return s.storage.Review().CreateReview(ctx, arg)
}

func (s *ReviewService) ListByBook(ctx context.Context, bookID int64) ([]models.Review, error) {
	return s.storage.Review().ListByBook(ctx, bookID)
}

// UpdateReview lets only the author change a review
func (s *ReviewService) UpdateReview(ctx context.Context, actor models.User, id int64, rating int, comment string) (models.Review, error) {
	review, err := s.storage.Review().GetReview(ctx, id)
	if err != nil {
		return review, err
	}

	if review.UserID != actor.ID {
		return review, apperrors.ErrReviewNotOwned
	}

	return s.storage.Review().UpdateReview(ctx, id, rating, comment)
}

// DeleteReview allows the author or an admin
func (s *ReviewService) DeleteReview(ctx context.Context, actor models.User, id int64) error {
	review, err := s.storage.Review().GetReview(ctx, id)
	if err != nil {
		return err
	}

	if review.UserID != actor.ID && !actor.IsAdmin {
		return apperrors.ErrReviewNotOwned
	}

	return s.storage.Review().DeleteReview(ctx, id)
}
