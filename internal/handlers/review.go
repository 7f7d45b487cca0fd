package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/handlers/authctx"
	"github.com/vmaleev/bookreview/internal/handlers/render"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type reviewService interface {
	CreateReview(ctx context.Context, arg repository.CreateReviewParams) (models.Review, error)
	ListByBook(ctx context.Context, bookID int64) ([]models.Review, error)
	UpdateReview(ctx context.Context, actor models.User, id int64, rating int, comment string) (models.Review, error)
	DeleteReview(ctx context.Context, actor models.User, id int64) error
}

type reviewUserGetter interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
}

type ReviewHandler struct {
	reviewService reviewService
	users         reviewUserGetter
	logger        logger.Logger
}

func NewReview(reviews reviewService, users reviewUserGetter, l logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviews, users: users, logger: l}
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=5000"`
}

func (h *ReviewHandler) listForBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	reviews, err := h.reviewService.ListByBook(r.Context(), bookID)
	if err != nil {
		h.logger.Error("list reviews failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		res = append(res, newReviewResponse(rv))
	}
	render.JSON(w, res)
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[ReviewRequest](w, r)
	if err != nil {
		return
	}

	review, err := h.reviewService.CreateReview(r.Context(), repository.CreateReviewParams{
		BookID:  bookID,
		UserID:  principal.UserID,
		Rating:  data.Rating,
		Comment: data.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBookNotFound):
			render.ServiceError(w, "Book not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrReviewAlreadyExists):
			render.ServiceError(w, "You have already reviewed this book", http.StatusConflict)
		default:
			h.logger.Error("create review failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, newReviewResponse(review), http.StatusCreated)
}

func (h *ReviewHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid review id", http.StatusBadRequest)
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	data, err := render.BindAndValidate[ReviewRequest](w, r)
	if err != nil {
		return
	}

	review, err := h.reviewService.UpdateReview(r.Context(), actor, id, data.Rating, data.Comment)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrReviewNotFound):
			render.ServiceError(w, "Review not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrReviewNotOwned):
			render.ServiceError(w, "Not your review", http.StatusForbidden)
		default:
			h.logger.Error("update review failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newReviewResponse(review))
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	type DeleteSuccessResponse struct {
		Message string `json:"message"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid review id", http.StatusBadRequest)
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(r.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrReviewNotFound):
			render.ServiceError(w, "Review not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrReviewNotOwned):
			render.ServiceError(w, "Not your review", http.StatusForbidden)
		default:
			h.logger.Error("delete review failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, DeleteSuccessResponse{Message: "Review deleted"})
}

// actor loads the acting user for ownership checks
func (h *ReviewHandler) actor(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return models.User{}, false
	}

	user, err := h.users.GetUser(r.Context(), principal.UserID)
	if err != nil {
		render.ServiceError(w, "Invalid or expired token", http.StatusUnauthorized)
		return models.User{}, false
	}
	return user, true
}
