package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/handlers/render"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/service/book"
)

type bookService interface {
	CreateBook(ctx context.Context, arg repository.CreateBookParams) (models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	ListBooks(ctx context.Context) ([]models.Book, error)
	UpdateBook(ctx context.Context, id int64, arg repository.CreateBookParams) (models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	CoverUpload(ctx context.Context, bookID int64, filename string) (string, error)
}

type bookReviewLister interface {
	ListByBook(ctx context.Context, bookID int64) ([]models.Review, error)
}

type BookHandler struct {
	bookService bookService
	reviews     bookReviewLister
	logger      logger.Logger
}

func NewBook(books bookService, reviews bookReviewLister, l logger.Logger) *BookHandler {
	return &BookHandler{bookService: books, reviews: reviews, logger: l}
}

type BookRequest struct {
	Title         string `json:"title" validate:"required,max=300"`
	Author        string `json:"author" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	Genre         string `json:"genre" validate:"max=100"`
	PublishedYear *int   `json:"published_year" validate:"omitempty,min=1,max=2100"`
}

func (h *BookHandler) list(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.ListBooks(r.Context())
	if err != nil {
		h.logger.Error("list books failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]BookResponse, 0, len(books))
	for _, b := range books {
		res = append(res, newBookResponse(b))
	}
	render.JSON(w, res)
}

func (h *BookHandler) get(w http.ResponseWriter, r *http.Request) {
	type response struct {
		BookResponse
		Reviews []ReviewResponse `json:"reviews"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	b, err := h.bookService.GetBook(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBookNotFound):
			render.ServiceError(w, "Book not found", http.StatusNotFound)
		default:
			h.logger.Error("get book failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	reviews, err := h.reviews.ListByBook(r.Context(), id)
	if err != nil {
		h.logger.Error("list book reviews failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := response{BookResponse: newBookResponse(b), Reviews: make([]ReviewResponse, 0, len(reviews))}
	for _, rv := range reviews {
		res.Reviews = append(res.Reviews, newReviewResponse(rv))
	}
	render.JSON(w, res)
}

func (h *BookHandler) create(w http.ResponseWriter, r *http.Request) {
	data, err := render.BindAndValidate[BookRequest](w, r)
	if err != nil {
		return
	}

	b, err := h.bookService.CreateBook(r.Context(), repository.CreateBookParams{
		Title:         data.Title,
		Author:        data.Author,
		Description:   data.Description,
		Genre:         data.Genre,
		PublishedYear: data.PublishedYear,
	})
	if err != nil {
		h.logger.Error("create book failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, newBookResponse(b), http.StatusCreated)
}

func (h *BookHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[BookRequest](w, r)
	if err != nil {
		return
	}

	b, err := h.bookService.UpdateBook(r.Context(), id, repository.CreateBookParams{
		Title:         data.Title,
		Author:        data.Author,
		Description:   data.Description,
		Genre:         data.Genre,
		PublishedYear: data.PublishedYear,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBookNotFound):
			render.ServiceError(w, "Book not found", http.StatusNotFound)
		default:
			h.logger.Error("update book failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newBookResponse(b))
}

func (h *BookHandler) delete(w http.ResponseWriter, r *http.Request) {
	type DeleteSuccessResponse struct {
		Message string `json:"message"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	if err := h.bookService.DeleteBook(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBookNotFound):
			render.ServiceError(w, "Book not found", http.StatusNotFound)
		default:
			h.logger.Error("delete book failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, DeleteSuccessResponse{Message: "Book deleted"})
}

func (h *BookHandler) coverUpload(w http.ResponseWriter, r *http.Request) {
	type CoverRequest struct {
		Filename string `json:"filename" validate:"required,max=255"`
	}
	type CoverResponse struct {
		UploadURL string `json:"upload_url"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[CoverRequest](w, r)
	if err != nil {
		return
	}

	uploadURL, err := h.bookService.CoverUpload(r.Context(), id, data.Filename)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBookNotFound):
			render.ServiceError(w, "Book not found", http.StatusNotFound)
		case errors.Is(err, book.ErrUploadsDisabled):
			render.ServiceError(w, "Cover uploads are not configured", http.StatusServiceUnavailable)
		default:
			h.logger.Error("cover upload failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, CoverResponse{UploadURL: uploadURL})
}
