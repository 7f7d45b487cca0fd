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

type suggestionService interface {
	Suggest(ctx context.Context, arg repository.CreateSuggestionParams) (models.Suggestion, error)
	ListMine(ctx context.Context, userID int64) ([]models.Suggestion, error)
	ListAll(ctx context.Context) ([]models.Suggestion, error)
	Approve(ctx context.Context, actorID int64, suggestionID int64) (models.Suggestion, models.Book, error)
	Reject(ctx context.Context, actorID int64, suggestionID int64) (models.Suggestion, error)
}

type SuggestionHandler struct {
	suggestionService suggestionService
	logger            logger.Logger
}

func NewSuggestion(suggestions suggestionService, l logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestions, logger: l}
}

func (h *SuggestionHandler) create(w http.ResponseWriter, r *http.Request) {
	type SuggestionRequest struct {
		Title  string `json:"title" validate:"required,max=300"`
		Author string `json:"author" validate:"required,max=200"`
		Note   string `json:"note" validate:"max=2000"`
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[SuggestionRequest](w, r)
	if err != nil {
		return
	}

	suggestion, err := h.suggestionService.Suggest(r.Context(), repository.CreateSuggestionParams{
		UserID: principal.UserID,
		Title:  data.Title,
		Author: data.Author,
		Note:   data.Note,
	})
	if err != nil {
		h.logger.Error("create suggestion failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, newSuggestionResponse(suggestion), http.StatusCreated)
}

func (h *SuggestionHandler) listMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	suggestions, err := h.suggestionService.ListMine(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error("list my suggestions failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderList(w, suggestions)
}

func (h *SuggestionHandler) listAll(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.suggestionService.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list suggestions failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderList(w, suggestions)
}

func (h *SuggestionHandler) approve(w http.ResponseWriter, r *http.Request) {
	type ApproveSuccessResponse struct {
		Suggestion SuggestionResponse `json:"suggestion"`
		Book       BookResponse       `json:"book"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid suggestion id", http.StatusBadRequest)
		return
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	suggestion, book, err := h.suggestionService.Approve(r.Context(), principal.UserID, id)
	if err != nil {
		h.renderResolveError(w, err, "approve")
		return
	}

	render.JSON(w, ApproveSuccessResponse{
		Suggestion: newSuggestionResponse(suggestion),
		Book:       newBookResponse(book),
	})
}

func (h *SuggestionHandler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid suggestion id", http.StatusBadRequest)
		return
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	suggestion, err := h.suggestionService.Reject(r.Context(), principal.UserID, id)
	if err != nil {
		h.renderResolveError(w, err, "reject")
		return
	}

	render.JSON(w, newSuggestionResponse(suggestion))
}

func (h *SuggestionHandler) renderList(w http.ResponseWriter, suggestions []models.Suggestion) {
	res := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		res = append(res, newSuggestionResponse(s))
	}
	render.JSON(w, res)
}

func (h *SuggestionHandler) renderResolveError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrSuggestionNotFound):
		render.ServiceError(w, "Suggestion not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrSuggestionResolved):
		render.ServiceError(w, "Suggestion already resolved", http.StatusConflict)
	default:
		h.logger.Error("can't "+action+" suggestion", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
