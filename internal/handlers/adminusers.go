package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/handlers/authctx"
	"github.com/vmaleev/bookreview/internal/handlers/render"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/service/user"
)

type userService interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, actorID int64, arg user.CreateParams) (models.User, error)
	DeleteUser(ctx context.Context, actorID int64, userID int64) error
	ApproveUser(ctx context.Context, actorID int64, userID int64) (models.User, error)
	RejectUser(ctx context.Context, actorID int64, userID int64) (models.User, error)
	ListAuditLog(ctx context.Context, limit int, offset int) ([]models.AuditEntry, error)
}

type AdminUsersHandler struct {
	userService userService
	logger      logger.Logger
}

func NewAdminUsers(users userService, l logger.Logger) *AdminUsersHandler {
	return &AdminUsersHandler{userService: users, logger: l}
}

func (h *AdminUsersHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, newUserResponse(u))
	}
	render.JSON(w, res)
}

func (h *AdminUsersHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateUserRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		IsAdmin  bool   `json:"is_admin"`
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[CreateUserRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.userService.CreateUser(r.Context(), principal.UserID, user.CreateParams{
		Username: data.Username,
		Email:    data.Email,
		Password: data.Password,
		IsAdmin:  data.IsAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			h.logger.Error("admin create user failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, newUserResponse(created), http.StatusCreated)
}

func (h *AdminUsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	type DeleteSuccessResponse struct {
		Message string `json:"message"`
	}

	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), principal.UserID, id); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("delete user failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, DeleteSuccessResponse{Message: "User deleted"})
}

func (h *AdminUsersHandler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.userService.ApproveUser)
}

func (h *AdminUsersHandler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.userService.RejectUser)
}

func (h *AdminUsersHandler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, actorID int64, userID int64) (models.User, error),
) {
	id, ok := pathID(r, "id")
	if !ok {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	u, err := fn(r.Context(), principal.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("resolve user failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newUserResponse(u))
}

func (h *AdminUsersHandler) auditLog(w http.ResponseWriter, r *http.Request) {
	type AuditEntryResponse struct {
		ID          int64          `json:"id"`
		CreatedAt   time.Time      `json:"created_at"`
		ActorUserID *int64         `json:"actor_user_id,omitempty"`
		Action      string         `json:"action"`
		EntityType  string         `json:"entity_type"`
		EntityID    *int64         `json:"entity_id,omitempty"`
		Metadata    map[string]any `json:"metadata,omitempty"`
		IPAddress   string         `json:"ip_address,omitempty"`
		UserAgent   string         `json:"user_agent,omitempty"`
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.userService.ListAuditLog(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list audit log failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, AuditEntryResponse{
			ID:          e.ID,
			CreatedAt:   e.CreatedAt,
			ActorUserID: e.ActorUserID,
			Action:      e.Action,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Metadata:    e.Metadata,
			IPAddress:   e.IPAddress,
			UserAgent:   e.UserAgent,
		})
	}
	render.JSON(w, res)
}
