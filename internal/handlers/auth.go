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
	"github.com/vmaleev/bookreview/internal/service/auth"
)

type authService interface {
	// Register creates a PENDING account
	// Has to return apperrors.ErrUserAlreadyExists on duplicate username or email
	Register(ctx context.Context, arg auth.RegisterParams) (models.User, error)

	// Login checks credentials and the account status gate
	// Has to return apperrors.ErrInvalidCredentials, ErrPendingApproval or ErrAccountDisabled
	Login(ctx context.Context, arg auth.LoginParams) (models.TokenPair, models.User, error)

	// Refresh rotates a single-use refresh token
	Refresh(ctx context.Context, arg auth.RefreshParams) (models.TokenPair, error)

	// Logout revokes the presented refresh token, idempotently
	Logout(ctx context.Context, token string) error

	// LogoutAll revokes every live session of the user
	LogoutAll(ctx context.Context, userID int64) error
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(auth authService, l logger.Logger) *AuthHandler {
	return &AuthHandler{authService: auth, logger: l}
}

type TokenPairResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	User         *UserResponse `json:"user,omitempty"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type RegisterSuccessResponse struct {
		Message string       `json:"message"`
		User    UserResponse `json:"user"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterParams{
		Username: data.Username,
		Email:    data.Email,
		Password: data.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// No tokens here: the account awaits admin approval
	render.JSONWithStatus(w, RegisterSuccessResponse{
		Message: "Registration accepted, awaiting approval",
		User:    newUserResponse(user),
	}, http.StatusAccepted)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required_without=Email"`
		Email    string `json:"email" validate:"omitempty,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, user, err := h.authService.Login(r.Context(), auth.LoginParams{
		Username:  data.Username,
		Email:     data.Email,
		Password:  data.Password,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid username or password", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrPendingApproval):
			render.ServiceError(w, "Account is pending approval", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrAccountDisabled):
			render.ServiceError(w, "Account is disabled", http.StatusForbidden)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	userResponse := newUserResponse(user)
	render.JSON(w, TokenPairResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    "Bearer",
		User:         &userResponse,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), auth.RefreshParams{
		Token:     data.RefreshToken,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		// Every token failure collapses into the same 401: the exact reason
		// (unknown, revoked, mismatched, disabled owner) is audit material,
		// not client material
		switch {
		case errors.Is(err, apperrors.ErrInvalidToken),
			errors.Is(err, apperrors.ErrTokenNotRecognized),
			errors.Is(err, apperrors.ErrTokenRevoked),
			errors.Is(err, apperrors.ErrTokenMismatch),
			errors.Is(err, apperrors.ErrAccountDisabled):
			render.ServiceError(w, "Invalid or expired token", http.StatusUnauthorized)
		default:
			h.logger.Error("token refresh failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, TokenPairResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    "Bearer",
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.authService.Logout(r.Context(), data.RefreshToken); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidToken):
			render.ServiceError(w, "Invalid or expired token", http.StatusUnauthorized)
		default:
			h.logger.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, LogoutSuccessResponse{Message: "Logged out"})
}

func (h *AuthHandler) logoutAll(w http.ResponseWriter, r *http.Request) {
	type LogoutAllSuccessResponse struct {
		Message string `json:"message"`
	}

	principal, ok := authctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.authService.LogoutAll(r.Context(), principal.UserID); err != nil {
		h.logger.Error("logout-all failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, LogoutAllSuccessResponse{Message: "All sessions revoked"})
}
