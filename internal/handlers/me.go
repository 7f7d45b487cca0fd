package handlers

import (
	"context"
	"net/http"

	"github.com/vmaleev/bookreview/internal/handlers/authctx"
	"github.com/vmaleev/bookreview/internal/handlers/render"
	"github.com/vmaleev/bookreview/internal/models"
)

type meUserGetter interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
}

func handleUserMe(users meUserGetter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		user, err := users.GetUser(r.Context(), principal.UserID)
		if err != nil {
			render.ServiceError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleHealth() http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Status: "ok"})
	})
}
