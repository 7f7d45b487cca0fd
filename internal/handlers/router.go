package handlers

import (
	"net/http"

	"github.com/vmaleev/bookreview/internal/handlers/middleware"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/service/auth/tokencodec"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	codec *tokencodec.Codec,
	authSvc authService,
	userSvc userService,
	bookSvc bookService,
	reviewSvc reviewService,
	suggestionSvc suggestionService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.Auth(codec)
	activeMiddleware := middleware.RequireActive(userSvc)

	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withActive := func(h http.Handler) http.Handler {
		return chain(h, authMiddleware, activeMiddleware)
	}
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, authMiddleware, middleware.RequireAdmin)
	}

	authHandler := NewAuth(authSvc, l)
	bookHandler := NewBook(bookSvc, reviewSvc, l)
	reviewHandler := NewReview(reviewSvc, userSvc, l)
	suggestionHandler := NewSuggestion(suggestionSvc, l)
	adminHandler := NewAdminUsers(userSvc, l)

	mux := http.NewServeMux()

	mux.Handle("GET /health", handleHealth())
	mux.Handle("GET /me", withAuth(handleUserMe(userSvc)))

	mux.HandleFunc("POST /auth/register", authHandler.register)
	mux.HandleFunc("POST /auth/login", authHandler.login)
	mux.HandleFunc("POST /auth/refresh", authHandler.refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.logout)
	mux.Handle("POST /auth/logout-all", withAuth(http.HandlerFunc(authHandler.logoutAll)))

	mux.HandleFunc("GET /books", bookHandler.list)
	mux.HandleFunc("GET /books/{id}", bookHandler.get)
	mux.Handle("POST /books", withAdmin(http.HandlerFunc(bookHandler.create)))
	mux.Handle("PUT /books/{id}", withAdmin(http.HandlerFunc(bookHandler.update)))
	mux.Handle("DELETE /books/{id}", withAdmin(http.HandlerFunc(bookHandler.delete)))
	mux.Handle("POST /books/{id}/cover", withAdmin(http.HandlerFunc(bookHandler.coverUpload)))

	mux.HandleFunc("GET /books/{id}/reviews", reviewHandler.listForBook)
	mux.Handle("POST /books/{id}/reviews", withActive(http.HandlerFunc(reviewHandler.create)))
	mux.Handle("PUT /reviews/{id}", withActive(http.HandlerFunc(reviewHandler.update)))
	mux.Handle("DELETE /reviews/{id}", withActive(http.HandlerFunc(reviewHandler.delete)))

	mux.Handle("POST /suggestions", withActive(http.HandlerFunc(suggestionHandler.create)))
	mux.Handle("GET /suggestions/mine", withAuth(http.HandlerFunc(suggestionHandler.listMine)))
	mux.Handle("GET /admin/suggestions", withAdmin(http.HandlerFunc(suggestionHandler.listAll)))
	mux.Handle("POST /admin/suggestions/{id}/approve", withAdmin(http.HandlerFunc(suggestionHandler.approve)))
	mux.Handle("POST /admin/suggestions/{id}/reject", withAdmin(http.HandlerFunc(suggestionHandler.reject)))

	mux.Handle("GET /admin/users", withAdmin(http.HandlerFunc(adminHandler.list)))
	mux.Handle("POST /admin/users", withAdmin(http.HandlerFunc(adminHandler.create)))
	mux.Handle("DELETE /admin/users/{id}", withAdmin(http.HandlerFunc(adminHandler.delete)))
	mux.Handle("POST /admin/users/{id}/approve", withAdmin(http.HandlerFunc(adminHandler.approve)))
	mux.Handle("POST /admin/users/{id}/reject", withAdmin(http.HandlerFunc(adminHandler.reject)))

	mux.Handle("GET /admin/audit-logs", withAdmin(http.HandlerFunc(adminHandler.auditLog)))

	return chain(mux,
		middleware.LoggerMiddleware(l),
	)
}
