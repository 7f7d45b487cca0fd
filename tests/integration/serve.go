package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/vmaleev/bookreview/internal/handlers"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/repository/postgres"
	"github.com/vmaleev/bookreview/internal/service/auth"
	"github.com/vmaleev/bookreview/internal/service/book"
	"github.com/vmaleev/bookreview/internal/service/review"
	"github.com/vmaleev/bookreview/internal/service/suggestion"
	"github.com/vmaleev/bookreview/internal/service/user"
	"github.com/vmaleev/bookreview/internal/testutil"
)

type Services struct {
	AuthService       *auth.AuthService
	UserService       *user.UserService
	BookService       *book.BookService
	ReviewService     *review.ReviewService
	SuggestionService *suggestion.SuggestionService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		as, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, storage, nil, nil)
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(auth.DefaultHasher, storage, nil)
		bs := book.NewService(storage, nil)
		rs := review.NewService(storage)
		ss := suggestion.NewService(storage)

		router := handlers.NewRouter(as.Codec(), as, us, bs, rs, ss, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:       as,
			UserService:       us,
			BookService:       bs,
			ReviewService:     rs,
			SuggestionService: ss,
		})
	})
}
