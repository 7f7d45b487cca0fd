package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, username, email, password_hash, is_admin,
	status, is_active, approved_at, approved_by, last_login_at, last_logout_at`

const createUser = `-- name: CreateUser
INSERT INTO users (username, email, password_hash, is_admin, status, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		arg.Username, arg.Email, arg.HashedPassword, arg.IsAdmin, arg.Status, arg.IsActive)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + ` FROM users
ORDER BY id
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
`

func (r *UserRepo) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteUser, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

const approveUser = `-- name: ApproveUser
UPDATE users
SET status = 'ACTIVE', is_active = TRUE, approved_at = $2, approved_by = $3
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) ApproveUser(ctx context.Context, arg repository.ApproveUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, approveUser, arg.UserID, arg.ApprovedAt, arg.ApprovedBy)
	return collectUser(rows)
}

const rejectUser = `-- name: RejectUser
UPDATE users
SET status = 'REJECTED', is_active = FALSE
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) RejectUser(ctx context.Context, userID int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, rejectUser, userID)
	return collectUser(rows)
}

const setLastLogin = `-- name: SetLastLogin
UPDATE users
SET last_login_at = $2
WHERE id = $1
`

func (r *UserRepo) SetLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.DB.Exec(ctx, setLastLogin, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const setLastLogout = `-- name: SetLastLogout
UPDATE users
SET last_logout_at = $2
WHERE id = $1
`

func (r *UserRepo) SetLastLogout(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.DB.Exec(ctx, setLastLogout, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.HashedPassword, &u.IsAdmin,
		&u.Status, &u.IsActive, &u.ApprovedAt, &u.ApprovedBy, &u.LastLoginAt, &u.LastLogoutAt,
	)
	return u, err
}
