package user

import (
	"context"
	"fmt"
	"time"

	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/service/auth"
)

// Notifier delivers account decision emails, fire-and-forget
type Notifier interface {
	UserApproved(ctx context.Context, user models.User)
	UserRejected(ctx context.Context, user models.User)
}

// UserService covers profile reads and the admin approval workflow
type UserService struct {
	hasher   auth.PasswordHasher
	storage  repository.Storage
	notifier Notifier
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage, notifier Notifier) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		storage:  storage,
		notifier: notifier,
	}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx)
}

type CreateParams struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// CreateUser is the admin path: accounts start ACTIVE, no approval loop
func (s *UserService) CreateUser(ctx context.Context, actorID int64, arg CreateParams) (models.User, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	var user models.User
	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err = store.User().CreateUser(ctx, repository.CreateUserParams{
			Username:       arg.Username,
			Email:          arg.Email,
			HashedPassword: hash,
			IsAdmin:        arg.IsAdmin,
			Status:         models.UserStatusActive,
			IsActive:       true,
		})
		if err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditUserCreatedByAdmin,
			EntityType:  "user",
			EntityID:    &user.ID,
		})
	})

	return user, err
}

func (s *UserService) DeleteUser(ctx context.Context, actorID int64, userID int64) error {
	return s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := store.User().DeleteUser(ctx, userID); err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditUserDeleted,
			EntityType:  "user",
			EntityID:    &userID,
		})
	})
}

// ApproveUser flips the account to ACTIVE and emails the user.
// Approving an already active account is a no-op that still reports success.
func (s *UserService) ApproveUser(ctx context.Context, actorID int64, userID int64) (models.User, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return user, err
	}
	if user.Status == models.UserStatusActive {
		return user, nil
	}

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err = store.User().ApproveUser(ctx, repository.ApproveUserParams{
			UserID:     userID,
			ApprovedBy: actorID,
			ApprovedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditUserApproved,
			EntityType:  "user",
			EntityID:    &userID,
		})
	})
	if err != nil {
		return user, err
	}

	if s.notifier != nil {
		s.notifier.UserApproved(ctx, user)
	}

	return user, nil
}

func (s *UserService) RejectUser(ctx context.Context, actorID int64, userID int64) (models.User, error) {
	var user models.User

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		user, err = store.User().RejectUser(ctx, userID)
		if err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditUserRejected,
			EntityType:  "user",
			EntityID:    &userID,
		})
	})
	if err != nil {
		return user, err
	}

	if s.notifier != nil {
		s.notifier.UserRejected(ctx, user)
	}

	return user, nil
}

func (s *UserService) ListAuditLog(ctx context.Context, limit int, offset int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.storage.Audit().List(ctx, limit, offset)
}
