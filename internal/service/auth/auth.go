package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmaleev/bookreview/internal/apperrors"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
	"github.com/vmaleev/bookreview/internal/service/auth/tokencodec"
)

// Notifier sends the "new user waiting for approval" email to the admin.
// Sending is fire-and-forget: implementations log failures themselves.
type Notifier interface {
	AdminNewUser(ctx context.Context, user models.User)
}

type Config struct {
	// Secret key to sign token payloads
	SecretKey string

	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Access and refresh token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService is the only component allowed to mint or invalidate sessions.
// No session state lives in memory: the refresh token store is the single
// source of truth, every check re-reads it.
type AuthService struct {
	codec    *tokencodec.Codec
	hasher   PasswordHasher
	storage  repository.Storage
	notifier Notifier
	logger   logger.Logger
}

func NewService(cfg Config, storage repository.Storage, notifier Notifier, l logger.Logger) (*AuthService, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	codec, err := tokencodec.New(tokencodec.Config{
		SecretKey:  cfg.SecretKey,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create token codec. Err: %w", err)
	}

	return &AuthService{
		codec:    codec,
		hasher:   hasher,
		storage:  storage,
		notifier: notifier,
		logger:   l,
	}, nil
}

// Codec exposes the token codec for the access gate middleware
func (s *AuthService) Codec() *tokencodec.Codec {
	return s.codec
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// Register creates a PENDING user and notifies the admin.
// No tokens are issued: the account has to be approved first.
func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.User, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:       arg.Username,
		Email:          arg.Email,
		HashedPassword: hash,
		Status:         models.UserStatusPending,
	})
	if err != nil {
		return models.User{}, err
	}

	if s.notifier != nil {
		s.notifier.AdminNewUser(ctx, user)
	}

	return user, nil
}

type LoginParams struct {
	// Either username or email identifies the account
	Username string
	Email    string
	Password string

	// Request provenance persisted with the refresh record
	IP        string
	UserAgent string
}

// Login checks credentials and the account status gate, then issues a token
// pair. Persisting the refresh record and stamping last_login_at happen in
// one transaction: no token without its backing record.
func (s *AuthService) Login(ctx context.Context, arg LoginParams) (models.TokenPair, models.User, error) {
	var pair models.TokenPair

	user, err := s.resolveUser(ctx, arg.Username, arg.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return pair, user, apperrors.ErrInvalidCredentials
		}
		return pair, user, err
	}

	if err := s.hasher.Compare(user.HashedPassword, arg.Password); err != nil {
		return pair, user, apperrors.ErrInvalidCredentials
	}

	if err := checkStatusGate(user); err != nil {
		return pair, user, err
	}

	pair, record, err := s.issuePair(user)
	if err != nil {
		return pair, user, err
	}
	record.IPAddress = arg.IP
	record.UserAgent = arg.UserAgent

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		if _, err := store.Refresh().Create(ctx, record); err != nil {
			return err
		}
		return store.User().SetLastLogin(ctx, user.ID, time.Now())
	})
	if err != nil {
		return models.TokenPair{}, user, fmt.Errorf("can't persist session. Err: %w", err)
	}

	return pair, user, nil
}

type RefreshParams struct {
	Token     string
	IP        string
	UserAgent string
}

// Refresh rotates a refresh token: the presented one is revoked, a new pair
// is issued and the old record is linked to its successor. A refresh token
// is single-use; any second presentation fails on the revoked check, which
// is the replay defense (detection, not prevention).
func (s *AuthService) Refresh(ctx context.Context, arg RefreshParams) (models.TokenPair, error) {
	var pair models.TokenPair

	claims, err := s.codec.VerifyRefresh(arg.Token)
	if err != nil {
		return pair, err
	}
	jti := claims.ID

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		record, err := store.Refresh().GetByJTI(ctx, jti)
		if err != nil {
			return err
		}

		if record.Revoked {
			s.recordSecuritySignal(ctx, models.AuditTokenReplayDetected, record.UserID, jti, arg)
			return fmt.Errorf("replayed token: %w", apperrors.ErrTokenRevoked)
		}

		// The claims verified, but the stored hash of the full token string
		// must match too. A difference means reconstructed token material.
		if record.TokenHash != tokencodec.Hash(arg.Token) {
			s.recordSecuritySignal(ctx, models.AuditTokenMismatchDetected, record.UserID, jti, arg)
			return apperrors.ErrTokenMismatch
		}

		// The account may have been disabled after the token was issued
		user, err := store.User().GetUserByID(ctx, record.UserID)
		if err != nil {
			return err
		}
		if err := checkStatusGate(user); err != nil {
			return apperrors.ErrAccountDisabled
		}

		// The critical section: only one concurrent rotation wins this update
		if _, err := store.Refresh().GetAndRevoke(ctx, jti, time.Now()); err != nil {
			return err
		}

		newPair, newRecord, err := s.issuePair(user)
		if err != nil {
			return err
		}
		newRecord.IPAddress = arg.IP
		newRecord.UserAgent = arg.UserAgent

		if _, err := store.Refresh().Create(ctx, newRecord); err != nil {
			return err
		}
		if err := store.Refresh().LinkRotation(ctx, jti, newRecord.JTI); err != nil {
			return err
		}

		pair = newPair
		return nil
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout revokes the presented refresh token. Idempotent by design: a token
// that is unknown or already revoked is already "logged out", so only a
// malformed token is an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.codec.VerifyRefresh(token)
	if err != nil {
		return err
	}

	return s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := store.Refresh().Revoke(ctx, claims.ID, time.Now()); err != nil {
			return err
		}

		err := store.User().SetLastLogout(ctx, claims.UserID, time.Now())
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		return nil
	})
}

// LogoutAll revokes every outstanding refresh record of the user in one bulk
// operation. Used after suspected compromise or password change.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.storage.InTx(ctx, func(store repository.Storage) error {
		revoked, err := store.Refresh().RevokeAllForUser(ctx, userID, time.Now())
		if err != nil {
			return err
		}

		if err := store.User().SetLastLogout(ctx, userID, time.Now()); err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &userID,
			Action:      models.AuditSessionsRevoked,
			EntityType:  "user",
			EntityID:    &userID,
			Metadata:    map[string]any{"revoked_count": revoked},
		})
	})
}

func (s *AuthService) resolveUser(ctx context.Context, username string, email string) (models.User, error) {
	if username != "" {
		return s.storage.User().GetUserByUsername(ctx, username)
	}
	return s.storage.User().GetUserByEmail(ctx, email)
}

// issuePair mints an access and refresh token and builds the refresh record
// the caller has to persist
func (s *AuthService) issuePair(user models.User) (models.TokenPair, models.RefreshToken, error) {
	access, accessExpiresAt, err := s.codec.IssueAccess(user.ID, user.IsAdmin)
	if err != nil {
		return models.TokenPair{}, models.RefreshToken{}, err
	}

	refresh, jti, refreshExpiresAt, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return models.TokenPair{}, models.RefreshToken{}, err
	}

	pair := models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}
	record := models.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		TokenHash: tokencodec.Hash(refresh),
		IssuedAt:  time.Now().Truncate(time.Second),
		ExpiresAt: refreshExpiresAt,
	}

	return pair, record, nil
}

// recordSecuritySignal writes the audit row outside the failing transaction
// so the signal survives the rollback. Failures are logged, never returned:
// an audit hiccup must not mask the original auth error.
func (s *AuthService) recordSecuritySignal(ctx context.Context, action string, userID int64, jti string, arg RefreshParams) {
	err := s.storage.Audit().Record(ctx, models.AuditEntry{
		ActorUserID: &userID,
		Action:      action,
		EntityType:  "refresh_token",
		Metadata:    map[string]any{"jti": jti},
		IPAddress:   arg.IP,
		UserAgent:   arg.UserAgent,
	})
	if err != nil {
		s.logger.Error("can't record security signal", "action", action, "error", err.Error())
	}

	s.logger.Warn("refresh token misuse detected", "action", action, "user_id", userID)
}

// checkStatusGate enforces the account status invariant: tokens are issued
// only when status is ACTIVE and is_active is set
func checkStatusGate(user models.User) error {
	if user.Status == models.UserStatusPending {
		return apperrors.ErrPendingApproval
	}
	if !user.CanAuthenticate() {
		return apperrors.ErrAccountDisabled
	}
	return nil
}
