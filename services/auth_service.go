package services

import (
	"context"
	"errors"

	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
	"github.com/upb/portfolio-backend/services/ratelimit"
	"github.com/upb/portfolio-backend/tokens"
	"go.uber.org/zap"
)

// TokenIssuer mints and rotates session tokens
type TokenIssuer interface {
	Issue(subject tokens.Subject) (*tokens.TokenPair, error)
	Rotate(refreshToken string) (*tokens.AccessToken, error)
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries credentials and the client address used for throttling
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// AuthService handles registration, login and token refresh
type AuthService struct {
	users   repositories.UserRepository
	txMgr   repositories.TransactionManager
	hasher  PasswordHasher
	tokens  TokenIssuer
	limiter ratelimit.LoginLimiter
	logger  *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	hasher PasswordHasher,
	issuer TokenIssuer,
	limiter ratelimit.LoginLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		txMgr:   txMgr,
		hasher:  hasher,
		tokens:  issuer,
		limiter: limiter,
		logger:  logger,
	}
}

// Register creates a new account. The email must not be in use.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, wrap(ErrInternal, err)
	}
	user, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.User, error) {
		user := models.NewUser(in.Name, in.Email, hash)
		exists, err := s.users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return nil, wrap(ErrInternal, err)
		}
		if exists {
			return nil, ErrDuplicateEmail
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return nil, ErrDuplicateEmail
			}
			return nil, wrap(ErrInternal, err)
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	observability.Audit(s.logger, "user_registered", user.ID.String(), "user")
	return user, nil
}

// Login checks credentials and issues a token pair. Failed attempts are
// counted per email and client IP and reset on success.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*tokens.TokenPair, error) {
	key := ratelimit.LoginKey(in.Email, in.ClientIP)

	if err := s.limiter.Check(ctx, key); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			observability.Security(s.logger, "login throttled",
				zap.String("ip", in.ClientIP))
			return nil, ErrTooManyAttempts
		}
		s.logger.Error("login limiter check failed", zap.Error(err))
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordFailure(ctx, key, in.ClientIP, "unknown email")
			return nil, ErrUserNotFound
		}
		return nil, wrap(ErrInternal, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.recordFailure(ctx, key, in.ClientIP, "wrong password")
			return nil, ErrInvalidPassword
		}
		return nil, wrap(ErrInternal, err)
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Error("login limiter reset failed", zap.Error(err))
	}

	pair, err := s.tokens.Issue(tokens.Subject{ID: user.ID.String()})
	if err != nil {
		return nil, wrap(ErrInternal, err)
	}

	observability.Audit(s.logger, "login", user.ID.String(), "session")
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.AccessToken, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshKey
	}

	access, err := s.tokens.Rotate(refreshToken)
	if err != nil {
		switch tokens.KindOf(err) {
		case tokens.KindExpired:
			return nil, wrap(ErrTokenExpired, err)
		case tokens.KindConfiguration, tokens.KindUnknown:
			return nil, wrap(ErrInternal, err)
		default:
			observability.Security(s.logger, "refresh token rejected",
				zap.String("reason", tokens.KindOf(err).String()))
			return nil, wrap(ErrInvalidToken, err)
		}
	}

	return access, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key, ip, reason string) {
	observability.Security(s.logger, "login failed",
		zap.String("reason", reason),
		zap.String("ip", ip))

	err := s.limiter.RecordFailure(ctx, key)
	if err != nil && !errors.Is(err, ratelimit.ErrRateLimited) {
		s.logger.Error("login limiter update failed", zap.Error(err))
	}
}
