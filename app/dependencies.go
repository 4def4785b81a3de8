package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/config"
	"github.com/upb/portfolio-backend/middleware"
	"github.com/upb/portfolio-backend/repositories"
	"github.com/upb/portfolio-backend/repositories/postgres"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/services/ratelimit"
	"github.com/upb/portfolio-backend/tokens"
	"go.uber.org/zap"
)

const redisPingTimeout = 3 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Redis  *redis.Client
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Messages  repositories.MessageRepository
	TxManager repositories.TransactionManager

	// Auth
	Tokens         *tokens.Service
	Hasher         *auth.Hasher
	Cookies        *auth.CookieManager
	LoginLimiter   ratelimit.LoginLimiter
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	AuthService    *services.AuthService
	AccountService *services.AccountService
	MessageService *services.MessageService
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires everything on top of an existing
// repository factory.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()

	if err := deps.initLimiter(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize login limiter: %w", err)
	}

	deps.initAuth(cfg)
	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Messages = repos.Messages
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initLimiter uses Redis when REDIS_ADDR is set and an in-process counter
// otherwise.
func (d *Dependencies) initLimiter(ctx context.Context, cfg *config.Config) error {
	limits := ratelimit.Config{
		MaxAttempts: cfg.LoginThrottle.MaxAttempts,
		Window:      cfg.LoginThrottle.Window,
	}

	if cfg.Redis.Addr == "" {
		d.Logger.Warn("redis not configured, login throttle is per process")
		d.LoginLimiter = ratelimit.NewMemoryLimiter(limits)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	d.Redis = client
	d.LoginLimiter = ratelimit.NewRedisLimiter(client, limits)
	d.Logger.Info("redis login throttle enabled", zap.String("addr", cfg.Redis.Addr))
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Tokens = tokens.NewService(tokens.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
	})
	d.Hasher = auth.NewHasher(auth.DefaultPasswordCost)
	d.Cookies = auth.NewCookieManager(auth.NewCookieOptions(cfg.IsProduction(), cfg.Cookie.Domain))
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, middleware.AuthConfig{
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, d.Logger)
}

func (d *Dependencies) initServices() {
	d.AuthService = services.NewAuthService(d.Users, d.TxManager, d.Hasher, d.Tokens, d.LoginLimiter, d.Logger)
	d.AccountService = services.NewAccountService(d.Users, d.Hasher, d.Logger)
	d.MessageService = services.NewMessageService(d.Messages, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
