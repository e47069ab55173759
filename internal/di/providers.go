package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/app"
	"github.com/gks77/user-account-service/internal/config"
	"github.com/gks77/user-account-service/internal/database"
	"github.com/gks77/user-account-service/internal/http/handler"
	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/router"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/security"
	"github.com/gks77/user-account-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var RuntimeInfraSet = wire.NewSet(provideAppDB, provideRedisClient)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewUserTypeRepository,
	repository.NewSessionRepository,
	repository.NewAddressRepository,
	repository.NewProfileRepository,
)

var SecuritySet = wire.NewSet(provideCookieManager)

var ServiceSet = wire.NewSet(
	provideSessionService,
	provideStorageService,
	service.NewUserService,
	service.NewAddressService,
	service.NewProfileService,
	service.NewUserTypeService,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewSessionHandler,
	handler.NewAddressHandler,
	handler.NewProfileHandler,
	handler.NewUserTypeHandler,
	middleware.NewSessionAuth,
	provideLimiter,
	provideBypassEvaluator,
	provideReadiness,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

// provideAppDB opens the database and brings the schema and seed data up to
// date before the server starts taking traffic.
func provideAppDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if _, err := database.SeedSync(db, bootstrapSuperuser(cfg)); err != nil {
		return nil, err
	}
	return db, nil
}

func bootstrapSuperuser(cfg *config.Config) database.SuperuserSeed {
	return database.SuperuserSeed{
		Email:    cfg.BootstrapSuperuserEmail,
		Username: cfg.BootstrapSuperuserUsername,
		Password: cfg.BootstrapSuperuserPassword,
	}
}

func provideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideSessionService(sessions repository.SessionRepository, users repository.UserRepository, cfg *config.Config, logger *slog.Logger) service.SessionService {
	return service.NewSessionService(sessions, users, cfg.TokenPepper, cfg.SessionTTL, cfg.MaxSessionsPerUser, logger)
}

func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	return service.NewMinIOStorageService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
}

// provideLimiter prefers the Redis fixed-window limiter so rate limits hold
// across replicas; without Redis each instance counts on its own.
func provideLimiter(client redis.UniversalClient) middleware.Limiter {
	if client == nil {
		return middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRedisFixedWindowLimiter(client, "ratelimit")
}

func provideBypassEvaluator(cfg *config.Config) middleware.BypassEvaluator {
	return middleware.NewRequestBypassEvaluator(middleware.RequestBypassConfig{
		EnableInternalProbeBypass: true,
		EnableTrustedActorBypass:  len(cfg.TrustedProxyCIDRs) > 0,
		TrustedActorCIDRs:         cfg.TrustedProxyCIDRs,
	})
}

func provideReadiness(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

func provideRouterDependencies(
	auth *handler.AuthHandler,
	users *handler.UserHandler,
	sessions *handler.SessionHandler,
	addresses *handler.AddressHandler,
	profiles *handler.ProfileHandler,
	userTypes *handler.UserTypeHandler,
	sessionAuth *middleware.SessionAuth,
	limiter middleware.Limiter,
	bypass middleware.BypassEvaluator,
	readiness http.HandlerFunc,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		Auth:             auth,
		Users:            users,
		Sessions:         sessions,
		Addresses:        addresses,
		Profiles:         profiles,
		UserTypes:        userTypes,
		SessionAuth:      sessionAuth,
		Limiter:          limiter,
		Bypass:           bypass,
		TokenPepper:      cfg.TokenPepper,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		Readiness:        readiness,
	}
}

func provideHTTPServer(cfg *config.Config, r chi.Router) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// MigrationRunner applies schema and seed changes without starting the
// HTTP server. Used by the migrate subcommand.
type MigrationRunner struct {
	db    *gorm.DB
	super database.SuperuserSeed
}

func NewMigrationRunner(db *gorm.DB, cfg *config.Config) *MigrationRunner {
	return &MigrationRunner{db: db, super: bootstrapSuperuser(cfg)}
}

func (m *MigrationRunner) Run() (*database.SeedReport, error) {
	if err := database.Migrate(m.db); err != nil {
		return nil, err
	}
	return database.SeedSync(m.db, m.super)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}
