package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/config"
	"github.com/baechuer/account-service/internal/domain"
	"github.com/baechuer/account-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/account-service/internal/infrastructure/mail"
	"github.com/baechuer/account-service/internal/infrastructure/memory"
	"github.com/baechuer/account-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/account-service/internal/infrastructure/redis"
	"github.com/baechuer/account-service/internal/infrastructure/security"
	"github.com/baechuer/account-service/internal/infrastructure/storage"
	"github.com/baechuer/account-service/internal/logger"
	http_handlers "github.com/baechuer/account-service/internal/transport/http/handlers"
	"github.com/baechuer/account-service/internal/transport/http/middleware"
	"github.com/baechuer/account-service/internal/transport/http/response"
	"github.com/baechuer/account-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

// App is the assembled service: the HTTP server plus the account service,
// whose in-flight emails are drained by cleanup.
type App struct {
	Server  *http.Server
	Service *account.Service
}

func NewServer() (*App, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*App, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	// NewMailer returns the mail transport and its close func.
	NewMailer func(cfg *config.Config) (account.Mailer, func(), error)

	// NewAvatarStore may return (nil, nil) when uploads are disabled.
	NewAvatarStore func(ctx context.Context, cfg *config.Config) (account.AvatarStore, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*App, func(), error) {
	ctx := context.Background()

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*App, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) credential store
	var (
		repo    account.AccountRepo
		dbCheck http_handlers.Pinger
	)
	if cfg.UseMemoryStore() {
		logger.Logger.Warn().Msg("using in-memory account store; data is lost on restart")
		repo = memory.NewAccountRepo()
	} else {
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(fmt.Errorf("db: %w", err))
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if err := deps.Migrate(ctx, db); err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		pg := postgres.NewAccountRepo(db)
		repo, dbCheck = pg, pg
	}

	// 2) redis (best-effort; rate limiting fails open without it)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(ctx); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 3) mail transport
	mailer, closeMailer, err := deps.NewMailer(cfg)
	if err != nil {
		if !cfg.IsDev() {
			return fail(fmt.Errorf("mailer: %w", err))
		}
		logger.Logger.Warn().Err(err).Str("transport", cfg.MailTransport).Msg("mailer unavailable; logging emails instead")
		mailer, closeMailer = mail.NewLogMailer(logger.Logger), func() {}
	}
	cleanupFns = append(cleanupFns, closeMailer)

	// 4) avatar storage (optional)
	var avatars account.AvatarStore
	if deps.NewAvatarStore != nil {
		avatars, err = deps.NewAvatarStore(ctx, cfg)
		if err != nil {
			return fail(fmt.Errorf("avatar store: %w", err))
		}
	}
	if avatars == nil {
		logger.Logger.Info().Msg("avatar storage not configured; uploads will fail")
	}

	// 5) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 6) service
	svc := account.NewService(
		repo,
		hasher,
		security.NewSecrets(),
		signer,
		mailer,
		avatars,
		account.Config{
			SessionTTL:          cfg.SessionTTL,
			TokenTTL:            cfg.TokenTTL,
			VerificationCodeTTL: cfg.VerifyCodeTTL,
			Lockout: domain.LockoutPolicy{
				MaxAttempts:  cfg.LockoutMax,
				LockDuration: cfg.LockoutTime,
			},
			FrontendBaseURL: cfg.FrontendBaseURL,
			MailSendTimeout: cfg.MailSendTimeout,
		},
	).WithAudit(func(action string, fields map[string]string) {
		evt := logger.Logger.Info().
			Bool("audit", true).
			Str("action", action)
		for k, v := range fields {
			evt = evt.Str(k, v)
		}
		evt.Msg("audit")
	})
	// pending registration emails go out before the mailer closes
	cleanupFns = append(cleanupFns, svc.Wait)

	// seed (dev only)
	if cfg.IsDev() && cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		created, err := svc.SeedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("admin seed failed")
		} else if created {
			logger.Logger.Info().Str("email", cfg.SeedAdminEmail).Msg("seeded admin account")
		}
	}

	// 7) handlers + middleware
	accountH := http_handlers.NewAccountHandler(svc)

	checks := map[string]http_handlers.Pinger{}
	if dbCheck != nil {
		checks["postgres"] = dbCheck
	}
	if redisCli != nil {
		checks["redis"] = redisCli
	}
	healthH := http_handlers.NewHealthHandler(checks)

	var limiter middleware.RateLimiter
	if redisCli != nil {
		limiter = redis.NewFixedWindowLimiter(redisCli, "rl:")
	}
	rl := func(scope string, limit int, window time.Duration) router.Mw {
		if limiter == nil {
			return nil
		}
		return middleware.RateLimit(limiter, middleware.FixedWindowConfig{
			Scope:  scope,
			Limit:  limit,
			Window: window,
		}, response.WriteError)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:  healthH,
		Account: accountH,
		AuthMW:  middleware.Auth(svc, response.WriteError),

		CORS:      middleware.CORS(cfg.CORSOrigins),
		BodyLimit: middleware.BodyLimit(cfg.MaxBodyBytes, response.WriteError),
		GlobalRL:  rl("api", cfg.RLGlobalLimit, cfg.RLGlobalWindow),
		AuthRL:    rl("auth", cfg.RLAuthLimit, cfg.RLAuthWindow),
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return &App{Server: srv, Service: svc}, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewMailer:  newMailer,
		NewAvatarStore: func(ctx context.Context, cfg *config.Config) (account.AvatarStore, error) {
			if cfg.S3Bucket == "" {
				return nil, nil
			}
			store, err := storage.NewS3AvatarStore(ctx, storage.S3Options{
				Endpoint:        cfg.S3Endpoint,
				Region:          cfg.S3Region,
				AccessKeyID:     cfg.S3AccessKeyID,
				SecretAccessKey: cfg.S3SecretAccessKey,
				Bucket:          cfg.S3Bucket,
				UsePathStyle:    cfg.S3UsePathStyle,
				CDNBaseURL:      cfg.CDNBaseURL,
			}, logger.Logger)
			if err != nil {
				return nil, err
			}
			if err := store.EnsureBucket(ctx); err != nil {
				logger.Logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("avatar bucket check failed")
			}
			return store, nil
		},
		NewRouter: router.New,
	}
}

func newMailer(cfg *config.Config) (account.Mailer, func(), error) {
	switch cfg.MailTransport {
	case config.MailTransportSMTP:
		m, err := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.MailFromName)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	case config.MailTransportRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, nil, domain.ErrRabbitUnavailable(err)
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return mail.NewLogMailer(logger.Logger), func() {}, nil
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
