package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/visiontf/authcore/internal/audit"
	"github.com/visiontf/authcore/internal/auth"
	"github.com/visiontf/authcore/internal/config"
	"github.com/visiontf/authcore/internal/handlers/api"
	"github.com/visiontf/authcore/internal/mail"
	"github.com/visiontf/authcore/internal/security"
	"github.com/visiontf/authcore/internal/sessions"
	"github.com/visiontf/authcore/internal/store"
	"github.com/visiontf/authcore/internal/twofactor"
	"github.com/visiontf/authcore/internal/users"
	"github.com/visiontf/authcore/model"
	"github.com/visiontf/authcore/params"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "authcore - session and login risk scoring service"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(model.Models...); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:      redisCfg.URL,
		PoolSize: redisCfg.PoolSize,
	})
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		log.Fatal("Missing mail sender backend")
	}
	if mailCfg.Backend == "smtp" {
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, mailCfg.From)
		if err != nil {
			log.Fatalf("Failed to initialize SMTP mail sender: %v", err)
		}
		return sender
	}
	log.Fatalf("Unsupported mail sender backend %s", mailCfg.Backend)
	return nil
}

func setupAPIRoutes(
	router fiber.Router,
	rateLimitStorage fiber.Storage,
	issuer *auth.TokenIssuer,
	sessionService *sessions.SessionService,
	authService *auth.AuthService,
	recorder *security.Recorder,
	trail audit.EventRepository) {

	// handlers
	var (
		authHandler     = api.NewAuthHandler(authService)
		accountHandler  = api.NewAccountHandler(authService)
		securityHandler = api.NewSecurityHandler(recorder)
		adminHandler    = api.NewAdminHandler(authService, trail)
	)

	requireAuth := api.RequireAuth(issuer, sessionService)
	requireAdmin := api.RequireAdmin()

	// unauthenticated flows, rate limited per source IP
	authGroup := router.Group("/auth", limiter.New(limiter.Config{
		Max:        params.AuthRateLimitMax,
		Expiration: params.AuthRateLimitWindow,
		Storage:    rateLimitStorage,
	}))
	authGroup.Post("/signup", authHandler.PostSignup)
	authGroup.Get("/verify-email", authHandler.GetVerifyEmail)
	authGroup.Post("/login", authHandler.PostLogin)
	authGroup.Post("/2fa/challenge", authHandler.PostTwoFactorChallenge)
	authGroup.Post("/refresh", authHandler.PostRefresh)
	authGroup.Post("/forgot-password", authHandler.PostForgotPassword)
	authGroup.Post("/reset-password", authHandler.PostResetPassword)

	router.Post("/auth/logout", requireAuth, authHandler.PostLogout)

	accountGroup := router.Group("/account", requireAuth)
	accountGroup.Get("/sessions", accountHandler.GetSessions)
	accountGroup.Delete("/sessions/:token", accountHandler.DeleteSession)
	accountGroup.Get("/login-patterns", accountHandler.GetLoginPatterns)
	accountGroup.Post("/2fa/setup", accountHandler.PostTwoFactorSetup)
	accountGroup.Post("/2fa/enable", accountHandler.PostTwoFactorEnable)
	accountGroup.Post("/2fa/disable", accountHandler.PostTwoFactorDisable)
	accountGroup.Post("/deactivate", accountHandler.PostDeactivate)

	adminGroup := router.Group("/admin", requireAuth, requireAdmin)
	adminGroup.Get("/activities", securityHandler.GetActivities)
	adminGroup.Get("/activities/stats", securityHandler.GetActivityStats)
	adminGroup.Post("/activities/:id/status", securityHandler.PostActivityStatus)
	adminGroup.Post("/users/:id/deactivate", adminHandler.PostDeactivateUser)
	adminGroup.Get("/audit", adminHandler.GetAuditEvents)
}

// sweepSessions flips expired sessions inactive on a fixed cadence.
func sweepSessions(ctx context.Context, sessionService *sessions.SessionService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := sessionService.SweepExpired(ctx)
			if err != nil {
				slog.Error("Session sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				slog.Info("Swept expired sessions", "count", swept)
			}
		}
	}
}

// sweepPasswordSpray runs the spray detector on a fixed cadence, guarded by
// a redis lock so only one process instance sweeps at a time.
func sweepPasswordSpray(ctx context.Context, detector *security.AttackDetector, lock *store.Lock, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			acquired, err := lock.TryAcquire(ctx, params.PasswordSprayLockMaxAge)
			if err != nil {
				slog.Error("Password spray lock acquisition failed", "error", err)
				continue
			}
			if !acquired {
				continue
			}
			attacks, err := detector.DetectPasswordSpray(ctx)
			if err != nil {
				slog.Error("Password spray detection failed", "error", err)
			} else if len(attacks) > 0 {
				slog.Warn("Password spray attacks detected", "count", len(attacks))
			}
			if err := lock.Release(ctx); err != nil {
				slog.Error("Password spray lock release failed", "error", err)
			}
		}
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := config.LoadConfig(cliCtx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || cliCtx.IsSet(debugFlag.Name))

	db := mustInitDatabase(cfg.MySQL)
	redisStorage := mustInitRedisStorage(cfg.Redis)
	rdb := redisStorage.Conn()
	mailSender := mustInitMailSender(cfg.Mail)

	// repositories
	var (
		userRepo     = users.NewUserRepository(db)
		sessionRepo  = sessions.NewSessionRepository(db)
		refreshRepo  = auth.NewRefreshTokenRepository(db)
		patternRepo  = security.NewPatternRepository(db)
		activityRepo = security.NewActivityRepository(db)
		eventRepo    = audit.NewEventRepository(db)
	)

	// services
	var (
		auditLog       = audit.NewLogger(eventRepo)
		sessionService = sessions.NewSessionService(sessionRepo)
		patterns       = security.NewPatternTracker(patternRepo)
		assessor       = security.NewRiskAssessor(patterns, eventRepo, sessionService)
		recorder       = security.NewRecorder(activityRepo, auditLog)
		detector       = security.NewAttackDetector(eventRepo, recorder)
		verifier       = twofactor.NewVerifier(cfg.SiteName)
		issuer         = auth.NewTokenIssuer(cfg.Token.Issuer, cfg.Token.SigningKey, cfg.Token.AccessMaxAge)
		authService    = auth.NewAuthService(userRepo, sessionService, refreshRepo, verifier,
			assessor, recorder, detector, patterns, auditLog, issuer, mailSender, cfg.BaseURL)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  api.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(router, redisStorage, issuer, sessionService, authService, recorder, eventRepo)

	ctx, stop := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sprayLock := store.NewLock(rdb, params.PasswordSprayLockKey)
	go sweepSessions(ctx, sessionService, cfg.Maintenance.SessionSweepInterval)
	go sweepPasswordSpray(ctx, detector, sprayLock, cfg.Maintenance.PasswordSprayInterval)
	go startHealthCheckServer(params.HealthCheckServerAddr, rdb, db)

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down")
		if err := router.Shutdown(); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("authcore started", "version", params.Version(), "listenAddr", cfg.ListenAddr)
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
