package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/config"
	"board-service/internal/http"
	"board-service/internal/http/handler"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	"board-service/internal/repository/postgres"
	"board-service/internal/storage/s3"
	"board-service/internal/token"
	"board-service/pkg/logger"
	"board-service/pkg/metrics"
	"board-service/pkg/password"
)

const (
	envFilePath      = ".env"
	serverAddrPrefix = ":"
	signalBufferSize = 1
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	envErr := godotenv.Load(envFilePath)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	slog.SetDefault(log)
	if envErr != nil {
		log.Info(".env file not found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connection established")

	storage, err := s3.NewClient(&cfg.AWS, cfg.Upload.PresignedURLExpiry)
	if err != nil {
		return err
	}
	log.Info("s3 client initialized", slog.String("bucket", storage.Bucket()))

	codec, err := token.NewCodec(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, token.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return err
	}
	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	checker, err := rbac.New(presets.Board())
	if err != nil {
		return err
	}

	m := metrics.New()
	auditLogger := audit.NewLogger(db.SQL, log)

	userRepo := postgres.NewUserRepository(db.SQL)
	postRepo := postgres.NewPostRepository(db.SQL)
	fileRepo := postgres.NewFileRepository(db.SQL)

	authService := auth.NewService(userRepo, codec, hasher, auditLogger, m, log)
	authMiddleware := auth.NewMiddleware(token.NewValidator(codec), auth.NewResolver(userRepo), checker, m, log)

	server := http.NewServer(&http.ServerDependencies{
		Config:         cfg,
		Logger:         log,
		Metrics:        m,
		Checker:        checker,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		Users:          userRepo,
		Posts:          postRepo,
		Files:          fileRepo,
		Storage:        storage,
		Audit:          auditLogger,
		HealthChecks: map[string]handler.Pinger{
			"database": db,
			"storage":  storage,
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", slog.String("port", cfg.Server.Port))
		if err := server.Start(serverAddrPrefix + cfg.Server.Port); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	if err := auditLogger.Close(ctx); err != nil {
		log.Warn("audit writes still pending at shutdown", slog.String("error", err.Error()))
	}
	log.Info("server exited gracefully")
	return nil
}
