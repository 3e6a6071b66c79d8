package http

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"board-service/internal/auth"
	"board-service/internal/config"
	"board-service/internal/domain/user"
	"board-service/internal/http/handler"
	"board-service/internal/http/middleware"
	"board-service/internal/rbac"
	"board-service/pkg/metrics"
	"board-service/pkg/profiling"
)

// Allowance above one full upload chunk.
const requestBodyOverhead = 64 << 10

// AuditStore records and queries audit events.
type AuditStore interface {
	handler.AuditRecorder
	handler.AuditQuerier
}

type ServerDependencies struct {
	Config         *config.Config
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Checker        *rbac.Checker
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	Users          handler.UserStore
	Posts          handler.PostStore
	Files          handler.FileStore
	Storage        handler.ObjectStorage
	Audit          AuditStore
	HealthChecks   map[string]handler.Pinger
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	cfg := deps.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// Request ID first so every later log line carries it.
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestInfo())
	e.Use(deps.Metrics.Middleware())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(strconv.FormatInt(cfg.Upload.ChunkSize+requestBodyOverhead, 10)))
	e.Use(deps.AuthMiddleware.Authenticate())

	pages := handler.Pagination{DefaultSize: cfg.App.PageSize, MaxSize: cfg.App.MaxPageSize}

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.Users, deps.Checker, deps.Audit, pages)
	postHandler := handler.NewPostHandler(deps.Posts, deps.Checker, deps.Audit, pages)
	fileHandler := handler.NewFileHandler(deps.Files, deps.Storage, deps.Checker, handler.UploadLimits{
		ChunkSize:   cfg.Upload.ChunkSize,
		MaxFileSize: cfg.Upload.MaxFileSize,
		URLExpiry:   cfg.Upload.PresignedURLExpiry,
	}, pages, deps.Metrics, deps.Audit, deps.Logger)
	auditHandler := handler.NewAuditHandler(deps.Audit, deps.Checker)
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)

	authn := deps.AuthMiddleware.RequireAuthenticated()
	manager := deps.AuthMiddleware.RequireRole(user.RoleManager)
	admin := deps.AuthMiddleware.RequireRole(user.RoleAdmin)

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	if cfg.Observability.EnablePprof {
		profiling.RegisterPprofRoutes(e.Group("/debug/pprof", admin))
	}

	api := e.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout, authn)
	authRoutes.GET("/me", authHandler.Me, authn)
	authRoutes.GET("/validate", authHandler.Validate, authn)

	users := api.Group("/users", authn)
	users.GET("", userHandler.List, manager)
	users.PUT("/me", userHandler.UpdateMe)
	users.PUT("/me/password", authHandler.ChangePassword)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id/role", userHandler.UpdateRole, admin)
	users.DELETE("/:id", userHandler.Delete, admin)

	api.GET("/posts/published", postHandler.ListPublished)
	posts := api.Group("/posts", authn)
	posts.GET("", postHandler.List)
	posts.GET("/me", postHandler.Mine)
	posts.POST("", postHandler.Create)
	posts.GET("/:id", postHandler.Get)
	posts.PUT("/:id", postHandler.Update)
	posts.DELETE("/:id", postHandler.Delete)

	files := api.Group("/files", authn)
	files.GET("/me", fileHandler.Mine)
	files.POST("/uploads", fileHandler.InitiateUpload)
	files.PUT("/uploads/:id/parts/:part", fileHandler.UploadPart)
	files.POST("/uploads/:id/complete", fileHandler.Complete)
	files.DELETE("/uploads/:id", fileHandler.Abort)
	files.GET("/:id/download", fileHandler.Download)

	api.GET("/audit/events", auditHandler.Query, admin)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
