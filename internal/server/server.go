// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "namethatobject/docs" // swagger docs
	"namethatobject/internal/cache"
	"namethatobject/internal/config"
	"namethatobject/internal/database"
	"namethatobject/internal/middleware"
	"namethatobject/internal/models"
	"namethatobject/internal/observability"
	"namethatobject/internal/repository"
	"namethatobject/internal/service"
	"namethatobject/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          *repository.Store
	media          storage.Store
	blacklist      *cache.TokenBlacklist
	postService    *service.PostService
	commentService *service.CommentService
	voteService    *service.VoteService
	accountService *service.AccountService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis only backs token revocation; the API runs without it.
	cache.InitRedis(cfg.RedisURL)

	media, err := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, int64(cfg.MaxUploadBytes()))
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), media)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables token revocation.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, media storage.Store) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}
	store := repository.NewStore(db)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		store:          store,
		media:          media,
		blacklist:      cache.NewTokenBlacklist(redisClient),
		postService:    service.NewPostService(store.Repos, store, media),
		commentService: service.NewCommentService(store.Repos, store),
		voteService:    service.NewVoteService(store),
		accountService: service.NewAccountService(store.Repos, store, media),
	}, nil
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "NameThatObject API",
		BodyLimit:    s.config.MaxRequestBytes(),
		ReadTimeout:  s.config.ReadTimeout(),
		WriteTimeout: s.config.WriteTimeout(),
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler turns errors that escaped a handler into the JSON error envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Request span; sets the trace id read by ContextMiddleware
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded media
	if s.config.MediaDir != "" {
		app.Static("/media", s.config.MediaDir, fiber.Static{MaxAge: 3600})
	}

	auth := s.AuthRequired()

	// Accounts
	app.Post("/signup", s.Signup)
	app.Post("/api-token-auth", s.Login)
	app.Post("/logout", auth, s.Logout)

	// Posts
	posts := app.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", auth, s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)
	posts.Post("/:id/upvote", auth, s.vote(models.VotePost, models.VoteUp))
	posts.Post("/:id/downvote", auth, s.vote(models.VotePost, models.VoteDown))

	// Comments
	comments := app.Group("/comments")
	comments.Get("/", s.ListComments)
	comments.Post("/", auth, s.CreateComment)
	comments.Get("/:id", s.GetComment)
	comments.Delete("/:id", auth, s.DeleteComment)
	comments.Post("/:id/upvote", auth, s.vote(models.VoteComment, models.VoteUp))
	comments.Post("/:id/downvote", auth, s.vote(models.VoteComment, models.VoteDown))

	// Profiles
	user := app.Group("/user")
	user.Get("/profile", auth, s.GetMyProfile)
	user.Patch("/profile", auth, s.UpdateProfile)
	user.Get("/profile/:username", s.GetProfile)
	user.Delete("/delete-account", auth, s.DeleteAccount)
}

// AuthRequired returns the bearer-token middleware bound to this server's
// secret and revocation list.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.config.JWTSecret, s.blacklist)
}

// LivenessCheck handles liveness check requests
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests. Redis is optional, so an
// unreachable Redis degrades the report without failing it.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
