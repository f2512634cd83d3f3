package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/ai-course-generator/app/cache"
	"github.com/FACorreiaa/ai-course-generator/config"
	"github.com/FACorreiaa/ai-course-generator/internal/api/admin"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/api/banktransfer"
	"github.com/FACorreiaa/ai-course-generator/internal/api/course"
	"github.com/FACorreiaa/ai-course-generator/internal/api/exam"
	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	generativeAI "github.com/FACorreiaa/ai-course-generator/internal/api/generative_ai"
	"github.com/FACorreiaa/ai-course-generator/internal/api/health"
	"github.com/FACorreiaa/ai-course-generator/internal/api/media"
	"github.com/FACorreiaa/ai-course-generator/internal/api/notes"
	"github.com/FACorreiaa/ai-course-generator/internal/api/plan"
	"github.com/FACorreiaa/ai-course-generator/internal/api/subscription"
	"github.com/FACorreiaa/ai-course-generator/internal/router"
)

const lockPrefix = "coursegen:subtopic:"

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	SubscriptionService subscription.Service

	AuthHandler         *auth.HandlerImpl
	PlanHandler         *plan.HandlerImpl
	GenerationHandler   *generation.HandlerImpl
	CourseHandler       *course.HandlerImpl
	ExamHandler         *exam.HandlerImpl
	NotesHandler        *notes.HandlerImpl
	SubscriptionHandler *subscription.HandlerImpl
	BankTransferHandler *banktransfer.HandlerImpl
	AdminHandler        *admin.HandlerImpl
	HealthHandler       *health.HandlerImpl
	RateLimiter         *generation.RateLimiter
}

// NewContainer wires repositories, services and handlers on top of an open pool and Redis client.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger) (*Container, error) {
	gen := cfg.Generation

	// External providers
	aiClient, err := generativeAI.NewAIClient(ctx, gen.GeminiAPIKey, gen.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	images, err := media.NewImageSearch(ctx, gen.SearchAPIKey, gen.SearchEngineID, logger)
	if err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}
	videos, err := media.NewVideoSearch(ctx, gen.YoutubeAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}
	provider := &generation.Adapter{
		AI:          aiClient,
		Images:      images,
		Videos:      videos,
		Transcripts: media.NewTranscripts(nil, "", gen.TranscriptLanguage, logger),
		Timeout:     gen.ProviderTimeout,
	}

	// Auth
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg.JWT, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	// Plans
	planRepo := plan.NewRepository(pool, logger)
	planService := plan.NewServiceImpl(planRepo, logger)
	planHandler := plan.NewHandlerImpl(planService, logger)

	// Generation
	generationService := generation.NewServiceImpl(provider, provider, planService, logger)
	generationHandler := generation.NewHandlerImpl(generationService, logger)
	pipeline := generation.NewPipeline(provider, logger)

	// Courses
	courseRepo := course.NewRepository(pool, logger)
	locker := cache.NewLocker(rdb, lockPrefix)
	courseService := course.NewServiceImpl(courseRepo, planService, pipeline, provider, locker, gen.LockTTL, logger)
	courseHandler := course.NewHandlerImpl(courseService, logger)

	// Exams and notes
	examRepo := exam.NewRepository(pool, logger)
	examService := exam.NewServiceImpl(examRepo, courseRepo, provider, logger)
	examHandler := exam.NewHandlerImpl(examService, logger)
	notesHandler := notes.NewHandlerImpl(notes.NewRepository(pool, logger), courseRepo, logger)

	// Subscriptions
	subscriptionRepo := subscription.NewRepository(pool, logger)
	subscriptionService := subscription.NewServiceImpl(subscriptionRepo, planService, logger)
	subscriptionHandler := subscription.NewHandlerImpl(subscriptionService, logger)

	// Bank transfers
	receipts, err := banktransfer.NewReceiptStore(cfg.Server.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("receipt store at %s: %w", filepath.Clean(cfg.Server.UploadsDir), err)
	}
	bankRepo := banktransfer.NewRepository(pool, logger)
	bankService := banktransfer.NewServiceImpl(bankRepo, subscriptionService, receipts, logger)
	bankHandler := banktransfer.NewHandlerImpl(bankService, logger)

	// Admin
	adminService := admin.NewServiceImpl(admin.NewRepository(pool, logger), logger)
	adminHandler := admin.NewHandlerImpl(adminService, logger)

	healthHandler := health.NewHandlerImpl(map[string]health.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Pool:                pool,
		Redis:               rdb,
		SubscriptionService: subscriptionService,
		AuthHandler:         authHandler,
		PlanHandler:         planHandler,
		GenerationHandler:   generationHandler,
		CourseHandler:       courseHandler,
		ExamHandler:         examHandler,
		NotesHandler:        notesHandler,
		SubscriptionHandler: subscriptionHandler,
		BankTransferHandler: bankHandler,
		AdminHandler:        adminHandler,
		HealthHandler:       healthHandler,
		RateLimiter:         generation.NewRateLimiter(gen.RequestsPerMinute, gen.Burst, logger),
	}, nil
}

// Router builds the API router from the container's handlers.
func (c *Container) Router(metrics http.Handler) http.Handler {
	return router.SetupRouter(&router.Config{
		AllowedOrigins:         c.Config.Server.AllowOrigins,
		UploadsDir:             c.Config.Server.UploadsDir,
		MetricsHandler:         metrics,
		AuthHandler:            c.AuthHandler,
		PlanHandler:            c.PlanHandler,
		GenerationHandler:      c.GenerationHandler,
		CourseHandler:          c.CourseHandler,
		ExamHandler:            c.ExamHandler,
		NotesHandler:           c.NotesHandler,
		SubscriptionHandler:    c.SubscriptionHandler,
		BankTransferHandler:    c.BankTransferHandler,
		AdminHandler:           c.AdminHandler,
		HealthHandler:          c.HealthHandler,
		AuthenticateMiddleware: auth.Authenticate(c.Logger, c.Config.JWT),
		AdminMiddleware:        auth.RequireAdmin(c.Logger),
		RateLimitMiddleware:    c.RateLimiter.Middleware,
	})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
