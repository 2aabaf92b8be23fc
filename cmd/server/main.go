package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/modelaudit/modelmeter/internal/cache"
	"github.com/modelaudit/modelmeter/internal/config"
	"github.com/modelaudit/modelmeter/internal/errors"
	"github.com/modelaudit/modelmeter/internal/lineage"
	"github.com/modelaudit/modelmeter/internal/llm"
	"github.com/modelaudit/modelmeter/internal/monitoring"
	"github.com/modelaudit/modelmeter/internal/orchestrator"
	"github.com/modelaudit/modelmeter/internal/ratelimit"
	"github.com/modelaudit/modelmeter/internal/registry"
	"github.com/modelaudit/modelmeter/internal/scoring"
	"github.com/modelaudit/modelmeter/internal/types"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadFromEnv()

	db, err := registry.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize registry database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := registry.NewRepository(db)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	llmClient := llm.NewClient(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMMinInterval, cfg.LLMRequestTimeout, appMetrics)
	resolver := lineage.NewResolver(repo, llmClient, appMetrics)

	pipeline := scoring.NewPipeline(resolver, appMetrics)
	orch := orchestrator.New(pipeline, repo, orchestrator.Options{
		DisqualifyThreshold: cfg.DisqualifyThreshold,
		WaitTimeout:         cfg.WaitTimeout,
		ReaperTimeout:       cfg.ReaperTimeout,
	}, appMetrics)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch.StartReaper(rootCtx, time.Minute)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Warn("Invalid REDIS_URL, rate limiting falls back in-memory", "error", err)
		} else {
			redisClient = redis.NewClient(opts)
		}
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:   cfg.IPLimitPerMin,
		BurstMultiplier: 2,
	}, appMetrics)

	responseCache := cache.New(cfg.CacheTTL)

	r := gin.New()
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(limiter.Middleware(appMetrics))
	r.Use(responseCache.Middleware(appMetrics))

	r.POST("/rate", rateHandler(orch, appLogger))
	r.GET("/artifacts", artifactsHandler(repo))
	r.GET("/tasks/*artifact_id", taskStatusHandler(orch))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"tasks":   orch.TaskCount(),
			"cache":   responseCache.Size(),
			"llm":     llmClient.Available(),
			"updated": time.Now().UTC(),
		})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.Snapshot())
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting rating server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// rateHandler runs (or joins) the rating computation for an artifact.
func rateHandler(orch *orchestrator.Orchestrator, appLogger *monitoring.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid rate request", err.Error())
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		start := time.Now()
		result, err := orch.RequestRating(c.Request.Context(), req.ArtifactID, &req.Metadata)
		if err != nil {
			appErr := errors.ToAppError(err)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		status, _ := orch.TaskStatus(req.ArtifactID)
		appLogger.RatingLogger(req.ArtifactID, string(status), result.NetScore, time.Since(start))

		c.JSON(http.StatusOK, gin.H{
			"artifact_id": req.ArtifactID,
			"status":      status,
			"result":      result,
		})
	}
}

// artifactsHandler lists registered artifacts.
func artifactsHandler(repo *registry.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		artifacts, err := repo.ListArtifacts(c.Query("name"), 100)
		if err != nil {
			appErr := errors.NewInternalError("failed to list artifacts", err)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
	}
}

// taskStatusHandler reports the lifecycle state of a rating task. The route
// uses a wildcard so artifact ids containing slashes (org/model) resolve.
func taskStatusHandler(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		artifactID := strings.TrimPrefix(c.Param("artifact_id"), "/")
		status, ok := orch.TaskStatus(artifactID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"artifact_id": artifactID,
			"status":      status,
		})
	}
}
