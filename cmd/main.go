package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"docqa-platform/internal/ai"
	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/telemetry"
	"docqa-platform/middleware"
	"docqa-platform/routes"
	"docqa-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("docqa-platform")
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		slog.Warn("metrics disabled", "error", err)
	}

	ctx := context.Background()

	// Storage backend: mongo for durable deployments, memory for local runs.
	var (
		registry services.DocumentRegistry
		index    services.VectorIndex
		sessions services.SessionStore
	)
	if cfg.StorageBackend == "mongo" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
		db := mongoClient.Database(cfg.DBName)
		registry = services.NewMongoRegistry(db)
		sessions = services.NewMongoSessionStore(db)
		index, err = services.NewMongoVectorIndex(db, registry, cfg.VectorDimensions, cfg.SimilarityMetric)
		if err != nil {
			log.Fatal("Failed to create vector index:", err)
		}
	} else {
		registry = services.NewMemoryRegistry()
		sessions = services.NewMemorySessionStore()
		index, err = services.NewMemoryVectorIndex(cfg.VectorDimensions, cfg.SimilarityMetric)
		if err != nil {
			log.Fatal("Failed to create vector index:", err)
		}
	}

	// Redis backs the answer cache, rate limiting, and the async queue. All
	// three degrade gracefully when it is unreachable.
	var rdb *redis.Client
	var answerCache services.AnswerCache = services.NoopAnswerCache{}
	var queueClient *asynq.Client
	if rdb, err = config.NewRedisClient(cfg); err != nil {
		slog.Warn("redis unavailable, running without cache and async queue", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
		answerCache = services.NewRedisAnswerCache(rdb, time.Duration(cfg.AnswerCacheTTL)*time.Second)
		queueClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer queueClient.Close()
	}

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()
	generator, err := ai.NewGeminiGenerator(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize generator:", err)
	}
	defer generator.Close()

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Failed to create chunker:", err)
	}
	extractor := services.NewDocumentExtractor()

	ingestion, err := services.NewIngestionService(extractor, chunker, embedder, index, registry, sessions, slog.Default())
	if err != nil {
		log.Fatal("Failed to create ingestion service:", err)
	}
	retriever, err := services.NewRetriever(embedder, index, registry, cfg.TopK)
	if err != nil {
		log.Fatal("Failed to create retriever:", err)
	}
	qa, err := services.NewQAService(retriever, generator, answerCache, cfg.MaxContextChars, slog.Default())
	if err != nil {
		log.Fatal("Failed to create QA service:", err)
	}
	files, err := services.NewFileStore(os.TempDir())
	if err != nil {
		log.Fatal("Failed to create file store:", err)
	}

	sweeper := services.NewSweeper(registry, index,
		time.Duration(cfg.SweepIntervalMins)*time.Minute,
		time.Duration(cfg.StaleAfterMins)*time.Minute,
		slog.Default())
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Session-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupIngestRoutes(router, cfg, ingestion, files, queueClient, metrics)
	routes.SetupAskRoutes(router, cfg, qa, metrics)
	routes.SetupDocumentRoutes(router, registry, sessions, ingestion)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	slog.Info("server exited")
}
