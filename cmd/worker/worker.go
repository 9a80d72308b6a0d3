package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"docqa-platform/internal/ai"
	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

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
		defer mongoClient.Disconnect(ctx)
		db := mongoClient.Database(cfg.DBName)
		registry = services.NewMongoRegistry(db)
		sessions = services.NewMongoSessionStore(db)
		index, err = services.NewMongoVectorIndex(db, registry, cfg.VectorDimensions, cfg.SimilarityMetric)
		if err != nil {
			log.Fatal("Failed to create vector index:", err)
		}
	} else {
		// A memory backend is process-local; the worker would index into a
		// store the API server cannot see.
		log.Fatal("Worker requires STORAGE_BACKEND=mongo")
	}

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Failed to create chunker:", err)
	}
	ingestion, err := services.NewIngestionService(services.NewDocumentExtractor(), chunker,
		embedder, index, registry, sessions, slog.Default())
	if err != nil {
		log.Fatal("Failed to create ingestion service:", err)
	}
	files, err := services.NewFileStore(os.TempDir())
	if err != nil {
		log.Fatal("Failed to create file store:", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"ingestion": 8,
				"default":   2,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				slog.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestion, files, slog.Default())

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.ProcessIngest)

	slog.Info("starting ingestion worker", "redis", redisOpt.Addr, "concurrency", 10)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
