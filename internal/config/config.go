package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Ingestion
	MaxFileSize         int64
	AllowedTypes        []string
	SyncProcessingLimit int64

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	TopK             int
	MaxContextChars  int
	SimilarityMetric string

	// Embeddings
	GeminiAPIKey         string
	EmbeddingsModel      string
	VectorDimensions     int
	EmbeddingBatchSize   int
	EmbeddingTimeoutSecs int

	// Generation
	GenerationModel       string
	GenerationRPM         int
	GenerationTimeoutSecs int

	// Redis
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	AnswerCacheTTL int // seconds

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Storage backend: "memory" or "mongo"
	StorageBackend string

	// Stale-pending sweep
	SweepIntervalMins int
	StaleAfterMins    int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docqa"),
		DBName:   getEnv("DB_NAME", "docqa"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes:        strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,text/plain,text/markdown,text/html,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"), ","),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 5242880), // 5MB; larger uploads go async

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		TopK:             getEnvInt("RETRIEVAL_TOP_K", 4),
		MaxContextChars:  getEnvInt("MAX_CONTEXT_CHARS", 12000),
		SimilarityMetric: getEnv("SIMILARITY_METRIC", "cosine"),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel:      getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:     getEnvInt("VECTOR_DIM", 768),
		EmbeddingBatchSize:   getEnvInt("EMBEDDING_BATCH_SIZE", 32),
		EmbeddingTimeoutSecs: getEnvInt("EMBEDDING_TIMEOUT_SECS", 30),

		GenerationModel:       getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		GenerationRPM:         getEnvInt("GENERATION_RPM", 10),
		GenerationTimeoutSecs: getEnvInt("GENERATION_TIMEOUT_SECS", 60),

		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		AnswerCacheTTL: getEnvInt("ANSWER_CACHE_TTL_SECS", 600),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		StorageBackend: getEnv("STORAGE_BACKEND", "mongo"),

		SweepIntervalMins: getEnvInt("SWEEP_INTERVAL_MINS", 15),
		StaleAfterMins:    getEnvInt("STALE_AFTER_MINS", 30),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must satisfy 0 <= overlap < CHUNK_SIZE")
	}
	if cfg.StorageBackend != "memory" && cfg.StorageBackend != "mongo" {
		return nil, fmt.Errorf("STORAGE_BACKEND must be memory or mongo")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
