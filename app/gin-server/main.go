package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/lectura-ai/backend/config"
	"github.com/lectura-ai/backend/internal/api/handlers"
	"github.com/lectura-ai/backend/internal/api/middleware"
	"github.com/lectura-ai/backend/internal/api/routes"
	"github.com/lectura-ai/backend/internal/cache"
	"github.com/lectura-ai/backend/internal/logger"
	"github.com/lectura-ai/backend/internal/providers/embedding"
	"github.com/lectura-ai/backend/internal/providers/llm"
	"github.com/lectura-ai/backend/internal/providers/media"
	"github.com/lectura-ai/backend/internal/providers/transcribe"
	mongorepo "github.com/lectura-ai/backend/internal/repositories/mongo"
	pgrepo "github.com/lectura-ai/backend/internal/repositories/postgres"
	"github.com/lectura-ai/backend/internal/segmenter"
	"github.com/lectura-ai/backend/internal/services"
	"github.com/lectura-ai/backend/internal/storage"
	"github.com/lectura-ai/backend/internal/workers"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func newTranscriber() transcribe.Provider {
	switch envOr("TRANSCRIBER", "whisper") {
	case "google":
		return transcribe.NewGoogleSpeech(envOr("GOOGLE_SPEECH_LANGUAGE", "en-US"))
	default:
		return transcribe.NewWhisperCLI(envOr("WHISPER_PYTHON", "python3"), envOr("WHISPER_MODEL", "base"))
	}
}

func newEmbedder() embedding.Provider {
	switch envOr("EMBEDDER", "ollama") {
	case "openai":
		return embedding.NewOpenAI(os.Getenv("OPENAI_API_KEY"), envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"))
	default:
		return embedding.NewOllama(envOr("OLLAMA_URL", "http://localhost:11434"), envOr("EMBEDDING_MODEL", "nomic-embed-text"))
	}
}

func chunkOptions() segmenter.Options {
	return segmenter.Options{
		Strategy:      segmenter.Strategy(envOr("CHUNK_STRATEGY", string(segmenter.StrategyHybrid))),
		ChunkDuration: float64(envInt("CHUNK_DURATION", 90)),
		MaxWords:      envInt("CHUNK_MAX_WORDS", 150),
	}
}

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	// Data directories
	if err := config.EnsureDataDirs(); err != nil {
		log.Fatalf("data dirs error: %v", err)
	}

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.EnsurePostgresSchema(); err != nil {
		log.Fatalf("PostgreSQL schema error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	fmt.Println("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	ctx := context.Background()

	// Providers. The generation engine and the artifact mirror are
	// optional; the app degrades instead of refusing to start.
	mediaEngine := media.NewFFmpeg()
	transcriber := newTranscriber()
	embedder := newEmbedder()

	var engine llm.Provider
	if projectID := os.Getenv("VERTEX_PROJECT_ID"); projectID != "" {
		vg, err := llm.NewVertexGemini(ctx, projectID,
			envOr("VERTEX_LOCATION", "us-central1"),
			envOr("GEMINI_MODEL", "gemini-2.0-flash"))
		if err != nil {
			lg.WithError(err).Warn("vertex init failed, chat answers will degrade")
		} else {
			engine = vg
		}
	}

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			lg.WithError(err).Warn("gcs init failed, transcript mirroring off")
		} else {
			uploader = up
		}
	}

	// Repositories
	videoRepo := pgrepo.NewVideoRepo(config.PostgresDB)
	chunkRepo := pgrepo.NewChunkRepo(config.PostgresDB)
	vectorRepo := pgrepo.NewVectorRepo(config.PostgresDB)
	sessionRepo := mongorepo.NewChatSessionRepo(config.MongoClient.Database(config.MongoDBName()))
	redisCache := cache.NewRedisCache(config.RedisClient)

	uploadDir := config.UploadDir()
	processedDir := config.ProcessedDir()
	maxUpload := envInt64("MAX_UPLOAD_BYTES", 2<<30)
	topK := envInt("RAG_TOP_K", 0)

	// Services
	tracker := services.NewStatusTracker(videoRepo)
	pipeline := services.NewPipelineService(tracker, videoRepo, chunkRepo, mediaEngine,
		transcriber, uploader, lg, processedDir, chunkOptions())
	indexer := services.NewIndexService(tracker, chunkRepo, vectorRepo, embedder, lg)
	retriever := services.NewRetrieverService(vectorRepo, embedder)
	composer := services.NewAnswerService(retriever, engine, lg, topK)
	chatSvc := services.NewChatService(videoRepo, sessionRepo, retriever, composer, redisCache)

	// Workers
	pool := &workers.ProcessorPool{
		Pipeline:   pipeline,
		Indexer:    indexer,
		Tracker:    tracker,
		Cache:      redisCache,
		NumWorkers: envInt("PIPELINE_WORKERS", 2),
		QueueSize:  envInt("PIPELINE_QUEUE_SIZE", 16),
		Logger:     lg,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("processor pool error: %v", err)
	}

	videoSvc := services.NewVideoService(videoRepo, chunkRepo, vectorRepo, sessionRepo,
		tracker, redisCache, mediaEngine, pool, uploadDir, maxUpload)

	// Health probes
	sqlDB, err := config.PostgresDB.DB()
	if err != nil {
		log.Fatalf("PostgreSQL handle error: %v", err)
	}
	checks := []handlers.HealthCheck{
		{Name: "postgres", Check: sqlDB.PingContext},
		{Name: "mongo", Check: func(ctx context.Context) error { return config.MongoClient.Ping(ctx, nil) }},
		{Name: "redis", Check: func(ctx context.Context) error { return config.RedisClient.Ping(ctx).Err() }},
		{Name: "upload_directory", Check: func(context.Context) error { _, err := os.Stat(uploadDir); return err }},
		{Name: "processed_directory", Check: func(context.Context) error { _, err := os.Stat(processedDir); return err }},
		{Name: "generation_engine", Check: func(context.Context) error {
			if engine == nil {
				return errors.New("not configured")
			}
			return nil
		}},
	}

	// Start Gin server
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(lg), middleware.CORS())

	routes.RegisterRoutes(r, routes.Deps{
		Health:       handlers.NewHealthHandler(checks...),
		Video:        handlers.NewVideoHandler(videoSvc, maxUpload),
		Chat:         handlers.NewChatHandler(chatSvc),
		WS:           handlers.NewWSHandler(videoSvc),
		UploadDir:    uploadDir,
		ProcessedDir: processedDir,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
