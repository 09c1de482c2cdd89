// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/auth"
	"spectra-back/internal/config"
	"spectra-back/internal/database"
	"spectra-back/internal/handlers"
	"spectra-back/internal/inference"
	"spectra-back/internal/ingest"
	"spectra-back/internal/middleware"
	"spectra-back/internal/queue"
	"spectra-back/internal/repo"
	"spectra-back/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	store := repo.NewGormStore(db)

	// Job queue backend
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	jobs := queue.NewRedisStore(rdb, cfg.JobRetention)

	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize MinIO client:", err)
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpirationHours)
	ingestor := ingest.NewIngestor(store, minioClient)
	manager := inference.NewManager(store, jobs)
	client := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout)

	// Inference workers poll the queue off the request path.
	for i := 0; i < cfg.WorkerCount; i++ {
		worker := inference.NewWorker(jobs, client, minioClient, cfg.WorkerPollInterval)
		go worker.Run(ctx)
	}
	log.Printf("Started %d inference workers", cfg.WorkerCount)

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(apperrors.Middleware())

	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", handlers.Register(store, jwtManager, cfg.StartingTokenBalance))
		public.POST("/login", handlers.Login(store, jwtManager))
		public.POST("/logout", handlers.Logout)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	{
		protected.GET("/profile", handlers.GetProfile(store))
		protected.GET("/remainingTokens", handlers.RemainingTokens(store))

		protected.POST("/emptydataset", handlers.CreateDataset(store))
		protected.GET("/datasets", handlers.ListDatasets(store))
		protected.PATCH("/dataset/:name/update", handlers.UpdateDataset(store))
		protected.PUT("/dataset/:name/cancel", handlers.CancelDataset(store))

		protected.POST("/spectrogram", middleware.SingleFileCheck(), handlers.UploadSpectrogram(ingestor))
		protected.POST("/uploadFilesFromZip", middleware.SingleFileCheck(), handlers.UploadSpectrogramZip(ingestor))

		protected.POST("/startInference/:datasetName", handlers.StartInference(manager))
		protected.GET("/inferenceStatus/:jobId", handlers.InferenceStatus(manager))
		protected.DELETE("/inference/:jobId", handlers.AbortInference(manager))
	}

	// Admin routes
	admin := r.Group("/api")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.AdminMiddleware())
	{
		admin.POST("/refillTokens", handlers.RefillTokens(store))
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
