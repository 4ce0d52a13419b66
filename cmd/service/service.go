package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	configs "classwork_service/config"
	"classwork_service/internal/cache"
	"classwork_service/internal/genai"
	"classwork_service/internal/repository"
	"classwork_service/internal/server/httpapi"
	"classwork_service/internal/service"
	"classwork_service/internal/watch"
	"classwork_service/pkg/db"
	"classwork_service/pkg/kafka"
	"classwork_service/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	log := logger.New()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig := db.Config{
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		DBName:       cfg.DB.DBName,
		SSLMode:      cfg.DB.SSLMode,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	}

	pg, err := db.NewPostgres(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	assignmentRepo := repository.NewAssignmentRepository(pg.DB())
	submissionRepo := repository.NewSubmissionRepository(pg.DB())
	gradeRepo := repository.NewGradeRepository(pg.DB())

	kafkaProducer, err := kafka.NewProducer(kafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
	defer redisClient.Close()
	aggregateCache := cache.NewRedisCache(redisClient)

	contentClient := genai.NewClient(cfg.Content.Address, cfg.Content.Timeout)
	hub := watch.NewHub()

	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		contentClient,
		hub,
		log,
	)

	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		hub,
	)

	gradeService := service.NewGradeService(
		gradeRepo,
		submissionRepo,
		assignmentRepo,
		aggregateCache,
		kafkaProducer,
		hub,
	)

	handler := httpapi.NewHandler(
		assignmentService,
		submissionService,
		gradeService,
		log,
	)

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpapi.NewRouter(handler, log),
		ReadHeaderTimeout: cfg.HTTP.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewOverdueWorker(assignmentRepo, submissionRepo, kafkaProducer, log)
	go worker.Start(ctx)

	go func() {
		log.Infof("Starting HTTP server on %s", cfg.HTTP.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown failed: %v", err)
	}
	log.Info("Server stopped")
}
