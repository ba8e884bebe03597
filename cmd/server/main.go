package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadfunnel/internal/cache"
	"leadfunnel/internal/config"
	"leadfunnel/internal/flow"
	"leadfunnel/internal/repository"
	"leadfunnel/internal/service"
	"leadfunnel/internal/transport/rest"
	"leadfunnel/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	if cfg.SubmitTimeout >= cache.LockTTL {
		log.Printf("Warning: SUBMIT_TIMEOUT %s exceeds session lock TTL %s, clamping", cfg.SubmitTimeout, cache.LockTTL)
		cfg.SubmitTimeout = cache.LockTTL - 5*time.Second
	}

	// Survey engine
	engine, err := flow.NewFunnelEngine()
	if err != nil {
		log.Fatal("Invalid survey definition:", err)
	}
	engine.SetSubmitTimeout(cfg.SubmitTimeout)
	log.Printf("Survey: %d questions, entry %q, submit timeout %s", engine.Catalog().Len(), engine.Catalog().Entry(), cfg.SubmitTimeout)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	submissionRepo := repository.NewSubmissionRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb, cfg.SessionTTL)
	statsCache := cache.NewStatsCache(rdb)

	// Submission collaborator: store, then fan out
	submitter := service.NewRecordSubmitter(submissionRepo)
	submitter.SetBroadcaster(wsHub)
	if cfg.WebhookEnabled() {
		submitter.SetNotifier(service.NewWebhookClient(cfg.SubmitEndpoint, cfg.SubmitAPIKey))
		log.Printf("Submission webhook: %s", cfg.SubmitEndpoint)
	} else {
		log.Println("Submission webhook: NOT SET (store only)")
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret)
	surveySvc := service.NewSurveyService(engine, sessionCache, statsCache, submitter)
	submissionSvc := service.NewSubmissionService(submissionRepo, statsCache, engine.Catalog())

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		SurveyService:     surveySvc,
		SubmissionService: submissionSvc,
		WSHub:             wsHub,
		AllowedOrigins:    cfg.AllowedOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("Admin auth: username=%s", cfg.AdminUsername)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/flow/catalog")
		log.Println("  POST /v1/flow/sessions")
		log.Println("  GET/DELETE /v1/flow/sessions/{id}")
		log.Println("  POST /v1/flow/sessions/{id}/answers|back|contact|retry")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET  /v1/admin/submissions[/{id}]")
		log.Println("  GET  /v1/admin/stats")
		log.Println("  WS   /v1/ws/admin")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
