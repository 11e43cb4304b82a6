package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/workers"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	serverPort := envOr("PORT", "8080")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("Critical: JWT_SECRET is not set")
	}
	jwtIssuer := envOr("JWT_ISSUER", "kanso")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Database connected successfully.")

	habitRepo := repository.NewPostgresHabitRepository(db)
	eventRepo := repository.NewPostgresEventRepository(db)
	groupRepo := repository.NewPostgresGroupRepository(db)

	var analyticsRepo domain.AnalyticsRepository = repository.NewPostgresAnalyticsRepository(db)

	redisDB, _ := strconv.Atoi(envOr("REDIS_DB", "0"))
	redisClient, err := cache.NewRedisClient(
		envOr("REDIS_HOST", "localhost"),
		envOr("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
		redisDB,
	)
	if err != nil {
		log.Printf("Redis unavailable, serving analytics without cache: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis connected successfully.")
		analyticsRepo = repository.NewCachedAnalyticsRepository(analyticsRepo, redisClient)
	}

	analyticsService := services.NewAnalyticsService(habitRepo, eventRepo, analyticsRepo)
	groupService := services.NewGroupService(groupRepo, eventRepo, analyticsRepo)
	tokenService := services.NewTokenService(jwtSecret, jwtIssuer, 24*time.Hour)

	orchestratorCtx, stopOrchestrator := context.WithCancel(context.Background())
	defer stopOrchestrator()

	orchestrator := workers.NewOrchestrator(habitRepo, groupRepo, eventRepo, analyticsRepo)
	orchestrator.Start(orchestratorCtx, workers.Intervals{})

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AnalyticsHandler: adapterHTTP.NewAnalyticsHandler(analyticsService),
		GroupHandler:     adapterHTTP.NewGroupHandler(groupService),
		TokenService:     tokenService,
		DB:               db,
		Redis:            redisClient,
		StartTime:        startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Kanso Insights Engine running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	stopOrchestrator()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
