package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tgo/filepipe/analysis/internal/cache"
	"github.com/tgo/filepipe/analysis/internal/config"
	"github.com/tgo/filepipe/analysis/internal/handler"
	"github.com/tgo/filepipe/analysis/internal/pkg/db"
	"github.com/tgo/filepipe/analysis/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gormDB, err := db.NewGormDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	// Redis is optional; without it every read goes to the database.
	var resultCache service.ResultCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, time.Duration(cfg.CacheTTLMin)*time.Minute)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, result cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			resultCache = redisCache
			log.Println("Analysis result cache enabled")
		}
	}

	router := handler.SetupRouter(cfg, gormDB, resultCache)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Analysis service starting on port %s", cfg.Port)
		log.Printf("Environment: %s", cfg.Environment)
		log.Printf("File store -> %s", cfg.FileStoreURL)
		log.Printf("Word cloud renderer -> %s", cfg.WordCloudURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
