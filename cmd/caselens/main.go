package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/savegress/caselens/internal/anomaly"
	"github.com/savegress/caselens/internal/api"
	"github.com/savegress/caselens/internal/cases"
	"github.com/savegress/caselens/internal/compare"
	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/internal/storage"
)

func main() {
	log.Println("Starting CaseLens...")

	cfg := loadConfig()

	store, err := storage.NewEmbeddedStorage(cfg.Storage.DataPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	detector := anomaly.NewDetector(cfg.Thresholds)
	comparator := compare.NewComparator(cfg.Thresholds)

	engine := cases.NewEngine(detector, store)
	if err := engine.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load cases: %v", err)
	}

	server := api.NewServer(cfg, engine, comparator, store)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("CaseLens API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down CaseLens...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("CaseLens stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("CASELENS_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
