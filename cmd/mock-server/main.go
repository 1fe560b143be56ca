package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-voting/internal/api/handlers"
	"live-voting/internal/api/middleware"
	"live-voting/internal/config"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/internal/services"
	"live-voting/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
)

func main() {
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log = logger.NewWithLevel(cfg.Log.Level)

	hub := websocket.NewHub(log)
	poll := services.NewPoll(hub, clockwork.NewRealClock(), log)

	for _, name := range cfg.Mock.Candidates {
		if _, err := poll.AddCandidate(name, ""); err != nil {
			log.Error("Failed to seed candidate", "name", name, "error", err)
			os.Exit(1)
		}
	}

	pollHandler := handlers.NewPollHandler(poll, cfg.Mock.Port, log)
	push := websocket.NewPushHandler(hub, poll.InitialData, log)

	// Setup routes
	router := mux.NewRouter()
	pollHandler.RegisterRoutes(router, push)

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Mock.Host, cfg.Mock.Port),
		Handler: middleware.CORS(log)(router),
	}

	go func() {
		log.Info("Starting mock voting server", "address", server.Addr, "candidates", len(cfg.Mock.Candidates))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down mock voting server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	hub.CloseAll()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Mock voting server stopped")
}
