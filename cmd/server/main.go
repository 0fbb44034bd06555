package main

import (
	"adaptivestrategy/internal/app"
	"adaptivestrategy/internal/config"
	"adaptivestrategy/internal/transport/rest"
	"adaptivestrategy/internal/transport/ws"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title Adaptive Learning Strategy API
// @version 1.0
// @description Questionnaire sessions with tie-break resolution against the recommendation service
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Recommender Config:")
	log.Printf("  URL:         %s", cfg.Recommender.BaseURL)
	log.Printf("  Timeout:     %s", cfg.Recommender.Timeout())
	log.Printf("  Max retries: %d", cfg.Recommender.MaxRetries)
	log.Printf("  Round limit: %d (until the service reports one)", cfg.Recommender.DefaultRoundLimit)

	application, rdb, err := app.NewRedis(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close()
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Inject broadcaster (wsHub implements service.Broadcaster)
	application.Sessions.SetBroadcaster(wsHub)

	// Create router with container
	router := rest.NewRouter(&rest.Container{
		AuthService:    application.AuthService,
		SessionService: application.Sessions,
		WSHub:          wsHub,
		CORS:           cfg.CORS,
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/strategies")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  GET  /v1/sessions/{id}/questions?page=N")
		log.Println("  PUT  /v1/sessions/{id}/answers/{questionId}")
		log.Println("  POST /v1/sessions/{id}/submit")
		log.Println("  POST /v1/sessions/{id}/fallback/retry")
		log.Println("  POST /v1/sessions/{id}/restart")
		log.Println("  GET  /v1/sessions/{id}/export")
		log.Println("  WS   /v1/ws/sessions/{id}")

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
