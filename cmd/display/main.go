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

	"github.com/clinicflow/frontdesk/internal/adapters/cache"
	"github.com/clinicflow/frontdesk/internal/adapters/database"
	"github.com/clinicflow/frontdesk/internal/adapters/events"
	"github.com/clinicflow/frontdesk/internal/api/handlers"
	"github.com/clinicflow/frontdesk/internal/api/middleware"
	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/redis"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	"github.com/clinicflow/frontdesk/pkg/config"
)

// The display server is deployed separately from the front-desk API so a
// waiting-room screen keeps streaming even while the API restarts. It is
// read-only: SSE relay, snapshot reads and announcement audio.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("frontdesk-display", cfg.Server.Env)
	log.Println("Starting display server...")

	// Redis is required here: the display exists to relay bus events
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	eventBus := events.NewRedisEventBus(redisClient)
	cacheProvider := cache.NewRedisAdapter(redisClient)

	patientAdapter := database.NewPatientAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	queueAdapter := database.NewQueueAdapter(pgClient)
	callStateAdapter := database.NewCallStateAdapter(pgClient)

	// No event bus and no announcer: this queue service only serves reads
	queueService := services.NewQueueService(
		appointmentAdapter,
		queueAdapter,
		patientAdapter,
		callStateAdapter,
		nil,
		nil,
		cfg.Clinic.RoomCount,
		nil,
	)
	roomService := services.NewRoomService(appointmentAdapter, patientAdapter, cfg.Clinic.RoomCount)

	displayHandler := handlers.NewDisplayHandler(eventBus, cacheProvider, queueService, roomService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/display/stream", displayHandler.StreamUpdates)
	mux.HandleFunc("GET /api/display/snapshot", displayHandler.GetSnapshot)
	mux.HandleFunc("GET /api/display/announcements/{id}", displayHandler.GetAnnouncementAudio)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,  // Longer timeout for SSE
		WriteTimeout: 0,                 // No timeout for SSE streaming
		IdleTimeout:  120 * time.Second, // Allow long-lived connections
	}

	go func() {
		log.Printf("Display server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Display server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Display server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if err := eventBus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}

	log.Println("Display server stopped")
}
