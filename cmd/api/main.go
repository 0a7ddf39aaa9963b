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

	"github.com/jmoiron/sqlx"

	"github.com/clinicflow/frontdesk/internal/adapters/cache"
	"github.com/clinicflow/frontdesk/internal/adapters/database"
	"github.com/clinicflow/frontdesk/internal/adapters/events"
	"github.com/clinicflow/frontdesk/internal/adapters/providers/announce"
	"github.com/clinicflow/frontdesk/internal/adapters/search"
	"github.com/clinicflow/frontdesk/internal/api/handlers"
	"github.com/clinicflow/frontdesk/internal/api/routes"
	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/redis"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/typesense"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	"github.com/clinicflow/frontdesk/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("frontdesk-api", cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - events and caching degrade gracefully
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	flags := services.NewFeatureFlags()

	// Initialize adapters
	patientAdapter := database.NewPatientAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	queueAdapter := database.NewQueueAdapter(pgClient)
	callStateAdapter := database.NewCallStateAdapter(pgClient)
	transactionAdapter := database.NewTransactionAdapter(pgClient)
	expenseAdapter := database.NewExpenseAdapter(pgClient)

	var searchProvider providers.PatientSearchProvider
	if typesenseClient != nil && flags.SearchIndexEnabled() {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.EnsureCollection(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense collection: %v", err)
		}
		searchProvider = adapter
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize services
	var announcementService *services.AnnouncementService
	if flags.ServerAnnouncementsEnabled() {
		announcementProvider := announce.NewAnnouncementProvider(&cfg.TTS)
		announcementService = services.NewAnnouncementService(
			announcementProvider,
			eventBus,
			cacheProvider,
			cfg.Clinic.AnnounceLanguage,
			metrics,
		)
	}

	queueService := services.NewQueueService(
		appointmentAdapter,
		queueAdapter,
		patientAdapter,
		callStateAdapter,
		eventBus,
		announcementService,
		cfg.Clinic.RoomCount,
		metrics,
	)
	roomService := services.NewRoomService(appointmentAdapter, patientAdapter, cfg.Clinic.RoomCount)
	patientService := services.NewPatientService(patientAdapter, searchProvider)
	billingService := services.NewBillingService(transactionAdapter, expenseAdapter, patientAdapter)

	statsService := services.NewStatsService(sqlx.NewDb(pgClient.DB(), "postgres"), cacheProvider)

	// Initialize handlers
	patientHandler := handlers.NewPatientHandler(patientService)
	queueHandler := handlers.NewQueueHandler(queueService)
	roomHandler := handlers.NewRoomHandler(roomService)
	billingHandler := handlers.NewBillingHandler(billingService)
	reportHandler := handlers.NewReportHandler(statsService)

	var displayHandler *handlers.DisplayHandler
	if eventBus != nil && cacheProvider != nil {
		displayHandler = handlers.NewDisplayHandler(eventBus, cacheProvider, queueService, roomService)
	}

	// Set up router
	router := routes.NewRouter(
		patientHandler,
		queueHandler,
		roomHandler,
		billingHandler,
		reportHandler,
		displayHandler,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE endpoints stream indefinitely
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
