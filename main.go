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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vet-telehealth-server/internal/bus"
	"vet-telehealth-server/internal/config"
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/models"
	"vet-telehealth-server/internal/routes"
	"vet-telehealth-server/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database connection (staff accounts only)
	db, err := models.InitDB(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Pick the broadcast bus: Kafka when brokers are configured, otherwise
	// the in-process bus (single-instance mode).
	var eventBus bus.Bus
	if len(cfg.Kafka.Brokers) > 0 {
		eventBus = bus.NewKafkaBus(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Printf("Broadcasting events via Kafka topic %q", cfg.Kafka.Topic)
	} else {
		eventBus = bus.NewMemoryBus()
		log.Println("No Kafka brokers configured, running single-instance")
	}

	// Initialize the live demo store
	store := demo.NewStore(eventBus,
		demo.WithTickInterval(time.Duration(cfg.WaitTickSeconds)*time.Second))

	// Object storage for case attachments is optional
	var files *storage.AttachmentStore
	if cfg.Storage.Bucket != "" {
		files, err = storage.NewAttachmentStore(context.Background(), cfg.Storage.Bucket)
		if err != nil {
			log.Fatalf("Error initializing attachment storage: %v", err)
		}
	} else {
		log.Println("No attachments bucket configured, uploads disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, db, store, files, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	store.Close()
	if err := eventBus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}

	log.Println("Server exited")
}
