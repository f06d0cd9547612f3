package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/application/services"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/bootstrap"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/config"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/database"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/notify"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/infrastructure/stores"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/interfaces/middleware"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/interfaces/rest"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/expression"
)

func main() {
	// .env is optional; real deployments inject environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded environment from .env")
	}

	cfg := config.Load()

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Stores
	requestStore := stores.NewRequestStore(db)
	servicesStore := stores.NewServicesStore(db)
	slaStore := stores.NewSLAStore(db)
	permissionStore := stores.NewPermissionStore(db)

	// Application services
	clock := ports.SystemClock{}
	eventBus := services.NewEventBus()
	definitionSvc := services.NewDefinitionService(servicesStore, expression.NewEngine())
	slaSvc := services.NewSLAService()
	transitionSvc := services.NewTransitionService(requestStore, definitionSvc, slaStore, slaSvc, eventBus, clock)
	fieldSvc := services.NewFieldPermissionService(permissionStore, servicesStore, definitionSvc, requestStore)

	notifier := notify.NewLogNotifier()
	if cfg.NotificationsEnabled {
		services.NewNotificationDispatcher(eventBus, notifier)
		log.Println("📨 Notification dispatcher wired")
	}

	escalationSvc := services.NewEscalationService(requestStore, definitionSvc, slaStore, slaSvc, notifier, eventBus, clock, cfg)
	if cfg.EscalationEnabled {
		go escalationSvc.Start()
	} else {
		log.Println("🚫 SLA escalation sweep disabled")
	}

	// Create Gin router
	router := gin.Default()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// API routes
	requestHandler := rest.NewRequestHandler(transitionSvc, fieldSvc, requestStore)
	api := router.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		requestHandler.RegisterRoutes(api)
	}

	log.Printf("\n📍 Server:        http://localhost:%s", cfg.Port)
	log.Printf("📋 Requests API:  http://localhost:%s/api/requests", cfg.Port)
	log.Printf("💚 Health check:  http://localhost:%s/health\n", cfg.Port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if cfg.EscalationEnabled {
		escalationSvc.Stop()
		log.Println("🛑 Escalation sweep stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
