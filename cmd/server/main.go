package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invitetrack/internal/config"
	"invitetrack/internal/database"
	"invitetrack/internal/discord"
	"invitetrack/internal/handlers"
	"invitetrack/internal/repository"
	"invitetrack/internal/security"
	"invitetrack/internal/service"
	"invitetrack/internal/snapshot"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}
	if cfg.GuildID == "" || cfg.TextChannelID == "" {
		log.Fatal("DISCORD_GUILD_ID and DISCORD_TEXT_CHANNEL_ID are required")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Platform client
	client := discord.NewClient(cfg.APIBaseURL, cfg.BotToken, cfg.FetchTimeout)

	// Initialize repositories
	linkRepo := repository.NewInviteLinkRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	attributionRepo := repository.NewAttributionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// Initialize services
	store := snapshot.NewStore(client)
	reconcileService := service.NewReconcileService(store)
	attributionService := service.NewAttributionService(linkRepo, memberRepo, attributionRepo, usageRepo)
	notifyService := service.NewNotifyService(client, cfg.NotifyTimeout)
	joinService := service.NewJoinService(client, reconcileService, attributionService, notifyService,
		cfg.GuildID, cfg.TextChannelID, cfg.FetchTimeout)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	onboardService := service.NewOnboardService(client, linkRepo, emailService, cfg.GuildID, cfg.TextChannelID)

	// Prime the invite snapshot so the first join has a pre-image
	primeCtx, cancelPrime := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	if err := reconcileService.Prime(primeCtx, cfg.GuildID); err != nil {
		log.Printf("Warning: failed to prime invite cache: %v", err)
	}
	cancelPrime()

	// Gateway listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := discord.NewGateway(cfg.GatewayURL, cfg.BotToken, joinService)
	go func() {
		if err := gateway.Run(ctx); err != nil {
			log.Printf("Gateway stopped: %v", err)
		}
	}()

	// Initialize handlers
	limiter := security.NewLimiter(cfg.RateLimit, cfg.RateWindow)
	middleware := handlers.NewMiddleware(cfg.JWTSecret, cfg.APITokenHash, limiter)
	inviteHandler := handlers.NewInviteHandler(onboardService, attributionService, cfg.FetchTimeout)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("POST /generate-invite", middleware.RateLimit(middleware.RequireAuth(inviteHandler.GenerateInvite)))
	mux.HandleFunc("GET /referrals/{inviterId}", middleware.RequireAuth(inviteHandler.ListReferrals))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	cancel()
	if err := gateway.Close(); err != nil {
		log.Printf("Gateway close failed: %v", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
