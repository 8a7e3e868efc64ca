package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	grpcapi "ngo-backend/internal/api/grpc"
	httpapi "ngo-backend/internal/api/http"
	"ngo-backend/internal/chat"
	"ngo-backend/internal/config"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository/factory"
	"ngo-backend/internal/security"
	"ngo-backend/internal/service"
	"ngo-backend/internal/state"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting NGO backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "timezone", cfg.Server.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, err := factory.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "type", cfg.Store.Type, "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	appState := state.New(store, cfg.Location())

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.AccessTokenTTL())

	// Initialize Services
	contactRecipients := append(append([]string{}, cfg.Org.AdminEmails...), cfg.Auth.AdminEmail)
	svcs := httpapi.Services{
		Ledger:  service.NewLedgerService(store.Transactions(), appState, nil),
		Members: service.NewMemberService(store.Members(), appState, nil),
		Notices: service.NewNoticeService(store.Notices(), appState, nil),
		Email:   service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, contactRecipients...),
		Auth:    service.NewAuthService(store.Members(), tokenManager, cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash),
	}

	if cfg.Chat.APIKey != "" {
		model, err := chat.NewGeminiModel(ctx, cfg.Chat.APIKey, cfg.Chat.Model, cfg.Org.Name)
		if err != nil {
			logger.Error("Failed to initialize chat model", "error", err)
			log.Fatalf("Failed to initialize chat model: %v", err)
		}
		defer model.Close()
		svcs.Chat = service.NewChatService(model, appState, cfg.Chat.MaxToolRounds)
	} else {
		logger.Warn("Chat API key not configured, chat assistant disabled")
	}

	router := httpapi.NewRouter(httpapi.NewHandler(svcs, appState, cfg.Location()), tokenManager)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return appState.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Server.HealthPort > 0 {
		lis, err := net.Listen("tcp", cfg.GetHealthAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetHealthAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		healthServer := grpcapi.NewHealthServer(appState)
		g.Go(func() error {
			return healthServer.Serve(ctx, lis)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped. Goodbye!")
}
