package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chiptable/config"
	"chiptable/database"
	"chiptable/events"
	"chiptable/infrastructure"
	"chiptable/metrics"
	"chiptable/repository"
	"chiptable/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Services is the set of operations exposed to the transport layer
type Services struct {
	Tables     service.TableService
	Settlement service.SettlementService
	Wallet     service.WalletService
	Stats      service.StatsService
}

// NewServices wires every service onto one unit of work factory
func NewServices(uowFactory service.UnitOfWorkFactory, cfg *config.Config) *Services {
	return &Services{
		Tables:     service.NewTableService(uowFactory, cfg),
		Settlement: service.NewSettlementService(uowFactory, service.CryptoOutcomeDrawer{}, cfg),
		Wallet:     service.NewWalletService(uowFactory, cfg),
		Stats:      service.NewStatsService(uowFactory),
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting chiptable...")

	// Initialize database connection
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus, cfg.LockTimeout)
	services := NewServices(uowFactory, cfg)

	// Optional event stream
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient, err = connectEventStream(ctx, cfg, eventBus)
		if err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}()
	}

	// Optional Discord announcements
	stopScoreboard := func() {}
	if cfg.DiscordWebhookID != "" && cfg.DiscordWebhookToken != "" {
		session, err := discordgo.New("")
		if err != nil {
			return fmt.Errorf("failed to create Discord session: %w", err)
		}
		announcer := infrastructure.NewDiscordAnnouncer(session, cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		announcer.Attach(eventBus)
		if cfg.ScoreboardInterval > 0 {
			stopScoreboard = infrastructure.NewScoreboardPoster(services.Stats, announcer).Start(ctx, cfg.ScoreboardInterval)
		}
		log.Info("Discord webhook announcements enabled")
	}

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = startMetricsServer(cfg.MetricsAddr)
	}

	stopWorker := service.NewSettlementWorker(services.Settlement, cfg.SettleInterval).Start(ctx)

	log.Infof("chiptable is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down chiptable...")
	stopWorker()
	stopScoreboard()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics server")
		}
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func connectEventStream(ctx context.Context, cfg *config.Config, bus *events.Bus) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.StreamName, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	infrastructure.NewNATSEventPublisher(client, mapper).Attach(bus)
	log.WithField("stream", infrastructure.StreamName).Info("Publishing events to NATS")
	return client, nil
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	return server
}
