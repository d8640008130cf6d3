package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/brightsun/solarsite/internal/config"
	"github.com/brightsun/solarsite/internal/content"
	"github.com/brightsun/solarsite/internal/domain/services"
	"github.com/brightsun/solarsite/internal/fortlev"
	"github.com/brightsun/solarsite/internal/infrastructure/database/postgres"
	"github.com/brightsun/solarsite/internal/notify"
	"github.com/brightsun/solarsite/internal/pkg/idgen"
	"github.com/brightsun/solarsite/internal/pkg/logger"
	"github.com/brightsun/solarsite/migrations"
	"github.com/brightsun/solarsite/server/internal/handlers"
	"github.com/brightsun/solarsite/server/internal/middleware"
)

const dbConnectAttempts = 10

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		forceVersion  int
		configPath    string
		logLevel      string
		logFile       string
		logToStderr   bool
		alsoLogStderr bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "solarsite",
		Short: "Solarsite API server",
		Long:  "HTTP API for the solar kit site: partner catalog and quotes, lead capture and editorial content",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupServerLogging(logLevel, logFile, logToStderr, alsoLogStderr, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath, forceVersion)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&forceVersion, "force-migration", -1, "Force migration version (use to fix dirty migration state)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (optional)")

	// Add logging flags
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	cmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false, "Log to both file and stderr")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(newMigrateCommand(&configPath))
	cmd.AddCommand(newLeadsCommand(&configPath))
	cmd.AddCommand(newAdminTokenCommand())

	return cmd
}

// setupServerLogging configures the global logger for the server
func setupServerLogging(logLevel, logFile string, logToStderr, alsoLogStderr bool, logFormat string) error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	globalLogger, err := logger.SetupLogger(logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	})
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			pgConn, err := openDatabase(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer pgConn.Close()
			return nil
		},
	}
}

// openDatabase connects with retries and brings the schema up to date
func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	log.Info("Initializing PostgreSQL database",
		"user", cfg.Database.Postgres.User,
		"host", cfg.Database.Postgres.Host,
		"database", cfg.Database.Postgres.Database,
		"url_override", cfg.Database.URL != "")

	pgConn, err := postgres.ConnectWithRetry(ctx, cfg.Database.ConnectionString(), dbConnectAttempts, log)
	if err != nil {
		return nil, err
	}

	if err := pgConn.RunMigrations(migrations.FS, log); err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("failed to run PostgreSQL migrations: %w", err)
	}
	return pgConn, nil
}

// newNotifier picks the Discord webhook when configured, the log otherwise
func newNotifier(cfg *config.Config, log *slog.Logger) (services.LeadNotifier, error) {
	d := cfg.Notifications.Discord
	if !d.Enabled() {
		log.Info("Discord webhook not configured, leads will only be logged")
		return notify.NewLogNotifier(log), nil
	}
	return notify.NewDiscordNotifier(d.WebhookID, d.WebhookToken, d.Username, log)
}

func newPartnerClient(cfg *config.Config, log *slog.Logger) *fortlev.Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.Fortlev.RequestTimeout
	hc.Transport = fortlev.NewMetricsTransport(hc.Transport)

	client := fortlev.New(cfg.Fortlev.Credentials(),
		fortlev.WithHTTPClient(hc),
		fortlev.WithLoginTimeout(cfg.Fortlev.LoginTimeout),
		fortlev.WithLogger(log))
	if err := cfg.Fortlev.Credentials().Validate(); err != nil {
		log.Warn("partner API not fully configured, calls will fail until it is", "error", err)
	}
	return client
}

func runServer(ctx context.Context, configPath string, forceVersion int) error {
	log := logger.WithComponent(slog.Default(), "server")
	log.Info("Starting server initialization")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := idgen.Initialize(cfg.IDGen.NodeID); err != nil {
		return fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgConn, err := postgres.ConnectWithRetry(ctx, cfg.Database.ConnectionString(), dbConnectAttempts, log)
	if err != nil {
		return err
	}
	defer pgConn.Close()

	// Handle force migration if requested
	if forceVersion >= 0 {
		log.Info("Force setting migration version", "version", forceVersion)
		if err := pgConn.ForceMigrationVersion(migrations.FS, forceVersion); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
		log.Info("Migration version forced, exiting", "version", forceVersion)
		return nil
	}

	if err := pgConn.RunMigrations(migrations.FS, log); err != nil {
		return fmt.Errorf("failed to run PostgreSQL migrations: %w", err)
	}

	store, err := content.Default()
	if err != nil {
		return fmt.Errorf("failed to load site content: %w", err)
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize lead notifier: %w", err)
	}

	partner := newPartnerClient(cfg, slog.Default())
	kitService := services.NewKitService(partner, cfg.Fortlev.CatalogPath, cfg.Fortlev.QuotePath, slog.Default())
	leadService := services.NewLeadService(postgres.NewLeadRepository(pgConn.DB), notifier, slog.Default())

	if cfg.Admin.TokenHash == "" {
		log.Warn("admin token hash not configured, lead listing is disabled")
	}

	h := handlers.New(handlers.Deps{
		Kits:           kitService,
		Leads:          leadService,
		Partner:        partner,
		Content:        store,
		AdminTokenHash: cfg.Admin.TokenHash,
		Logger:         slog.Default(),
	})

	router := createRouter(h, pgConn)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.Server.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("Starting metrics server", "address", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failed: %w", err)
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown failed", "error", err)
	}
	log.Info("Server stopped")
	return nil
}

// createRouter sets up the HTTP router with all routes and middleware
func createRouter(h *handlers.Handler, pgConn *postgres.Connection) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pgConn.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	h.Register(router)
	return middleware.Wrap(router, slog.Default())
}
