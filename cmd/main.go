package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"raffle/internal/config"
	"raffle/internal/handlers"
	"raffle/internal/services"
	"raffle/internal/storage"
)

const (
	Version = "0.1.0"
	appName = "raffle"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Pet-adoption raffle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	root.AddCommand(
		serveCmd(&configFile),
		exportCmd(&configFile),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, Version)
			},
		},
	)
	return root
}

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configFile)
		},
	}
}

func exportCmd(configFile *string) *cobra.Command {
	var tenantID, kind string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a raffle's results or sales as CSV to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			write := services.WriteResultsCSV
			switch kind {
			case "results":
			case "sales":
				write = services.WriteSalesCSV
			default:
				return fmt.Errorf("unknown export kind %q", kind)
			}

			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			store, err := openStore(cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Load(cmd.Context(), tenantID)
			if err != nil {
				return fmt.Errorf("load raffle for tenant %s: %w", tenantID, err)
			}
			return write(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&kind, "kind", "results", "results or sales")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case config.DriverSqlite:
		return storage.NewSqliteStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func serve(ctx context.Context, configFile string) error {
	// 1. Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// 2. Route logs to a rotating file as well as stderr
	logFile := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	defer logger.Init(appName, cfg.Log.Verbose, false, logFile).Close()

	// 3. Initialize storage and the raffle service
	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	raffleService := services.NewRaffleService(store, services.NewDrawer(nil), cfg.Session.TTL)
	httpHandler := handlers.NewHTTPHandler(raffleService)

	// 4. Set up the Gin router
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(handlers.MetricsMiddleware())
	httpHandler.RegisterPublicRoutes(r)

	tenantRoutes := r.Group("/")
	tenantRoutes.Use(httpHandler.TenantMiddleware())
	httpHandler.RegisterTenantRoutes(tenantRoutes)

	// 5. Evict idle sessions on a schedule
	janitor := cron.New()
	if _, err := janitor.AddFunc(cfg.Session.Cleanup, func() {
		raffleService.CleanUpInactiveSessions()
	}); err != nil {
		return fmt.Errorf("invalid session.cleanup schedule %q: %w", cfg.Session.Cleanup, err)
	}
	janitor.Start()
	defer janitor.Stop()

	// 6. Run the server until interrupted
	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
