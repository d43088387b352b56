package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/adapters/daemon"
	"github.com/plantline/plantline/internal/adapters/notifications"
	"github.com/plantline/plantline/internal/adapters/storage"
	"github.com/plantline/plantline/internal/config"
	"github.com/plantline/plantline/internal/core/services"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon", "start"},
	Short:   "Run the Plantline daemon",
	Long: `Run the Plantline background daemon.

The daemon provides:
  • REST API for recipes, products, projects, tasks, devices, and alerts
  • WebSocket event stream for live shop-floor updates
  • Prometheus metrics endpoint
  • SQLite-backed persistent state`,
	RunE: runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  `Display the current status of the Plantline daemon.`,
	RunE:  runStatus,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := cfg.Core.LogLevel
	if verbose {
		logLevel = "debug"
	}
	logger := services.NewSlogLogger(logLevel, cfg.Core.LogJSON)

	storageCfg := storage.DefaultConfig(cfg.Core.DataDir)
	storageCfg.JournalMode = cfg.Database.JournalMode
	storageCfg.Synchronous = cfg.Database.Synchronous
	storageCfg.CacheSize = cfg.Database.CacheSize
	storageCfg.BusyTimeout = cfg.Database.BusyTimeout

	daemonCfg := daemon.Config{
		Addr:            cfg.Daemon.Addr,
		DataDir:         cfg.Core.DataDir,
		Storage:         storageCfg,
		WebhookURL:      cfg.Webhook.URL,
		WebhookToken:    cfg.Webhook.Token,
		SlackWebhookURL: cfg.Alerting.SlackWebhookURL,
		SMTP: notifications.SMTPConfig{
			Host:     cfg.Alerting.SMTP.Host,
			Port:     cfg.Alerting.SMTP.Port,
			Username: cfg.Alerting.SMTP.Username,
			Password: cfg.Alerting.SMTP.Password,
			From:     cfg.Alerting.SMTP.From,
			To:       cfg.Alerting.SMTP.To,
		},
		ShutdownTimeout: cfg.Daemon.ShutdownTimeout,
		Version:         Version,
	}

	server, err := daemon.NewServer(daemonCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("Plantline daemon listening on %s\n", daemonCfg.Addr)
	fmt.Printf("  Data dir: %s\n", daemonCfg.DataDir)
	fmt.Printf("  PID:      %d\n", os.Getpid())
	fmt.Println("  Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	if err := server.Stop(context.Background()); err != nil {
		return err
	}
	fmt.Println("Daemon stopped")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := newAPIClient()

	var info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Uptime  string `json:"uptime"`
	}
	if err := client.get("/", &info); err != nil {
		fmt.Println("Daemon: not running")
		return nil
	}

	var health struct {
		Status    string `json:"status"`
		WSClients int    `json:"ws_clients"`
	}
	if err := client.get("/healthz", &health); err != nil {
		return err
	}

	fmt.Printf("Daemon:     %s %s\n", info.Name, info.Version)
	fmt.Printf("Status:     %s\n", health.Status)
	fmt.Printf("Uptime:     %s\n", info.Uptime)
	fmt.Printf("WS clients: %d\n", health.WSClients)
	return nil
}
