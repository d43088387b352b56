// Package daemon runs the plantline HTTP service: the JSON API, the
// WebSocket event feed, the Prometheus endpoint, and health checks.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/plantline/plantline/internal/adapters/events"
	"github.com/plantline/plantline/internal/adapters/metrics"
	"github.com/plantline/plantline/internal/adapters/notifications"
	"github.com/plantline/plantline/internal/adapters/storage"
	"github.com/plantline/plantline/internal/core/ports"
	"github.com/plantline/plantline/internal/core/services"
)

// Config holds daemon configuration.
type Config struct {
	Addr            string
	DataDir         string
	Storage         storage.Config
	WebhookURL      string
	WebhookToken    string
	SlackWebhookURL string
	SMTP            notifications.SMTPConfig
	ShutdownTimeout time.Duration
	Version         string
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		Addr:            ":8080",
		DataDir:         dataDir,
		Storage:         storage.DefaultConfig(dataDir),
		ShutdownTimeout: 10 * time.Second,
		Version:         "dev",
	}
}

// Server wires storage, the core services, and the outbound sinks behind one
// HTTP listener.
type Server struct {
	config   Config
	logger   ports.Logger
	db       *storage.DB
	http     *http.Server
	hub      *events.Hub
	recorder *metrics.Recorder

	recipes   *services.RecipeService
	snapshots *services.SnapshotService
	projects  *services.ProjectService
	tasks     *services.TaskService
	devices   *services.DeviceService
	emergency *services.EmergencyService

	startedAt time.Time
	mu        sync.RWMutex
	running   bool
}

// NewServer creates a fully wired daemon server.
func NewServer(config Config, logger ports.Logger) (*Server, error) {
	if config.Storage.Path == "" {
		config.Storage = storage.DefaultConfig(config.DataDir)
	}
	db, err := storage.New(config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	recipeRepo := storage.NewRecipeRepository(db)
	productRepo := storage.NewProductRepository(db)
	recipeSnapRepo := storage.NewRecipeSnapshotRepository(db)
	productSnapRepo := storage.NewProductSnapshotRepository(db)
	projectRepo := storage.NewProjectRepository(db)
	taskRepo := storage.NewTaskRepository(db)
	deviceRepo := storage.NewDeviceRepository(db)
	alertRepo := storage.NewAlertRepository(db)

	hub := events.NewHub(logger)
	recorder := metrics.NewRecorder()
	sinks := []ports.EventSink{events.NewLogSink(logger), hub, recorder}
	if config.WebhookURL != "" {
		sinks = append(sinks, events.NewWebhookSink(config.WebhookURL, config.WebhookToken))
	}
	if config.SlackWebhookURL != "" {
		sinks = append(sinks, notifications.NewSlackNotifier(config.SlackWebhookURL))
	}
	if config.SMTP.Host != "" {
		sinks = append(sinks, notifications.NewEmailNotifier(config.SMTP))
	}
	sink := events.NewMultiSink(sinks...)

	s := &Server{
		config:   config,
		logger:   logger,
		db:       db,
		hub:      hub,
		recorder: recorder,
	}

	s.recipes = services.NewRecipeService(recipeRepo, productRepo, logger)
	s.snapshots = services.NewSnapshotService(recipeRepo, productRepo, recipeSnapRepo, productSnapRepo, logger)
	expander := services.NewExpander(recipeSnapRepo, logger)
	production := services.NewProductionService(projectRepo, taskRepo, productSnapRepo, sink, logger)
	s.devices = services.NewDeviceService(deviceRepo, sink, logger)
	s.tasks = services.NewTaskService(taskRepo, deviceRepo, s.devices, production, sink, logger)
	s.projects = services.NewProjectService(projectRepo, taskRepo, s.snapshots, expander, production, sink, logger)
	s.emergency = services.NewEmergencyService(alertRepo, taskRepo, deviceRepo, production, sink, logger)

	s.http = &http.Server{
		Addr:         config.Addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s, nil
}

// Start begins serving. It blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Daemon started", "addr", s.config.Addr, "data_dir", s.config.DataDir)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully stops the daemon.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping daemon...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Info("Daemon stopped")
	return nil
}

// IsRunning returns whether the daemon is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
