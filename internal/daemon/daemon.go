package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teeline/teeline/internal/api"
	"github.com/teeline/teeline/internal/app"
	"github.com/teeline/teeline/internal/app/coordinator"
	"github.com/teeline/teeline/internal/app/reconcile"
	"github.com/teeline/teeline/internal/app/trigger"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

// Daemon is the teeline runtime. It wires the store, the backend client,
// the trigger service, and the coordinator. Every CLI command builds a fresh
// Daemon, so the trigger fire path never depends on a long-lived process.
type Daemon struct {
	Config      Config
	DB          *sqlite.DB
	Remote      *remote.Client
	Triggers    *trigger.Service
	Handler     *trigger.Handler
	Coordinator *coordinator.Coordinator
	Poller      *reconcile.Poller
	Server      *api.Server
	cancel      context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(teelineHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client := remote.NewClient(cfg.Backend.BaseURL, parseDuration(cfg.Backend.Timeout, 30*time.Second))
	dialer := app.NewCommandDialer(cfg.Dial.Command)

	handler := trigger.NewHandler(db, client, dialer)
	triggers := trigger.NewService(db, handler, parseDuration(cfg.Reconcile.TriggerScanInterval, time.Second))
	coord := coordinator.New(db, client, triggers, dialer)
	poller := reconcile.NewPoller(db, client, parseDuration(cfg.Reconcile.PollInterval, 5*time.Second))

	srv := api.NewServer(db, client, coord)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:      cfg,
		DB:          db,
		Remote:      client,
		Triggers:    triggers,
		Handler:     handler,
		Coordinator: coord,
		Poller:      poller,
		Server:      srv,
	}, nil
}

// Serve starts the trigger scan loop and the HTTP server, blocking until
// shutdown. A sweep runs at startup — the daemon coming up is the closest
// thing a headless process has to "app foregrounded".
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Triggers.Run(ctx)

	go func() {
		if n, err := reconcile.Sweep(ctx, d.DB, d.Remote); err != nil {
			log.Printf("[daemon] startup sweep: %v", err)
		} else if n > 0 {
			log.Printf("[daemon] startup sweep updated %d call(s)", n)
		}
	}()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // Sync can wait on the backend per call
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("teeline serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
