package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"crmagent/internal/clients"
	"crmagent/internal/config"
	"crmagent/internal/logging"
	"crmagent/internal/session"
	"crmagent/internal/workflow"
)

// Daemon owns the API server and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *session.Registry
	directory *clients.Directory
	runner    *workflow.Runner

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	APIAddress   string
	Sessions     int
	Clients      int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, registry *session.Registry, directory *clients.Directory, runner *workflow.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || registry == nil || directory == nil || runner == nil {
		return nil, errors.New("daemon requires config, registry, directory, and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		registry:  registry,
		directory: directory,
		runner:    runner,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and binds the API listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another crmagent daemon instance is already running")
	}

	if err := d.api.listen(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("crmagent daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
		logging.Int("clients", d.directory.Len()),
	)
	return nil
}

// Serve runs the API server until ctx is cancelled. Start must be called first.
func (d *Daemon) Serve(ctx context.Context) error {
	if !d.running.Load() {
		return errors.New("daemon not started")
	}
	return d.api.serve(ctx)
}

// Stop rejects new batches, waits for in-flight ones, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.runner.Close()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("crmagent daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon, including a runner that was
// used without Start.
func (d *Daemon) Close() error {
	d.Stop()
	d.runner.Close()
	return nil
}

// Handler exposes the API routes without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Addr is the bound API address, or nil before Start.
func (d *Daemon) Addr() net.Addr {
	if d.api.listener == nil {
		return nil
	}
	return d.api.listener.Addr()
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
		Sessions:     d.registry.Len(),
		Clients:      d.directory.Len(),
	}
}
