// Package daemonrun assembles and runs the crmagent daemon process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"crmagent/internal/clients"
	"crmagent/internal/config"
	"crmagent/internal/daemon"
	"crmagent/internal/logging"
	"crmagent/internal/notifications"
	"crmagent/internal/preflight"
	"crmagent/internal/session"
	"crmagent/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the crmagent daemon and blocks until SIGINT/SIGTERM or a fatal
// server error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("crmagent-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update crmagent.log link: %v\n", err)
	}

	if err := preflight.Failed(preflight.RunAll(signalCtx, cfg)); err != nil {
		logging.ErrorWithContext(logger, "preflight checks failed", "preflight_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths in the [paths] config section"),
		)
		return err
	}

	directory, err := clients.Load(signalCtx, cfg.Paths.ClientsPath)
	if err != nil {
		logger.Error("load client directory", logging.Error(err))
		return err
	}

	registry := session.NewRegistry()
	runner := workflow.NewRunner(registry, directory, nil, logger, workflow.WithNotifier(notifications.NewService(cfg)))
	sweeper, err := session.NewSweeper(registry, cfg.Retention(), cfg.Sessions.SweepSchedule, logger)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, registry, directory, runner, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logStartup(logger, cfg, directory.Len())

	g, gCtx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		return d.Serve(gCtx)
	})
	g.Go(func() error {
		return sweeper.Run(gCtx)
	})
	err = g.Wait()
	logger.Info("crmagent daemon shutting down")
	return err
}

func logStartup(logger *slog.Logger, cfg *config.Config, clientCount int) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("clients_path", cfg.Paths.ClientsPath),
		logging.Int("clients", clientCount),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.Duration("session_wait", cfg.SessionWait()),
		logging.Duration("max_stream_duration", cfg.MaxStreamDuration()),
		logging.Duration("retention", cfg.Retention()),
		logging.String("sweep_schedule", cfg.Sessions.SweepSchedule),
		logging.Bool("api_token_set", cfg.Paths.APIToken != ""),
		logging.Bool("notifications", cfg.Notifications.NtfyTopic != ""),
	)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "crmagent.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded by a running daemon.
func ReadPID(cfg *config.Config) (int, error) {
	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}
