// Package logstream follows a session log and emits new entries in order.
//
// Follow polls a Source, tracks the last seen position, and hands only the
// unseen suffix to the caller. It brackets the stream with CONNECTED and
// CLOSED markers, tolerates a session that does not exist yet for a bounded
// wait, and gives up after a maximum duration. Following never affects the
// batch being observed.
package logstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/session"
)

var (
	// ErrSessionNotFound is returned after the session wait elapses.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDurationExceeded is returned when MaxDuration elapses before completion.
	ErrDurationExceeded = errors.New("stream duration exceeded")
)

const (
	defaultPollInterval = time.Second
	defaultSessionWait  = 10 * time.Second
	defaultMaxDuration  = 5 * time.Minute
)

// Page is one read of a session log.
type Page struct {
	Entries   []campaign.LogEntry
	Next      int
	Completed bool
}

// Source reads a session log from position offset onward. found is false
// while the session does not exist.
type Source interface {
	LogSince(ctx context.Context, sessionID string, offset int) (page Page, found bool, err error)
}

// Options controls stream timing. Zero values fall back to 1s poll, 10s
// session wait, and 5m maximum duration.
type Options struct {
	PollInterval time.Duration
	SessionWait  time.Duration
	MaxDuration  time.Duration
	// Offset skips entries the caller already has.
	Offset int
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.SessionWait <= 0 {
		o.SessionWait = defaultSessionWait
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = defaultMaxDuration
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Follow streams sessionID to emit until the session completes, the wait or
// duration bound elapses, ctx ends, or emit returns an error.
func Follow(ctx context.Context, src Source, sessionID string, opts Options, emit func(campaign.LogEntry) error) error {
	if src == nil {
		return errors.New("log source is required")
	}
	opts = opts.withDefaults()
	start := time.Now()
	offset := opts.Offset

	if err := emit(marker(campaign.StageConnected, fmt.Sprintf("Connected to session %s", sessionID))); err != nil {
		return err
	}

	for {
		page, found, err := src.LogSince(ctx, sessionID, offset)
		if err != nil {
			return fmt.Errorf("read session log: %w", err)
		}

		elapsed := time.Since(start)
		if !found {
			if elapsed >= opts.SessionWait {
				if err := emit(marker(campaign.StageError, ErrSessionNotFound.Error())); err != nil {
					return err
				}
				return ErrSessionNotFound
			}
		} else {
			for _, entry := range page.Entries {
				if err := emit(entry); err != nil {
					return err
				}
			}
			if page.Next > offset {
				offset = page.Next
			}
			if page.Completed {
				return emit(marker(campaign.StageClosed, "Stream closed"))
			}
		}

		if elapsed >= opts.MaxDuration {
			if err := emit(marker(campaign.StageError, ErrDurationExceeded.Error())); err != nil {
				return err
			}
			return ErrDurationExceeded
		}

		timer := time.NewTimer(opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func marker(stage campaign.Stage, message string) campaign.LogEntry {
	return campaign.LogEntry{Stage: stage, Timestamp: time.Now().UTC(), Message: message}
}

type registrySource struct {
	registry *session.Registry
}

// RegistrySource reads directly from an in-process registry.
func RegistrySource(registry *session.Registry) Source {
	return registrySource{registry: registry}
}

func (s registrySource) LogSince(_ context.Context, sessionID string, offset int) (Page, bool, error) {
	entries, snap, ok := s.registry.LogSince(sessionID, offset)
	if !ok {
		return Page{}, false, nil
	}
	return Page{Entries: entries, Next: snap.LogLength, Completed: snap.Completed()}, true, nil
}
