package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/logging"
	"crmagent/internal/notifications"
	"crmagent/internal/pipeline"
	"crmagent/internal/services"
	"crmagent/internal/session"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("workflow runner closed")

// Directory resolves client ids to records.
type Directory interface {
	Lookup(id string) (campaign.ClientRecord, bool)
}

// Processor runs one client through the pipeline.
type Processor interface {
	Run(ctx context.Context, client *campaign.ClientRecord, sink pipeline.Sink) (*campaign.RenderedResult, error)
}

// Runner owns the batch goroutines.
type Runner struct {
	registry  *session.Registry
	directory Directory
	processor Processor
	logger    *slog.Logger
	notifier  notifications.Service

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithNotifier sends a summary to svc after every non-empty batch.
func WithNotifier(svc notifications.Service) RunnerOption {
	return func(r *Runner) {
		if svc != nil {
			r.notifier = svc
		}
	}
}

// NewRunner wires a Runner. processor defaults to a production pipeline.
func NewRunner(registry *session.Registry, directory Directory, processor Processor, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if processor == nil {
		processor = pipeline.New(pipeline.Options{Logger: logger})
	}
	r := &Runner{
		registry:  registry,
		directory: directory,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		notifier:  notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit creates a session for clientIDs and starts processing it. The
// returned id is valid even when the batch is empty or every id is unknown;
// such problems surface only in the session log.
func (r *Runner) Submit(ctx context.Context, clientIDs []string) (string, error) {
	if r.registry == nil {
		return "", services.Wrap(services.ErrConfiguration, "", "submit batch", "session registry unavailable", nil)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	id := r.registry.Create(clientIDs)
	batchCtx := services.WithSessionID(context.WithoutCancel(ctx), id)
	ids := append([]string(nil), clientIDs...)

	logging.WithContext(batchCtx, r.logger).Info("batch accepted",
		logging.String(logging.FieldEventType, "batch_submitted"),
		logging.Int("clients", len(ids)),
	)

	go func() {
		defer r.wg.Done()
		r.process(batchCtx, id, ids)
	}()
	return id, nil
}

// Wait blocks until every submitted batch has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close rejects further submissions and waits for in-flight batches.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) process(ctx context.Context, id string, clientIDs []string) {
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	// Backstop for panics and the empty batch; Complete is idempotent.
	defer r.registry.Complete(id)
	defer func() {
		if rec := recover(); rec != nil {
			r.registry.AppendLog(id, campaign.NewEntry(campaign.StageError, "", fmt.Sprintf("batch aborted: %v", rec), nil))
			logging.ErrorWithContext(logger, "batch panicked", "batch_panic", logging.Any("panic", rec))
		}
	}()

	if len(clientIDs) == 0 {
		r.registry.AppendLog(id, campaign.NewEntry(campaign.StageError, "", "no client ids supplied", nil))
		logging.WarnWithContext(logger, "empty batch", "batch_empty",
			logging.String(logging.FieldImpact, "session completed without work"),
		)
		return
	}

	sink := pipeline.SinkFunc(func(entry campaign.LogEntry) { r.registry.AppendLog(id, entry) })
	succeeded, failed := 0, 0
	for _, clientID := range clientIDs {
		client, ok := r.lookup(clientID)
		if !ok {
			failed++
			r.registry.AppendLog(id, campaign.NewEntry(campaign.StageError, clientID, fmt.Sprintf("client %s not found", clientID), nil))
			logging.WarnWithContext(logger, "client not found", "client_missing",
				logging.String(logging.FieldClientID, clientID),
				logging.String(logging.FieldImpact, "client skipped"),
			)
			continue
		}
		result, err := r.processor.Run(ctx, &client, sink)
		if err != nil {
			failed++
			continue
		}
		succeeded++
		r.registry.AppendResult(id, *result)
	}

	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
	)
	r.registry.Complete(id)

	summary := notifications.BatchSummary{
		SessionID: id,
		Requested: len(clientIDs),
		Succeeded: succeeded,
		Failed:    failed,
		Duration:  time.Since(started),
	}
	if err := r.notifier.NotifyBatchCompleted(ctx, summary); err != nil {
		logging.WarnWithContext(logger, "batch notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no completion notice sent"),
		)
	}
}

func (r *Runner) lookup(id string) (campaign.ClientRecord, bool) {
	if r.directory == nil {
		return campaign.ClientRecord{}, false
	}
	return r.directory.Lookup(id)
}
