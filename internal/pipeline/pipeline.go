package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/catalog"
	"crmagent/internal/enrichment"
	"crmagent/internal/logging"
	"crmagent/internal/render"
	"crmagent/internal/segment"
	"crmagent/internal/services"
)

// Sink receives log entries in append order.
type Sink interface {
	Append(entry campaign.LogEntry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(entry campaign.LogEntry)

func (f SinkFunc) Append(entry campaign.LogEntry) { f(entry) }

// Enricher produces enrichment signals.
type Enricher interface {
	Generate(client campaign.ClientRecord) campaign.EnrichmentSignals
}

// Renderer produces the final result.
type Renderer interface {
	Render(in render.Input) (*campaign.RenderedResult, error)
}

// Options wires the leaf components. Nil fields get the production defaults.
type Options struct {
	Enricher Enricher
	Classify func(campaign.ClientRecord, campaign.EnrichmentSignals) campaign.Category
	Select   func(campaign.Category) campaign.Artifact
	Renderer Renderer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline is safe for concurrent use when its components are.
type Pipeline struct {
	enricher Enricher
	classify func(campaign.ClientRecord, campaign.EnrichmentSignals) campaign.Category
	selector func(campaign.Category) campaign.Artifact
	renderer Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		enricher: opts.Enricher,
		classify: opts.Classify,
		selector: opts.Select,
		renderer: opts.Renderer,
		logger:   logging.NewComponentLogger(opts.Logger, "pipeline"),
		now:      opts.Now,
	}
	if p.enricher == nil {
		p.enricher = enrichment.New(nil)
	}
	if p.classify == nil {
		p.classify = segment.Classify
	}
	if p.selector == nil {
		p.selector = catalog.Select
	}
	if p.renderer == nil {
		p.renderer = render.New(nil)
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	return p
}

// run holds the per-client state threaded through the stages.
type run struct {
	client   campaign.ClientRecord
	signals  campaign.EnrichmentSignals
	category campaign.Category
	artifact campaign.Artifact
	result   *campaign.RenderedResult
}

// stageFunc performs one stage and returns the entry describing it.
type stageFunc func(r *run) (message string, data map[string]any, err error)

// Run drives client through every stage. It returns the result on success or
// a *FailedError after appending a single ERROR entry.
func (p *Pipeline) Run(ctx context.Context, client *campaign.ClientRecord, sink Sink) (*campaign.RenderedResult, error) {
	if sink == nil {
		sink = SinkFunc(func(campaign.LogEntry) {})
	}
	clientID := ""
	if client != nil {
		clientID = client.ID
		ctx = services.WithClientID(ctx, clientID)
	}

	stages := []struct {
		name campaign.Stage
		fn   stageFunc
	}{
		{campaign.StageIngest, func(r *run) (string, map[string]any, error) { return p.ingest(client, r) }},
		{campaign.StageEnrich, p.enrich},
		{campaign.StageClassify, p.classifyStage},
		{campaign.StageDecide, p.decide},
		{campaign.StageRender, p.renderStage},
		{campaign.StageFinish, p.finish},
	}

	state := &run{}
	for _, st := range stages {
		stageCtx := services.WithStage(ctx, string(st.name))
		logger := logging.WithContext(stageCtx, p.logger)

		message, data, err := p.invoke(st.name, st.fn, state)
		if err != nil {
			return nil, p.fail(logger, sink, st.name, clientID, err)
		}
		sink.Append(campaign.LogEntry{Stage: st.name, Timestamp: p.now(), Message: message, ClientID: clientID, Data: data})
		logger.Debug("stage completed", logging.String(logging.FieldEventType, "stage_complete"), logging.String("detail", message))
	}

	logging.WithContext(ctx, p.logger).Info(
		"client processed",
		logging.String(logging.FieldEventType, "client_complete"),
		logging.String("category", string(state.result.Category)),
		logging.String("campaign_id", state.result.Artifact.ID),
	)
	return state.result, nil
}

// invoke runs fn, converting a panic into a stage fault.
func (p *Pipeline) invoke(stage campaign.Stage, fn stageFunc, r *run) (message string, data map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = services.Wrap(services.ErrStageFault, string(stage), "run stage", fmt.Sprintf("panic: %v", rec), nil)
		}
	}()
	return fn(r)
}

func (p *Pipeline) fail(logger *slog.Logger, sink Sink, stage campaign.Stage, clientID string, err error) error {
	reason := strings.TrimSpace(services.Details(err).Message)
	if reason == "" {
		reason = err.Error()
	}
	sink.Append(campaign.LogEntry{
		Stage:     campaign.StageError,
		Timestamp: p.now(),
		Message:   fmt.Sprintf("%s failed: %s", stage, reason),
		ClientID:  clientID,
		Data:      map[string]any{"failed_stage": string(stage)},
	})
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String(logging.FieldErrorHint, "inspect the client record and session log"),
		logging.String("error_message", reason),
		logging.Error(err),
	)
	return &FailedError{Stage: stage, ClientID: clientID, Reason: reason, Err: err}
}

func (p *Pipeline) ingest(client *campaign.ClientRecord, r *run) (string, map[string]any, error) {
	if err := client.Validate(); err != nil {
		return "", nil, services.Wrap(services.ErrValidation, string(campaign.StageIngest), "validate client", "invalid client record", err)
	}
	r.client = *client
	return fmt.Sprintf("Processing client %s (%s)", client.ID, client.Name),
		map[string]any{"name": client.Name, "sector": client.Sector},
		nil
}

func (p *Pipeline) enrich(r *run) (string, map[string]any, error) {
	r.signals = p.enricher.Generate(r.client)
	return fmt.Sprintf("Profile generated: %s activity, %s tone", r.signals.Activity, r.signals.Tone),
		map[string]any{
			"interests":         r.signals.Interests,
			"tone":              r.signals.Tone,
			"activity":          string(r.signals.Activity),
			"engagement_ratio":  r.signals.EngagementRatio,
			"posting_frequency": r.signals.PostingFrequency,
		},
		nil
}

func (p *Pipeline) classifyStage(r *run) (string, map[string]any, error) {
	r.category = p.classify(r.client, r.signals)
	return fmt.Sprintf("Segment assigned: %s", r.category),
		map[string]any{"category": string(r.category)},
		nil
}

func (p *Pipeline) decide(r *run) (string, map[string]any, error) {
	r.artifact = p.selector(r.category)
	if r.artifact.ID == "" {
		r.artifact = catalog.Select(campaign.CategoryBasicGrowthPotential)
	}
	return fmt.Sprintf("Campaign selected: %s (%s)", r.artifact.Name, r.artifact.ID),
		map[string]any{"campaign_id": r.artifact.ID, "channel": r.artifact.Channel},
		nil
}

func (p *Pipeline) renderStage(r *run) (string, map[string]any, error) {
	result, err := p.renderer.Render(render.Input{Client: r.client, Category: r.category, Artifact: r.artifact, Signals: r.signals})
	if err != nil {
		return "", nil, services.Wrap(services.ErrStageFault, string(campaign.StageRender), "render campaign", "render failed", err)
	}
	if result == nil {
		return "", nil, services.Wrap(services.ErrStageFault, string(campaign.StageRender), "render campaign", "renderer returned no result", nil)
	}
	r.result = result
	return fmt.Sprintf("Rendered %s campaign for %s", r.artifact.Channel, r.client.Name),
		map[string]any{"template": r.artifact.Template, "html_bytes": len(result.HTML)},
		nil
}

func (p *Pipeline) finish(r *run) (string, map[string]any, error) {
	stamp := p.now()
	r.result.Payload.Timestamp = &stamp
	return fmt.Sprintf("Client %s processed successfully", r.client.ID),
		map[string]any{"click_through": r.result.Metrics.ClickThrough, "open_rate": r.result.Metrics.OpenRate},
		nil
}
