package campaign

import "time"

// Stage names a pipeline step or a log sentinel.
type Stage string

const (
	StageIngest   Stage = "INGEST"
	StageEnrich   Stage = "ENRICH"
	StageClassify Stage = "CLASSIFY"
	StageDecide   Stage = "DECIDE"
	StageRender   Stage = "RENDER"
	StageFinish   Stage = "FINISH"
	StageError    Stage = "ERROR"

	// Markers emitted only by log followers, never stored in a session.
	StageConnected Stage = "CONNECTED"
	StageClosed    Stage = "CLOSED"
)

// PipelineStages lists the stages a successful run traverses, in order.
var PipelineStages = []Stage{StageIngest, StageEnrich, StageClassify, StageDecide, StageRender, StageFinish}

// LogEntry is one append-only audit record.
type LogEntry struct {
	Stage     Stage          `json:"stage"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	ClientID  string         `json:"client_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// IsError reports whether the entry records a failure.
func (e LogEntry) IsError() bool {
	return e.Stage == StageError
}

// NewEntry builds an entry stamped with the current time.
func NewEntry(stage Stage, clientID, message string, data map[string]any) LogEntry {
	return LogEntry{Stage: stage, Timestamp: time.Now().UTC(), Message: message, ClientID: clientID, Data: data}
}
