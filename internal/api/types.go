package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SubmitRequest starts a batch.
type SubmitRequest struct {
	ClientIDs []string `json:"clientIds"`
}

// SubmitResponse identifies the session created for a batch.
type SubmitResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// SessionStatus summarizes a session.
type SessionStatus struct {
	SessionID   string   `json:"sessionId"`
	Status      string   `json:"status"`
	ClientIDs   []string `json:"clientIds"`
	LogCount    int      `json:"logCount"`
	ResultCount int      `json:"resultCount"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	CompletedAt string   `json:"completedAt,omitempty"`
}

// SessionList is returned by the session index.
type SessionList struct {
	Sessions []SessionStatus `json:"sessions"`
}

// LogEntry is one pipeline log record.
type LogEntry struct {
	Stage     string         `json:"stage"`
	Timestamp string         `json:"timestamp"`
	Message   string         `json:"message"`
	ClientID  string         `json:"clientId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// LogsResponse is a page of entries starting at the requested position.
// Next is the position to request to continue.
type LogsResponse struct {
	SessionID string     `json:"sessionId"`
	Entries   []LogEntry `json:"entries"`
	Next      int        `json:"next"`
	Status    string     `json:"status"`
}

// Campaign describes the chosen artifact.
type Campaign struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
	CTA      string `json:"cta"`
	Channel  string `json:"channel"`
}

// SocialProfile carries the enrichment signals.
type SocialProfile struct {
	Channel          string   `json:"channel"`
	Interests        []string `json:"interests"`
	Tone             string   `json:"tone"`
	Activity         string   `json:"activity"`
	Engagement       float64  `json:"engagement"`
	PostingFrequency string   `json:"postingFrequency,omitempty"`
}

// Metrics are simulated performance estimates.
type Metrics struct {
	ClickThrough float64 `json:"clickThrough"`
	OpenRate     float64 `json:"openRate"`
}

// Result is one rendered campaign.
type Result struct {
	ClientID      string        `json:"clientId"`
	ClientName    string        `json:"clientName"`
	Category      string        `json:"category"`
	CategoryLabel string        `json:"categoryLabel"`
	Campaign      Campaign      `json:"campaign"`
	SocialProfile SocialProfile `json:"socialProfile"`
	Message       string        `json:"message"`
	HTML          string        `json:"html"`
	Metrics       Metrics       `json:"metrics"`
	CompletedAt   string        `json:"completedAt,omitempty"`
}

// ResultsResponse lists a session's results.
type ResultsResponse struct {
	SessionID string   `json:"sessionId"`
	Status    string   `json:"status"`
	Results   []Result `json:"results"`
}

// Client is a client directory record.
type Client struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	AverageSpend  float64 `json:"averageSpend"`
	Risk          string  `json:"risk"`
	SocialChannel string  `json:"socialChannel"`
}

// ClientsResponse lists the loaded client directory.
type ClientsResponse struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
}

// Health reports daemon readiness.
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
	PID      int    `json:"pid,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
