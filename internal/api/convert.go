package api

import (
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/session"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// FromSnapshot converts a registry snapshot.
func FromSnapshot(snap session.Snapshot) SessionStatus {
	ids := snap.ClientIDs
	if ids == nil {
		ids = []string{}
	}
	return SessionStatus{
		SessionID:   snap.ID,
		Status:      string(snap.Status),
		ClientIDs:   ids,
		LogCount:    snap.LogLength,
		ResultCount: snap.ResultCount,
		CreatedAt:   formatTime(snap.CreatedAt),
		CompletedAt: formatTime(snap.CompletedAt),
	}
}

// FromSnapshots converts a list of snapshots.
func FromSnapshots(snaps []session.Snapshot) []SessionStatus {
	out := make([]SessionStatus, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, FromSnapshot(s))
	}
	return out
}

// FromLogEntry converts a log entry.
func FromLogEntry(entry campaign.LogEntry) LogEntry {
	return LogEntry{
		Stage:     string(entry.Stage),
		Timestamp: formatTime(entry.Timestamp),
		Message:   entry.Message,
		ClientID:  entry.ClientID,
		Data:      entry.Data,
	}
}

// FromLogEntries converts entries, never returning nil.
func FromLogEntries(entries []campaign.LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromLogEntry(e))
	}
	return out
}

// ToLogEntry converts a DTO back to the internal entry.
func ToLogEntry(dto LogEntry) campaign.LogEntry {
	return campaign.LogEntry{
		Stage:     campaign.Stage(dto.Stage),
		Timestamp: parseTime(dto.Timestamp),
		Message:   dto.Message,
		ClientID:  dto.ClientID,
		Data:      dto.Data,
	}
}

// FromResult converts a rendered result.
func FromResult(r campaign.RenderedResult) Result {
	dto := Result{
		ClientID:      r.ClientID,
		ClientName:    r.ClientName,
		Category:      string(r.Category),
		CategoryLabel: r.Category.Label(),
		Campaign: Campaign{
			ID:       r.Artifact.ID,
			Name:     r.Artifact.Name,
			Template: r.Artifact.Template,
			CTA:      r.Artifact.CTA,
			Channel:  r.Artifact.Channel,
		},
		SocialProfile: SocialProfile{
			Channel:          r.Payload.SocialProfile.Channel,
			Interests:        r.Signals.Interests,
			Tone:             r.Signals.Tone,
			Activity:         string(r.Signals.Activity),
			Engagement:       r.Signals.EngagementRatio,
			PostingFrequency: r.Signals.PostingFrequency,
		},
		Message: r.Message,
		HTML:    r.HTML,
		Metrics: Metrics{ClickThrough: r.Metrics.ClickThrough, OpenRate: r.Metrics.OpenRate},
	}
	if dto.SocialProfile.Interests == nil {
		dto.SocialProfile.Interests = []string{}
	}
	if r.Payload.Timestamp != nil {
		dto.CompletedAt = formatTime(*r.Payload.Timestamp)
	}
	return dto
}

// FromResults converts results, never returning nil.
func FromResults(results []campaign.RenderedResult) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, FromResult(r))
	}
	return out
}

// FromClient converts a client record.
func FromClient(c campaign.ClientRecord) Client {
	return Client{
		ID:            c.ID,
		Name:          c.Name,
		Sector:        c.Sector,
		AverageSpend:  c.AverageSpend,
		Risk:          string(c.Risk),
		SocialChannel: c.SocialChannel,
	}
}

// FromClients converts client records, never returning nil.
func FromClients(records []campaign.ClientRecord) []Client {
	out := make([]Client, 0, len(records))
	for _, c := range records {
		out = append(out, FromClient(c))
	}
	return out
}
