package api

import (
	"encoding/json"
	"testing"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/session"
)

func TestFromSnapshot(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 6000000, time.UTC)
	dto := FromSnapshot(session.Snapshot{
		ID:          "session_abc_1",
		Status:      session.StatusRunning,
		LogLength:   4,
		ResultCount: 1,
		CreatedAt:   created,
	})
	if dto.SessionID != "session_abc_1" || dto.Status != "running" || dto.LogCount != 4 || dto.ResultCount != 1 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.CreatedAt != "2026-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected created at: %q", dto.CreatedAt)
	}
	if dto.CompletedAt != "" {
		t.Fatalf("expected empty completed at, got %q", dto.CompletedAt)
	}
	if dto.ClientIDs == nil {
		t.Fatal("expected non-nil client ids")
	}
}

func TestLogEntryRoundTrip(t *testing.T) {
	entry := campaign.LogEntry{
		Stage:     campaign.StageClassify,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 123000000, time.UTC),
		Message:   "Segment assigned: high_risk",
		ClientID:  "C002",
		Data:      map[string]any{"category": "high_risk"},
	}
	dto := FromLogEntry(entry)
	data, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded LogEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back := ToLogEntry(decoded)
	if back.Stage != entry.Stage || back.Message != entry.Message || back.ClientID != entry.ClientID {
		t.Fatalf("unexpected round trip: %+v", back)
	}
	if !back.Timestamp.Equal(entry.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", back.Timestamp, entry.Timestamp)
	}
	if back.Data["category"] != "high_risk" {
		t.Fatalf("data lost: %v", back.Data)
	}
}

func TestFromResult(t *testing.T) {
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dto := FromResult(campaign.RenderedResult{
		ClientID:   "C001",
		ClientName: "Ana",
		Category:   campaign.CategoryPremiumHighEngagement,
		Artifact:   campaign.Artifact{ID: "CAMP-001", Name: "Premium Exclusivity", Channel: "email"},
		Signals:    campaign.EnrichmentSignals{Tone: "visual", Activity: campaign.ActivityHigh, EngagementRatio: 0.1},
		Payload:    campaign.Payload{Timestamp: &stamp, SocialProfile: campaign.SocialProfile{Channel: "instagram"}},
		Metrics:    campaign.Metrics{ClickThrough: 0.15, OpenRate: 0.4},
	})
	if dto.CategoryLabel != "Premium High Engagement" {
		t.Fatalf("unexpected label: %q", dto.CategoryLabel)
	}
	if dto.Campaign.ID != "CAMP-001" || dto.SocialProfile.Channel != "instagram" || dto.SocialProfile.Activity != "high" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.SocialProfile.Interests == nil {
		t.Fatal("expected non-nil interests")
	}
	if dto.CompletedAt != "2026-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected completed at: %q", dto.CompletedAt)
	}
}

func TestFromClientsNeverNil(t *testing.T) {
	if got := FromClients(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
	got := FromClients([]campaign.ClientRecord{{ID: "C1", Name: "Ana", Risk: campaign.RiskMedium}})
	if got[0].Risk != "medium" {
		t.Fatalf("unexpected risk: %q", got[0].Risk)
	}
}
