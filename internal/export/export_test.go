package export_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/catalog"
	"crmagent/internal/export"
	"crmagent/internal/render"
	"crmagent/internal/services"
)

func sampleResults(t *testing.T) []campaign.RenderedResult {
	t.Helper()
	stamp := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	build := func(id, name string, category campaign.Category, ctr, open float64) campaign.RenderedResult {
		in := render.Input{
			Client:   campaign.ClientRecord{ID: id, Name: name, Sector: "retail", AverageSpend: 100, Risk: campaign.RiskLow, SocialChannel: "instagram"},
			Category: category,
			Artifact: catalog.Select(category),
			Signals:  campaign.EnrichmentSignals{Interests: []string{"fashion"}, Tone: "visual", Activity: campaign.ActivityLow, EngagementRatio: 0.02},
		}
		payload := render.BuildPayload(in)
		payload.Timestamp = &stamp
		return campaign.RenderedResult{
			ClientID:   id,
			ClientName: name,
			Category:   category,
			Artifact:   in.Artifact,
			Payload:    payload,
			Metrics:    campaign.Metrics{ClickThrough: ctr, OpenRate: open},
		}
	}
	return []campaign.RenderedResult{
		build("C001", "Ana", campaign.CategoryPremiumHighEngagement, 0.15, 0.42),
		build("C002", "Luis, Jr.", campaign.CategoryHighRisk, 0.031, 0.12),
	}
}

func TestParseFormat(t *testing.T) {
	for _, tag := range []string{"json", "CSV", " html "} {
		if _, err := export.ParseFormat(tag); err != nil {
			t.Fatalf("ParseFormat(%q): %v", tag, err)
		}
	}
	if _, err := export.ParseFormat("xlsx"); !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if _, err := export.Render(export.Format("pdf"), nil); !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format from Render, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	results := sampleResults(t)
	data, err := export.Render(export.FormatJSON, results)
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}
	records, err := export.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(records) != len(results) {
		t.Fatalf("expected %d records, got %d", len(results), len(records))
	}
	for i, r := range records {
		want := results[i]
		if r.ClientID != want.ClientID || r.Category != want.Category || r.Campaign.ID != want.Artifact.ID {
			t.Fatalf("record %d mismatch: %+v", i, r)
		}
		if r.Metrics != want.Metrics {
			t.Fatalf("record %d metrics mismatch: %+v vs %+v", i, r.Metrics, want.Metrics)
		}
		if r.Timestamp == nil || !r.Timestamp.Equal(*want.Payload.Timestamp) {
			t.Fatalf("record %d timestamp mismatch: %v", i, r.Timestamp)
		}
	}
}

func TestJSONEmptyResults(t *testing.T) {
	data, err := export.Render(export.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty array, got %q", data)
	}
}

func TestValidateJSONRejectsBadDocument(t *testing.T) {
	bad := []byte(`[{"client_id":"C1","name":"x","category":"vip","campaign":{},"social_profile":{},"metrics":{"click_through":3,"open_rate":0.1},"timestamp":null}]`)
	err := export.ValidateJSON(bad)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "category") {
		t.Fatalf("expected category problem in %v", err)
	}
}

func TestCSVExport(t *testing.T) {
	data, err := export.Render(export.FormatCSV, sampleResults(t))
	if err != nil {
		t.Fatalf("Render csv: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "client_id,name,category,campaign_id,campaign_name,channel,cta,click_through,open_rate" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[2][1] != "Luis, Jr." || rows[2][2] != "high_risk" || rows[2][3] != "CAMP-004" {
		t.Fatalf("unexpected row: %v", rows[2])
	}
	if rows[2][7] != "0.031" || rows[1][8] != "0.420" {
		t.Fatalf("unexpected metric formatting: %v / %v", rows[1], rows[2])
	}
}

func TestHTMLExport(t *testing.T) {
	data, err := export.Render(export.FormatHTML, sampleResults(t))
	if err != nil {
		t.Fatalf("Render html: %v", err)
	}
	html := string(data)
	for _, want := range []string{"Premium High Engagement", "High Risk", "CAMP-001", "15.0%", "2 clients"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in html export", want)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	if export.FormatCSV.ContentType() != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", export.FormatCSV.ContentType())
	}
	if got := export.FormatJSON.Filename("session_x"); got != "campaigns_session_x.json" {
		t.Fatalf("unexpected filename %q", got)
	}
}
