package services_test

import (
	"context"
	"testing"

	"crmagent/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "session_abc")
	ctx = services.WithClientID(ctx, "C001")
	ctx = services.WithStage(ctx, "CLASSIFY")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "session_abc" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if id, ok := services.ClientIDFromContext(ctx); !ok || id != "C001" {
		t.Fatalf("unexpected client id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "CLASSIFY" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithClientID(ctx, "")
	if _, ok := services.ClientIDFromContext(ctx); ok {
		t.Fatal("expected no client value")
	}
}
