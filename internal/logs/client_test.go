package logs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crmagent/internal/api"
	"crmagent/internal/campaign"
	"crmagent/internal/logs"
	"crmagent/internal/logstream"
)

func TestNewClientRejectsEmptyBind(t *testing.T) {
	if _, err := logs.NewClient("  "); err == nil {
		t.Fatal("expected error for empty bind")
	}
}

func TestClientSubmitSendsClientIDs(t *testing.T) {
	var got api.SubmitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.SubmitResponse{SessionID: "session_x_1", Message: "started"})
	}))
	defer srv.Close()

	client, err := logs.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.Submit(context.Background(), []string{"C001", "C002"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.SessionID != "session_x_1" {
		t.Fatalf("unexpected session id %q", resp.SessionID)
	}
	if len(got.ClientIDs) != 2 || got.ClientIDs[1] != "C002" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestClientLogSinceMapsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/s1/logs" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "session not found"})
			return
		}
		if r.URL.Query().Get("since") != "2" {
			t.Errorf("expected since=2, got %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(api.LogsResponse{
			SessionID: "s1",
			Entries:   []api.LogEntry{{Stage: "FINISH", Message: "done", ClientID: "C001"}},
			Next:      3,
			Status:    "completed",
		})
	}))
	defer srv.Close()

	client, err := logs.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	page, found, err := client.LogSince(context.Background(), "s1", 2)
	if err != nil || !found {
		t.Fatalf("LogSince: found=%v err=%v", found, err)
	}
	if page.Next != 3 || !page.Completed || len(page.Entries) != 1 || page.Entries[0].Stage != campaign.StageFinish {
		t.Fatalf("unexpected page %+v", page)
	}

	_, found, err = client.LogSince(context.Background(), "missing", 0)
	if err != nil {
		t.Fatalf("expected nil error for missing session, got %v", err)
	}
	if found {
		t.Fatal("expected found=false for missing session")
	}
}

func TestClientStatusErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unsupported format: pdf", Kind: "unsupported_format"})
	}))
	defer srv.Close()

	client, _ := logs.NewClient(srv.URL)
	_, err := client.Export(context.Background(), "s1", "pdf")
	var statusErr *logs.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest || statusErr.Kind != "unsupported_format" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if logs.IsNotFound(err) {
		t.Fatal("400 must not be reported as not found")
	}
}

func TestClientUnavailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	client, _ := logs.NewClient(addr)
	_, err = client.Health(context.Background())
	if !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected API unavailable, got %v", err)
	}
}

func TestClientFollowThroughLogstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := api.LogsResponse{SessionID: "s1", Status: "running", Entries: []api.LogEntry{}, Next: 1}
		if r.URL.Query().Get("since") == "" {
			resp.Entries = []api.LogEntry{{Stage: "INGEST", Message: "Client received"}}
		} else {
			resp.Status = "completed"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, _ := logs.NewClient(srv.URL)
	var stages []campaign.Stage
	err := logstream.Follow(context.Background(), client, "s1", logstream.Options{PollInterval: 5 * time.Millisecond}, func(e campaign.LogEntry) error {
		stages = append(stages, e.Stage)
		return nil
	})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	want := []campaign.Stage{campaign.StageConnected, campaign.StageIngest, campaign.StageClosed}
	if len(stages) != len(want) {
		t.Fatalf("unexpected stages %v", stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(api.Health{Status: "ok"})
	}))
	defer srv.Close()

	client, _ := logs.NewClient(srv.URL, logs.WithToken(" tok "))
	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
}
