package logstream_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crmagent/internal/campaign"
	"crmagent/internal/logstream"
	"crmagent/internal/session"
)

type collector struct {
	mu      sync.Mutex
	entries []campaign.LogEntry
}

func (c *collector) emit(e campaign.LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *collector) stages() []campaign.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]campaign.Stage, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Stage)
	}
	return out
}

func fastOptions() logstream.Options {
	return logstream.Options{PollInterval: 5 * time.Millisecond, SessionWait: 50 * time.Millisecond, MaxDuration: 5 * time.Second}
}

func TestFollowEmitsSuffixThenClosed(t *testing.T) {
	reg := session.NewRegistry()
	id := reg.Create([]string{"C1"})
	reg.AppendLog(id, campaign.NewEntry(campaign.StageIngest, "C1", "one", nil))

	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.AppendLog(id, campaign.NewEntry(campaign.StageEnrich, "C1", "two", nil))
		time.Sleep(20 * time.Millisecond)
		reg.AppendLog(id, campaign.NewEntry(campaign.StageFinish, "C1", "three", nil))
		reg.Complete(id)
	}()

	c := &collector{}
	if err := logstream.Follow(context.Background(), logstream.RegistrySource(reg), id, fastOptions(), c.emit); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	got := c.stages()
	want := []campaign.Stage{campaign.StageConnected, campaign.StageIngest, campaign.StageEnrich, campaign.StageFinish, campaign.StageClosed}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestFollowWaitsForLateSession(t *testing.T) {
	reg := session.NewRegistry()
	// Session ids are random, so the follower waits on an id the registry reports later.
	idCh := make(chan string, 1)
	src := &lateSource{reg: reg, ready: idCh}

	go func() {
		time.Sleep(20 * time.Millisecond)
		id := reg.Create(nil)
		reg.AppendLog(id, campaign.NewEntry(campaign.StageError, "", "no client ids supplied", nil))
		reg.Complete(id)
		idCh <- id
	}()

	c := &collector{}
	opts := fastOptions()
	opts.SessionWait = 2 * time.Second
	if err := logstream.Follow(context.Background(), src, "pending", opts, c.emit); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	got := c.stages()
	if len(got) != 3 || got[1] != campaign.StageError || got[2] != campaign.StageClosed {
		t.Fatalf("unexpected stages: %v", got)
	}
}

type lateSource struct {
	reg   *session.Registry
	ready chan string
	id    string
}

func (s *lateSource) LogSince(ctx context.Context, _ string, offset int) (logstream.Page, bool, error) {
	if s.id == "" {
		select {
		case s.id = <-s.ready:
		default:
			return logstream.Page{}, false, nil
		}
	}
	return logstream.RegistrySource(s.reg).LogSince(ctx, s.id, offset)
}

func TestFollowSessionNotFound(t *testing.T) {
	c := &collector{}
	err := logstream.Follow(context.Background(), logstream.RegistrySource(session.NewRegistry()), "session_missing", fastOptions(), c.emit)
	if !errors.Is(err, logstream.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	got := c.stages()
	if len(got) != 2 || got[0] != campaign.StageConnected || got[1] != campaign.StageError {
		t.Fatalf("unexpected stages: %v", got)
	}
	if c.entries[1].Message != "session not found" {
		t.Fatalf("unexpected marker message: %q", c.entries[1].Message)
	}
}

func TestFollowMaxDuration(t *testing.T) {
	reg := session.NewRegistry()
	id := reg.Create(nil)

	c := &collector{}
	opts := fastOptions()
	opts.MaxDuration = 30 * time.Millisecond
	err := logstream.Follow(context.Background(), logstream.RegistrySource(reg), id, opts, c.emit)
	if !errors.Is(err, logstream.ErrDurationExceeded) {
		t.Fatalf("expected ErrDurationExceeded, got %v", err)
	}
	got := c.stages()
	if got[len(got)-1] != campaign.StageError {
		t.Fatalf("expected trailing error marker, got %v", got)
	}
	if snap, _ := reg.Get(id); snap.Completed() {
		t.Fatal("stream timeout must not complete the session")
	}
}

func TestFollowHonoursOffset(t *testing.T) {
	reg := session.NewRegistry()
	id := reg.Create(nil)
	for _, msg := range []string{"a", "b", "c"} {
		reg.AppendLog(id, campaign.NewEntry(campaign.StageIngest, "", msg, nil))
	}
	reg.Complete(id)

	c := &collector{}
	opts := fastOptions()
	opts.Offset = 2
	if err := logstream.Follow(context.Background(), logstream.RegistrySource(reg), id, opts, c.emit); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(c.entries) != 3 || c.entries[1].Message != "c" {
		t.Fatalf("unexpected entries: %+v", c.entries)
	}
}

func TestFollowStopsOnContextCancel(t *testing.T) {
	reg := session.NewRegistry()
	id := reg.Create(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := logstream.Follow(ctx, logstream.RegistrySource(reg), id, fastOptions(), (&collector{}).emit)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFollowStopsWhenEmitFails(t *testing.T) {
	reg := session.NewRegistry()
	id := reg.Create(nil)
	boom := errors.New("client went away")
	err := logstream.Follow(context.Background(), logstream.RegistrySource(reg), id, fastOptions(), func(campaign.LogEntry) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected emit error, got %v", err)
	}
}
