package main

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"crmagent/internal/config"
	"crmagent/internal/daemon"
	"crmagent/internal/export"
	"crmagent/internal/logging"
	"crmagent/internal/session"
	"crmagent/internal/testsupport"
	"crmagent/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	runner     *workflow.Runner
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, key := range []string{config.EnvAPIBind, config.EnvAPIToken, config.EnvClientsPath, config.EnvLogLevel} {
		t.Setenv(key, "")
	}

	cfg := testsupport.NewConfig(t, testsupport.WithClientsCSV())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	registry := session.NewRegistry()
	directory := testsupport.MustLoadDirectory(t, cfg.Paths.ClientsPath)
	runner := workflow.NewRunner(registry, directory, nil, logging.NewNop())
	d, err := daemon.New(cfg, registry, directory, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	cfg.Paths.APIBind = srv.Listener.Addr().String()

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	t.Cleanup(func() {
		srv.Close()
		_ = d.Close()
	})

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, runner: runner}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
		}
	}
}

func sessionIDFrom(t *testing.T, out string) string {
	t.Helper()
	first, _, _ := strings.Cut(out, "\n")
	rest, ok := strings.CutPrefix(first, "Session ")
	if !ok {
		t.Fatalf("unexpected submit output %q", out)
	}
	id, _, _ := strings.Cut(rest, ":")
	return id
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid", env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "clients_path", env.cfg.Paths.ClientsPath)
}

func TestClientsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "clients")
	if err != nil {
		t.Fatalf("clients: %v", err)
	}
	requireContains(t, out, "C001", "Ana Torres", "C004", "4 client(s)")

	dbPath := filepath.Join(t.TempDir(), "clients.db")
	out, _, err = runCLI(t, env.configPath, "clients", "import", env.cfg.Paths.ClientsPath, dbPath)
	if err != nil {
		t.Fatalf("clients import: %v", err)
	}
	requireContains(t, out, "Imported 4 client(s)")
	dir := testsupport.MustLoadDirectory(t, dbPath)
	if dir.Len() != 4 {
		t.Fatalf("expected 4 imported clients, got %d", dir.Len())
	}
	if _, ok := dir.Lookup("C003"); !ok {
		t.Fatal("expected C003 in imported database")
	}
}

func TestRunCommandPrintsLogAndExports(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "out", "campaigns.csv")

	out, _, err := runCLI(t, env.configPath, "run", "C001", "NOPE", "--export", "csv", "-o", target)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "CONNECTED", "INGEST", "[C001]", "FINISH", "client NOPE not found", "CLOSED", "1 result(s)", "Exported 1 result(s)")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), strings.Join(export.CSVHeader, ",")+"\n") {
		t.Fatalf("unexpected csv export %q", data)
	}
}

func TestRunCommandRejectsUnknownFormatBeforeProcessing(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "run", "C001", "--export", "pdf")
	if err == nil {
		t.Fatal("expected error for unsupported export format")
	}
	if strings.Contains(out, "INGEST") {
		t.Fatalf("batch must not run when the format is invalid, got %q", out)
	}
}

func TestSubmitFollowResultsAndExport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "submit", "C002", "--follow")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Processing 1 client(s)", "CLASSIFY", "FINISH", "CLOSED")
	id := sessionIDFrom(t, out)

	out, _, err = runCLI(t, env.configPath, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, id, "completed")

	out, _, err = runCLI(t, env.configPath, "results", id, "--messages")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "C002", "High Risk", "CAMP-004", "Hello Luis Perez")

	out, _, err = runCLI(t, env.configPath, "logs", id, "--since", "5")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "FINISH")
	if strings.Contains(out, "INGEST") {
		t.Fatalf("expected --since to skip early entries, got %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "export", id, "json", "-o", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := export.ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("parse exported json: %v", err)
	}
	if len(records) != 1 || records[0].ClientID != "C002" {
		t.Fatalf("unexpected exported records %+v", records)
	}
}

func TestCommandsReportUnavailableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	_, _, err = runCLI(t, env.configPath, "--api", addr, "sessions")
	if err == nil || !strings.Contains(err.Error(), "crmagent serve") {
		t.Fatalf("expected daemon hint, got %v", err)
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "State directory:", "Client list:", "Daemon API:", "[OK]", "4 client(s)")
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "not configured")

	var titles []string
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	env.cfg.Notifications.NtfyTopic = ntfy.URL + "/crmagent"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err = runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if len(titles) != 1 || titles[0] != "crmagent - Test" {
		t.Fatalf("unexpected ntfy requests: %v", titles)
	}
}
