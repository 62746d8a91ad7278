// Package logging assembles structured slog loggers and formatting helpers used
// across crmagent services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can automatically
// tag log lines with session IDs, client IDs, and stages. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// These operator logs are separate from the per-session audit trail kept by the
// session registry; stages write to both.
package logging
