// Package api defines wire-format types and converters for the HTTP API. It
// translates sessions, log entries, results, and client records into
// transport-friendly DTOs that the CLI and other consumers can render
// without coupling to internal types.
//
// # Key Types
//
// SubmitRequest/SubmitResponse: batch submission.
//
// SessionStatus: snapshot of a session's progress.
//
// LogEntry/LogsResponse: ordered log pages with a resume position.
//
// Result/ResultsResponse: rendered campaign results.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (stage, category, status) are exposed as strings. Timestamps use
// RFC3339 with milliseconds.
package api
