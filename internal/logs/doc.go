// Package logs is the HTTP client for a running crmagent daemon.
//
// Client wraps the session, result, export, and directory endpoints and
// doubles as a logstream.Source, so `crmagent logs --follow` runs the same
// follow loop against the daemon that the SSE endpoint runs in-process.
// Connection failures are reported as ErrAPIUnavailable so the CLI can print
// a "daemon not running" hint instead of a raw dial error.
package logs
