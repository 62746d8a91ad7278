// Package daemon coordinates the long-running crmagent process.
//
// It wires configuration, the session registry, the client directory, and the
// batch runner into a single lifecycle with flock-based locking to prevent
// multiple instances, and serves the HTTP API that the CLI and browsers use to
// submit batches, follow session logs, and download results.
//
// Keep orchestration here: pipeline stages, streaming, and export formats live
// in their own packages while the daemon focuses on startup, shutdown, and
// request routing.
package daemon
