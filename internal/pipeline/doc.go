// Package pipeline drives one client through the fixed campaign stages:
// INGEST, ENRICH, CLASSIFY, DECIDE, RENDER and FINISH.
//
// Every successful transition appends exactly one LogEntry to the caller's
// Sink before the next stage starts, so observers see progress in causal
// order. Any failure, including a panic inside a stage, is absorbed into a
// single ERROR entry and returned as *FailedError; nothing escapes to the
// batch loop uncaught. The pipeline never touches shared state directly; the
// Sink decides where entries go.
package pipeline
