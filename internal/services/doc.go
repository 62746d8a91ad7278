// Package services defines shared utilities consumed by the pipeline stages,
// the batch runner, and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, client IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified with errors.Is regardless of where they were raised.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
