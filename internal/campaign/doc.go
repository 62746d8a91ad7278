// Package campaign defines the records that flow through the per-client
// campaign pipeline: the immutable client input, the simulated enrichment
// signals, the closed category set, the selected artifact, and the rendered
// result. It also defines LogEntry, the append-only audit unit that pipeline
// stages write into a session and that log followers stream to observers.
//
// Types here carry no behavior beyond validation and parsing so that the
// leaf rule packages (segment, catalog, enrichment, render) can share them
// without import cycles.
package campaign
