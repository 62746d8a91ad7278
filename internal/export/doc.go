// Package export serializes a session's results as JSON, CSV, or an HTML
// summary.
//
// The format tag is parsed before any work is done, so an unsupported tag
// never produces partial output. JSON output is checked against an embedded
// JSON schema before it is returned.
package export
