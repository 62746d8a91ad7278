// Package clients loads the client list the pipeline draws records from.
//
// Two sources are supported: a CSV file with a header row (English or the
// legacy Spanish column names) and a SQLite database holding a clients table.
// Both produce a Directory that preserves load order and answers lookups by
// id. The pipeline never reads files itself; it is handed a Directory.
package clients
