// Package session owns the in-memory registry of batch runs.
//
// A Registry maps session identifiers to run state: the requested client
// ids, the append-only log, the accumulated results, and a running or
// completed status. One batch task writes to a session while any number of
// followers read it. Every operation takes the same mutex for the length of
// an in-memory copy only, so readers never see a torn entry and log order is
// exactly append order.
//
// Operations on unknown session ids are defined no-ops or absent results,
// because a follower may legitimately ask before the session exists.
//
// Completed sessions can be evicted with Sweep; the Sweeper runs it on a cron
// schedule inside the daemon.
package session
