// Package workflow runs client batches against the session registry.
//
// Submit hands back a session id at once and processes the batch on its own
// goroutine. Clients within a batch run strictly one after another, which
// keeps the session log in causal order and makes result order equal request
// order. Separate batches run concurrently and share nothing but the
// registry.
//
// Failures stay local to one client: an unknown id or a pipeline failure is
// recorded in the session log and the loop moves on. The session always
// reaches completed once every requested client has been attempted, even if
// the loop itself panics.
package workflow
