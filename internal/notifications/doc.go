// Package notifications announces finished batches over ntfy.
//
// NewService returns an ntfy publisher when a topic URL is configured and a
// no-op otherwise, so the batch runner can always call it. Delivery failures
// are returned to the caller, which logs them; they never affect a session.
package notifications
