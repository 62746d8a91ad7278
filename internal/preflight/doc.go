// Package preflight provides readiness checks for the filesystem paths and
// network endpoints crmagent depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll before taking the lock. A failed check aborts
//     startup with the collected details.
//   - The CLI "crmagent status" command prints every result, including
//     CheckAPIReachable for the running daemon.
package preflight
