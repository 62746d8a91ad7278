// Command crmagent runs the campaign agent daemon and talks to it.
//
// `crmagent serve` starts the HTTP daemon. `crmagent run` processes clients in
// the current process and prints the session log as it grows. The remaining
// commands (submit, sessions, logs, results, export, status) call a running
// daemon over its HTTP API.
package main
