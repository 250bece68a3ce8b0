// Package logging assembles structured slog loggers and formatting helpers used
// across the quest daemon and CLI.
//
// It owns the console/JSON handlers, fans daemon output out to a JSON log file
// alongside the console, and exposes context-aware helpers so dispatcher code
// tags every line with meeting IDs, question IDs, worker names and correlation
// IDs. A no-op logger is provided for tests and wiring code that cannot fail.
package logging
