// Package logs reads the daemon's JSON log file for the quest CLI.
//
// Tail returns the last matching entries or everything appended after a
// byte offset, optionally waiting for new lines. Entries are decoded from
// the slog JSON handler output so they can be filtered by meeting, question,
// component and level without the daemon running.
package logs
