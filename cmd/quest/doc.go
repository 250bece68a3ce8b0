// Package main hosts the quest operator CLI.
//
// Commands talk to a running questd over its HTTP API so writes wake the
// dispatcher immediately. When the daemon is not reachable (or --local is
// given) they open the SQLite database directly; the daemon picks the
// changes up on its next poll.
//
// Keep the command layer thin: behavior belongs in internal/api and the
// packages behind it, commands only parse arguments and render results.
package main
