// Package daemon coordinates the long-running quest process.
//
// It wires configuration, the SQLite store, the workflow manager and the
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances on one data directory. The HTTP handlers are thin:
// they decode requests, call api.ProcessingService and map store errors to
// status codes.
//
// Keep orchestration logic here: question processing lives in workflow and
// persistence rules in queue.
package daemon
