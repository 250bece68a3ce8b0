// Package queue persists meetings and their agenda questions in SQLite and
// implements the question state machine on top of it.
//
// Every transition runs in one IMMEDIATE transaction together with the
// recomputation of the owning meeting, so a meeting's state and counters
// always match its question rows. Worker writes are fenced on the claimed
// attempt: once a question is reclaimed, requeued or deleted, the worker
// that held it receives ErrJobLost instead of overwriting newer state.
package queue
