// Package progress derives meeting and queue progress from per-question
// processing states.
//
// Counters are always computed from the store's state columns; nothing here
// caches or mutates state, so the status endpoints may poll it freely.
package progress
