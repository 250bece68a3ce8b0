// Package services defines shared utilities consumed by the dispatcher and
// the enrichment providers.
//
// Key responsibilities:
//   - Context helpers that stamp meeting IDs, question IDs, worker names and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper; IsTransient decides
//     whether a failed question is re-queued or moved to error.
package services
