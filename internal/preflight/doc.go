// Package preflight provides readiness checks for the filesystem, the
// database and the external services quest depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and refuses to start when the data
//     directory or database is unusable.
//   - The CLI "quest config validate" command prints every result.
//
// Notification checks are skipped when no ntfy topic is configured.
package preflight
