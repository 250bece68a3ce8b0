// Package workflow runs the question dispatcher.
//
// The Manager owns a small pool of long-lived workers. Each cycle a worker
// reclaims questions whose heartbeat went stale, settles inheriting questions
// whose source finished, then claims the next eligible question and runs
// enrichment for it under a heartbeat and a hard timeout. Outcomes are
// written back through the queue store, which keeps meeting state in step.
//
// All state lives in SQLite, so a restarted daemon resumes where the last one
// stopped. Uploads and requeues call Notify to wake idle workers early.
package workflow
