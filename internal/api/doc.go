// Package api defines wire-format types and the service layer shared by the
// HTTP server and the CLI. It translates queue models into transport DTOs
// so consumers never couple to internal types.
//
// # Key Types
//
// MeetingProgress and QueueResponse: the processing status views, derived
// from live question counters.
//
// Meeting, Question, MeetingDetail: meeting management payloads.
//
// UploadRequest/UploadResponse: ingest of a pre-parsed agenda and transcript.
//
// DaemonStatus/WorkflowStatus: dispatcher runtime information.
//
// # Design Notes
//
// JSON field names are snake_case and mirror the database columns so
// existing clients of the processing endpoints keep working. Timestamps use
// RFC3339 with milliseconds. ProcessingService wakes the dispatcher after
// every mutation that can make a question eligible.
package api
