package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// MeetingProgress is the per-meeting counter view served at
// /processing/meetings/{id}.
type MeetingProgress struct {
	Pending         int    `json:"pending"`
	InProgress      int    `json:"in_progress"`
	Completed       int    `json:"completed"`
	Errors          int    `json:"errors"`
	ProcessingState string `json:"processing_state"`
}

// QueueEntry is one active meeting in the global queue view.
type QueueEntry struct {
	MeetingID       int64  `json:"meeting_id"`
	TotalQuestions  int    `json:"total_questions"`
	Pending         int    `json:"pending"`
	InProgress      int    `json:"in_progress"`
	Completed       int    `json:"completed"`
	Errors          int    `json:"errors"`
	ProcessingState string `json:"processing_state"`
}

// QueueTotals sums question counters over every meeting in the store.
type QueueTotals struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Errors     int `json:"errors"`
}

// QueueResponse lists meetings with unfinished questions, oldest first, plus
// store-wide totals.
type QueueResponse struct {
	Meetings []QueueEntry `json:"meetings"`
	Totals   QueueTotals  `json:"totals"`
}

// Meeting describes a meeting without its agenda.
type Meeting struct {
	ID                 int64  `json:"id"`
	MeetingDate        string `json:"meeting_date"`
	CommissionName     string `json:"commission_name"`
	WebcastID          string `json:"webcast_id,omitempty"`
	ProcessingState    string `json:"processing_state"`
	TotalQuestions     int    `json:"total_questions"`
	ProcessedQuestions int    `json:"processed_questions"`
	ProcessingError    string `json:"processing_error,omitempty"`
	CompletedAt        string `json:"processing_completed_at,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// Question describes one agenda item with its processing state and answer.
type Question struct {
	ID                  int64    `json:"id"`
	MeetingID           int64    `json:"meeting_id"`
	SourceIdx           int      `json:"source_question_idx"`
	DossierID           string   `json:"dossier_id,omitempty"`
	DossierYearNr       string   `json:"dossier_year_nr,omitempty"`
	SequenceNr          string   `json:"sequence_nr,omitempty"`
	Title               string   `json:"title"`
	Subject             string   `json:"subject,omitempty"`
	RoiType             string   `json:"roi_type,omitempty"`
	SubmitterGivenName  string   `json:"submitter_given_name,omitempty"`
	SubmitterFamilyName string   `json:"submitter_family_name,omitempty"`
	SubmitterFaction    string   `json:"submitter_faction,omitempty"`
	AssigneeLabel       string   `json:"assignee_label,omitempty"`
	AssigneeGivenName   string   `json:"assignee_given_name,omitempty"`
	AssigneeFamilyName  string   `json:"assignee_family_name,omitempty"`
	QuestionText        string   `json:"question_text_raw"`
	ProcessingState     string   `json:"processing_state"`
	ProcessingError     string   `json:"processing_error,omitempty"`
	ProcessingAttempts  int      `json:"processing_attempts"`
	GroupPrimaryID      *int64   `json:"group_primary_question_id"`
	InheritsFromID      *int64   `json:"inherits_answer_from_id"`
	AnswerSource        string   `json:"answer_source,omitempty"`
	AnswerText          string   `json:"answer_text_raw,omitempty"`
	AnswerVerbatim      string   `json:"answer_text_verbatim,omitempty"`
	Summary             string   `json:"summary,omitempty"`
	Note                string   `json:"note,omitempty"`
	Topics              []string `json:"topics,omitempty"`
	Actions             []string `json:"actions,omitempty"`
	QuestionStart       string   `json:"question_start_time,omitempty"`
	QuestionEnd         string   `json:"question_end_time,omitempty"`
	AnswerStart         string   `json:"answer_start_time,omitempty"`
	AnswerEnd           string   `json:"answer_end_time,omitempty"`
	StartedAt           string   `json:"processing_started_at,omitempty"`
	CompletedAt         string   `json:"processing_completed_at,omitempty"`
	UpdatedAt           string   `json:"updated_at,omitempty"`
}

// MeetingListResponse wraps the meeting overview.
type MeetingListResponse struct {
	Meetings []Meeting `json:"meetings"`
}

// MeetingDetail is a meeting together with its agenda in order.
type MeetingDetail struct {
	Meeting   Meeting    `json:"meeting"`
	Questions []Question `json:"questions"`
}

// QuestionResponse wraps a single question.
type QuestionResponse struct {
	Question Question `json:"question"`
}

// UploadQuestion is one pre-parsed agenda entry.
type UploadQuestion struct {
	DossierID           string `json:"dossier_id"`
	DossierYearNr       string `json:"dossier_year_nr"`
	SequenceNr          string `json:"sequence_nr"`
	Title               string `json:"title"`
	Subject             string `json:"subject"`
	RoiType             string `json:"roi_type"`
	SubmitterGivenName  string `json:"submitter_given_name"`
	SubmitterFamilyName string `json:"submitter_family_name"`
	SubmitterFaction    string `json:"submitter_faction"`
	AssigneeLabel       string `json:"assignee_label"`
	AssigneeGivenName   string `json:"assignee_given_name"`
	AssigneeFamilyName  string `json:"assignee_family_name"`
	QuestionText        string `json:"question_text_raw"`
}

// UploadRequest is the ingest payload: a parsed agenda plus its transcript.
type UploadRequest struct {
	MeetingDate    string           `json:"meeting_date"`
	CommissionName string           `json:"commission_name"`
	WebcastID      string           `json:"webcast_id"`
	Transcript     string           `json:"transcript"`
	Questions      []UploadQuestion `json:"questions"`
}

// UploadResponse acknowledges an ingest. Processing continues in the background.
type UploadResponse struct {
	Status    string `json:"status"`
	MeetingID int64  `json:"meeting_id"`
	Questions int    `json:"questions"`
}

// InheritRequest assigns or clears a question's answer source.
type InheritRequest struct {
	InheritsFromID *int64 `json:"inherits_answer_from_id"`
}

// Suggestion proposes an inheritance assignment; it is never applied automatically.
type Suggestion struct {
	QuestionID int64   `json:"question_id"`
	SourceID   int64   `json:"source_id"`
	Reason     string  `json:"reason"`
	Score      float64 `json:"score"`
}

// SuggestionsResponse wraps the suggestions for one meeting.
type SuggestionsResponse struct {
	MeetingID   int64        `json:"meeting_id"`
	Suggestions []Suggestion `json:"suggestions"`
}

// DeleteResponse acknowledges a meeting deletion.
type DeleteResponse struct {
	Deleted   bool  `json:"deleted"`
	MeetingID int64 `json:"meeting_id"`
}

// NotificationResponse reports the outcome of a test notification.
type NotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// WorkflowStatus summarizes dispatcher execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	Workers    int            `json:"workers"`
	InFlight   int            `json:"in_flight"`
	Enricher   string         `json:"enricher,omitempty"`
	QueueStats map[string]int `json:"queue_stats"`
	LastError  string         `json:"last_error,omitempty"`
	LastJob    *JobRef        `json:"last_job,omitempty"`
}

// JobRef identifies the most recently claimed question.
type JobRef struct {
	MeetingID  int64 `json:"meeting_id"`
	QuestionID int64 `json:"question_id"`
	Attempt    int   `json:"attempt"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	LockFilePath string         `json:"lock_file_path"`
	Workflow     WorkflowStatus `json:"workflow"`
}
