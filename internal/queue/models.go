package queue

import (
	"time"

	"github.com/stevendeporre123/quest-app/internal/progress"
)

// Status is the processing state of one question.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// AllStatuses lists question states in lifecycle order.
var AllStatuses = []Status{StatusQueued, StatusInProgress, StatusDone, StatusError}

// Terminal reports whether the question only leaves this state through an
// explicit requeue.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Valid reports whether s is a known state.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// transitions enumerates the moves the dispatcher may make. Leaving a
// terminal state is only possible through Requeue.
var transitions = map[Status][]Status{
	StatusQueued:     {StatusInProgress, StatusDone},
	StatusInProgress: {StatusDone, StatusQueued, StatusError},
}

// CanTransition reports whether the dispatcher may move a question from one state to another.
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AnswerSource records where a question's answer came from.
type AnswerSource string

const (
	AnswerSourceNone       AnswerSource = ""
	AnswerSourceEnrichment AnswerSource = "enrichment"
	AnswerSourceInherited  AnswerSource = "inherited"
)

// QuestionFields are the agenda fields written once at ingest.
type QuestionFields struct {
	DossierID           string
	DossierYearNr       string
	SequenceNr          string
	Title               string
	Subject             string
	RoiType             string
	SubmitterGivenName  string
	SubmitterFamilyName string
	SubmitterFaction    string
	AssigneeLabel       string
	AssigneeGivenName   string
	AssigneeFamilyName  string
	QuestionText        string
}

// Answer holds the enrichment output stored on a question.
type Answer struct {
	Text          string
	Verbatim      string
	Summary       string
	Note          string
	Topics        []string
	Actions       []string
	QuestionStart string
	QuestionEnd   string
	AnswerStart   string
	AnswerEnd     string
}

// Empty reports whether no answer content is present.
func (a Answer) Empty() bool {
	return a.Text == "" && a.Verbatim == "" && a.Summary == ""
}

// Meeting is one council session and its derived processing state.
type Meeting struct {
	ID                 int64
	MeetingDate        string
	CommissionName     string
	WebcastID          string
	Transcript         string
	State              progress.State
	TotalQuestions     int
	ProcessedQuestions int
	ProcessingError    string
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Question is one agenda item tracked through the processing state machine.
type Question struct {
	ID        int64
	MeetingID int64
	SourceIdx int
	QuestionFields

	Status          Status
	ProcessingError string
	Attempts        int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	LastHeartbeat   *time.Time
	RetryAfter      *time.Time

	GroupPrimaryID *int64
	InheritsFromID *int64

	AnswerSource AnswerSource
	Answer

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupPrimary returns the question whose answer the group shares. A
// question outside any group is its own primary.
func (q *Question) GroupPrimary() int64 {
	if q.GroupPrimaryID != nil {
		return *q.GroupPrimaryID
	}
	return q.ID
}

// NewMeeting is the ingest payload: one meeting and its agenda in order.
type NewMeeting struct {
	MeetingDate    string
	CommissionName string
	WebcastID      string
	Transcript     string
	Questions      []QuestionFields
}

// Claim identifies one processing attempt. Writes made on behalf of a claim
// only apply while the question is still in_progress with the same attempt
// number, so a reclaimed or deleted question is never overwritten by a
// worker that lost it.
type Claim struct {
	QuestionID int64
	MeetingID  int64
	Attempt    int
}

// Job is a claimed question together with the meeting context enrichment needs.
type Job struct {
	Claim
	Question *Question
	Meeting  *Meeting
}

// MeetingUpdate reports a meeting state recomputation caused by a transition.
type MeetingUpdate struct {
	MeetingID int64
	Before    progress.State
	After     progress.State
}

// Finished reports whether the transition moved the meeting into a terminal state.
func (u MeetingUpdate) Finished() bool {
	return !u.Before.Terminal() && u.After.Terminal()
}

// ReclaimResult summarizes a stale in_progress sweep.
type ReclaimResult struct {
	Requeued int64
	Failed   int64
	Updates  []MeetingUpdate
}
