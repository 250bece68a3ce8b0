package api

import (
	"time"

	"github.com/stevendeporre123/quest-app/internal/grouping"
	"github.com/stevendeporre123/quest-app/internal/progress"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/workflow"
)

// FromProgress converts a meeting's counters to the status payload.
func FromProgress(entry progress.MeetingProgress) MeetingProgress {
	return MeetingProgress{
		Pending:         entry.Pending,
		InProgress:      entry.InProgress,
		Completed:       entry.Completed,
		Errors:          entry.Errors,
		ProcessingState: string(entry.State()),
	}
}

// FromQueueEntries converts the aggregator's active meetings to queue entries.
func FromQueueEntries(entries []progress.MeetingProgress) []QueueEntry {
	out := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, QueueEntry{
			MeetingID:       entry.MeetingID,
			TotalQuestions:  entry.Total(),
			Pending:         entry.Pending,
			InProgress:      entry.InProgress,
			Completed:       entry.Completed,
			Errors:          entry.Errors,
			ProcessingState: string(entry.State()),
		})
	}
	return out
}

// FromTotals converts store-wide counters to the queue totals payload.
func FromTotals(c progress.Counters) QueueTotals {
	return QueueTotals{
		Pending:    c.Pending,
		InProgress: c.InProgress,
		Completed:  c.Completed,
		Errors:     c.Errors,
	}
}

// FromMeeting converts a stored meeting to its API representation.
func FromMeeting(meeting *queue.Meeting) Meeting {
	if meeting == nil {
		return Meeting{}
	}
	return Meeting{
		ID:                 meeting.ID,
		MeetingDate:        meeting.MeetingDate,
		CommissionName:     meeting.CommissionName,
		WebcastID:          meeting.WebcastID,
		ProcessingState:    string(meeting.State),
		TotalQuestions:     meeting.TotalQuestions,
		ProcessedQuestions: meeting.ProcessedQuestions,
		ProcessingError:    meeting.ProcessingError,
		CompletedAt:        formatOptionalTime(meeting.CompletedAt),
		CreatedAt:          formatTime(meeting.CreatedAt),
		UpdatedAt:          formatTime(meeting.UpdatedAt),
	}
}

// FromMeetings converts a slice of meetings, never returning nil.
func FromMeetings(meetings []*queue.Meeting) []Meeting {
	out := make([]Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, FromMeeting(meeting))
	}
	return out
}

// FromQuestion converts a stored question to its API representation.
func FromQuestion(q *queue.Question) Question {
	if q == nil {
		return Question{}
	}
	return Question{
		ID:                  q.ID,
		MeetingID:           q.MeetingID,
		SourceIdx:           q.SourceIdx,
		DossierID:           q.DossierID,
		DossierYearNr:       q.DossierYearNr,
		SequenceNr:          q.SequenceNr,
		Title:               q.Title,
		Subject:             q.Subject,
		RoiType:             q.RoiType,
		SubmitterGivenName:  q.SubmitterGivenName,
		SubmitterFamilyName: q.SubmitterFamilyName,
		SubmitterFaction:    q.SubmitterFaction,
		AssigneeLabel:       q.AssigneeLabel,
		AssigneeGivenName:   q.AssigneeGivenName,
		AssigneeFamilyName:  q.AssigneeFamilyName,
		QuestionText:        q.QuestionText,
		ProcessingState:     string(q.Status),
		ProcessingError:     q.ProcessingError,
		ProcessingAttempts:  q.Attempts,
		GroupPrimaryID:      q.GroupPrimaryID,
		InheritsFromID:      q.InheritsFromID,
		AnswerSource:        string(q.AnswerSource),
		AnswerText:          q.Text,
		AnswerVerbatim:      q.Verbatim,
		Summary:             q.Summary,
		Note:                q.Note,
		Topics:              q.Topics,
		Actions:             q.Actions,
		QuestionStart:       q.QuestionStart,
		QuestionEnd:         q.QuestionEnd,
		AnswerStart:         q.AnswerStart,
		AnswerEnd:           q.AnswerEnd,
		StartedAt:           formatOptionalTime(q.StartedAt),
		CompletedAt:         formatOptionalTime(q.CompletedAt),
		UpdatedAt:           formatTime(q.UpdatedAt),
	}
}

// FromQuestions converts a slice of questions, never returning nil.
func FromQuestions(questions []*queue.Question) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, FromQuestion(q))
	}
	return out
}

// FromSuggestions converts grouping suggestions, never returning nil.
func FromSuggestions(suggestions []grouping.Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, Suggestion{
			QuestionID: s.QuestionID,
			SourceID:   s.SourceID,
			Reason:     s.Reason,
			Score:      s.Score,
		})
	}
	return out
}

// ToNewMeeting converts an upload payload to the store's ingest type.
func ToNewMeeting(req UploadRequest) queue.NewMeeting {
	meeting := queue.NewMeeting{
		MeetingDate:    req.MeetingDate,
		CommissionName: req.CommissionName,
		WebcastID:      req.WebcastID,
		Transcript:     req.Transcript,
		Questions:      make([]queue.QuestionFields, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		meeting.Questions = append(meeting.Questions, queue.QuestionFields{
			DossierID:           q.DossierID,
			DossierYearNr:       q.DossierYearNr,
			SequenceNr:          q.SequenceNr,
			Title:               q.Title,
			Subject:             q.Subject,
			RoiType:             q.RoiType,
			SubmitterGivenName:  q.SubmitterGivenName,
			SubmitterFamilyName: q.SubmitterFamilyName,
			SubmitterFaction:    q.SubmitterFaction,
			AssigneeLabel:       q.AssigneeLabel,
			AssigneeGivenName:   q.AssigneeGivenName,
			AssigneeFamilyName:  q.AssigneeFamilyName,
			QuestionText:        q.QuestionText,
		})
	}
	return meeting
}

// MergeQueueStats returns counts for every question state, zero-filled.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses))
	for _, status := range queue.AllStatuses {
		out[string(status)] = stats[status]
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		InFlight:   summary.InFlight,
		Enricher:   summary.Enricher,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
	}
	if summary.LastJob != nil {
		wf.LastJob = &JobRef{
			MeetingID:  summary.LastJob.MeetingID,
			QuestionID: summary.LastJob.QuestionID,
			Attempt:    summary.LastJob.Attempt,
		}
	}
	return wf
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
