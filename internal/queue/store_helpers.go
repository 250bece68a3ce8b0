package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stevendeporre123/quest-app/internal/progress"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const meetingColumns = "id, meeting_date, commission_name, webcast_id, transcript_text, processing_state, total_questions, processed_questions, processing_error, processing_completed_at, created_at, updated_at"

const questionColumns = "id, meeting_id, source_question_idx, dossier_id, dossier_year_nr, sequence_nr, title, subject, roi_type, submitter_given_name, submitter_family_name, submitter_faction, assignee_label, assignee_given_name, assignee_family_name, question_text, processing_state, processing_error, processing_attempts, processing_started_at, processing_completed_at, last_heartbeat, retry_after, group_primary_question_id, inherits_answer_from_id, answer_source, answer_text, answer_text_verbatim, summary, note, topics_json, actions_json, question_start_time, question_end_time, answer_start_time, answer_end_time, created_at, updated_at"

// prefixedQuestionColumns is questionColumns qualified for joins against meetings.
var prefixedQuestionColumns = prefixColumns("q", questionColumns)

// answerAssignments writes every answer column; it is shared by completion,
// inheritance and reset so the set of columns cannot drift.
const answerAssignments = "answer_source = ?, answer_text = ?, answer_text_verbatim = ?, summary = ?, note = ?, topics_json = ?, actions_json = ?, question_start_time = ?, question_end_time = ?, answer_start_time = ?, answer_end_time = ?"

type scanner interface{ Scan(dest ...any) error }

func scanMeeting(row scanner) (*Meeting, error) {
	var (
		m                                                   Meeting
		date, commission, webcast, processingErr, completed sql.NullString
		state, createdRaw, updatedRaw                       string
	)
	if err := row.Scan(
		&m.ID, &date, &commission, &webcast, &m.Transcript, &state,
		&m.TotalQuestions, &m.ProcessedQuestions, &processingErr, &completed,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	m.MeetingDate = date.String
	m.CommissionName = commission.String
	m.WebcastID = webcast.String
	m.State = progress.State(state)
	m.ProcessingError = processingErr.String
	m.CompletedAt = parseNullableTime(completed)
	m.CreatedAt, _ = parseTimeString(createdRaw)
	m.UpdatedAt, _ = parseTimeString(updatedRaw)
	return &m, nil
}

func scanQuestion(row scanner) (*Question, error) {
	var (
		q                                           Question
		text                                        [12]sql.NullString
		state                                       string
		processingErr                               sql.NullString
		started, completed, heartbeat, retryAfter   sql.NullString
		primary, inherits                           sql.NullInt64
		source, answer, verbatim, summary, note     sql.NullString
		topics, actions, qStart, qEnd, aStart, aEnd sql.NullString
		createdRaw, updatedRaw                      string
	)
	if err := row.Scan(
		&q.ID, &q.MeetingID, &q.SourceIdx,
		&text[0], &text[1], &text[2], &text[3], &text[4], &text[5],
		&text[6], &text[7], &text[8], &text[9], &text[10], &text[11],
		&q.QuestionText,
		&state, &processingErr, &q.Attempts,
		&started, &completed, &heartbeat, &retryAfter,
		&primary, &inherits,
		&source, &answer, &verbatim, &summary, &note, &topics, &actions,
		&qStart, &qEnd, &aStart, &aEnd,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	q.DossierID = text[0].String
	q.DossierYearNr = text[1].String
	q.SequenceNr = text[2].String
	q.Title = text[3].String
	q.Subject = text[4].String
	q.RoiType = text[5].String
	q.SubmitterGivenName = text[6].String
	q.SubmitterFamilyName = text[7].String
	q.SubmitterFaction = text[8].String
	q.AssigneeLabel = text[9].String
	q.AssigneeGivenName = text[10].String
	q.AssigneeFamilyName = text[11].String

	q.Status = Status(state)
	q.ProcessingError = processingErr.String
	q.StartedAt = parseNullableTime(started)
	q.CompletedAt = parseNullableTime(completed)
	q.LastHeartbeat = parseNullableTime(heartbeat)
	q.RetryAfter = parseNullableTime(retryAfter)
	q.GroupPrimaryID = nullableID(primary)
	q.InheritsFromID = nullableID(inherits)

	q.AnswerSource = AnswerSource(source.String)
	q.Answer = Answer{
		Text:          answer.String,
		Verbatim:      verbatim.String,
		Summary:       summary.String,
		Note:          note.String,
		Topics:        decodeList(topics.String),
		Actions:       decodeList(actions.String),
		QuestionStart: qStart.String,
		QuestionEnd:   qEnd.String,
		AnswerStart:   aStart.String,
		AnswerEnd:     aEnd.String,
	}
	q.CreatedAt, _ = parseTimeString(createdRaw)
	q.UpdatedAt, _ = parseTimeString(updatedRaw)
	return &q, nil
}

// answerArgs returns the arguments matching answerAssignments.
func answerArgs(source AnswerSource, a Answer) []any {
	return []any{
		nullableString(string(source)),
		nullableString(a.Text),
		nullableString(a.Verbatim),
		nullableString(a.Summary),
		nullableString(a.Note),
		encodeList(a.Topics),
		encodeList(a.Actions),
		nullableString(a.QuestionStart),
		nullableString(a.QuestionEnd),
		nullableString(a.AnswerStart),
		nullableString(a.AnswerEnd),
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func encodeList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(data)
}

func decodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
