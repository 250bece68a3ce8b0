package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// claimSelect picks the oldest eligible question. Within a meeting only the
// first non-inheriting question that is not yet terminal may run, and only
// while no sibling is in progress, so a meeting's answers are produced in
// agenda order. Inheriting questions never run; ResolveInherited settles them.
const claimSelect = `SELECT q.id, q.meeting_id, q.processing_attempts
    FROM questions q
    JOIN meetings m ON m.id = q.meeting_id
    WHERE q.processing_state = 'queued'
      AND q.inherits_answer_from_id IS NULL
      AND (q.retry_after IS NULL OR q.retry_after <= ?)
      AND NOT EXISTS (
          SELECT 1 FROM questions busy
          WHERE busy.meeting_id = q.meeting_id AND busy.processing_state = 'in_progress'
      )
      AND NOT ` + earlierPendingExpr + `
    ORDER BY m.created_at, m.id, q.source_question_idx
    LIMIT 1`

// ClaimNext atomically moves the next eligible question to in_progress and
// returns it with its meeting. It returns nil when nothing is eligible. Two
// concurrent callers never receive the same question: the select and update
// share one IMMEDIATE transaction.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	var job *Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job = nil
		now := formatTime(s.timestamp())

		var (
			questionID, meetingID int64
			attempts              int
		)
		err := tx.QueryRowContext(ctx, claimSelect, now).Scan(&questionID, &meetingID, &attempts)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select next question: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE questions
             SET processing_state = 'in_progress', processing_attempts = processing_attempts + 1,
                 processing_started_at = ?, last_heartbeat = ?, retry_after = NULL, updated_at = ?
             WHERE id = ? AND processing_state = 'queued'`,
			now, now, now, questionID,
		)
		if err != nil {
			return fmt.Errorf("claim question %d: %w", questionID, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return nil
		}
		if _, err := s.recomputeMeeting(ctx, tx, meetingID); err != nil {
			return err
		}

		question, err := mustGetQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		meeting, err := getMeeting(ctx, tx, meetingID)
		if err != nil {
			return err
		}
		if meeting == nil {
			return fmt.Errorf("meeting %d: %w", meetingID, ErrNotFound)
		}
		job = &Job{
			Claim:    Claim{QuestionID: questionID, MeetingID: meetingID, Attempt: attempts + 1},
			Question: question,
			Meeting:  meeting,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
