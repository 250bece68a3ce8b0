package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// fencedWhere restricts a worker write to the attempt it claimed.
const fencedWhere = ` WHERE id = ? AND processing_state = 'in_progress' AND processing_attempts = ?`

// applyFenced runs a claim-scoped update moving the question to state `to` and
// recomputes the meeting in the same transaction. It returns ErrJobLost when
// the claim no longer holds.
func (s *Store) applyFenced(ctx context.Context, claim Claim, to Status, set string, args []any, after func(tx *sql.Tx) error) (MeetingUpdate, error) {
	if !CanTransition(StatusInProgress, to) {
		return MeetingUpdate{}, fmt.Errorf("question %d: invalid transition %s -> %s", claim.QuestionID, StatusInProgress, to)
	}
	ctx = ensureContext(ctx)
	var update MeetingUpdate
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		fullArgs := append(append([]any{}, args...), claim.QuestionID, claim.Attempt)
		res, err := tx.ExecContext(ctx, `UPDATE questions SET `+set+fencedWhere, fullArgs...)
		if err != nil {
			return fmt.Errorf("update question %d: %w", claim.QuestionID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("question %d attempt %d: %w", claim.QuestionID, claim.Attempt, ErrJobLost)
		}
		update, err = s.recomputeMeeting(ctx, tx, claim.MeetingID)
		if err != nil {
			return err
		}
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		return MeetingUpdate{}, err
	}
	return update, nil
}

// CompleteQuestion stores the enrichment answer and marks the question done.
func (s *Store) CompleteQuestion(ctx context.Context, claim Claim, answer Answer) (MeetingUpdate, error) {
	now := formatTime(s.timestamp())
	args := answerArgs(AnswerSourceEnrichment, answer)
	args = append(args, now, now)
	return s.applyFenced(ctx, claim, StatusDone,
		`processing_state = 'done', processing_error = NULL, retry_after = NULL, `+answerAssignments+`,
         processing_completed_at = ?, updated_at = ?`,
		args, nil)
}

// RetryQuestion returns the question to queued after a transient failure. It
// becomes eligible again at retryAfter.
func (s *Store) RetryQuestion(ctx context.Context, claim Claim, message string, retryAfter time.Time) (MeetingUpdate, error) {
	now := formatTime(s.timestamp())
	return s.applyFenced(ctx, claim, StatusQueued,
		`processing_state = 'queued', processing_error = ?, retry_after = ?, updated_at = ?`,
		[]any{nullableString(message), formatTime(retryAfter), now}, nil)
}

// FailQuestion marks the question as failed for good and records the reason
// on the meeting as well.
func (s *Store) FailQuestion(ctx context.Context, claim Claim, message string) (MeetingUpdate, error) {
	now := formatTime(s.timestamp())
	return s.applyFenced(ctx, claim, StatusError,
		`processing_state = 'error', processing_error = ?, retry_after = NULL,
         processing_completed_at = ?, updated_at = ?`,
		[]any{nullableString(message), now, now},
		func(tx *sql.Tx) error {
			var idx int
			if err := tx.QueryRowContext(ctx, `SELECT source_question_idx FROM questions WHERE id = ?`, claim.QuestionID).Scan(&idx); err != nil {
				return fmt.Errorf("load question index: %w", err)
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE meetings SET processing_error = ?, updated_at = ? WHERE id = ?`,
				fmt.Sprintf("question #%d: %s", idx, message), now, claim.MeetingID,
			)
			if err != nil {
				return fmt.Errorf("record meeting error: %w", err)
			}
			return nil
		})
}

// ReleaseQuestion hands an unfinished question back to the queue, typically
// on shutdown. The attempt is not counted against the retry budget.
func (s *Store) ReleaseQuestion(ctx context.Context, claim Claim, message string) (MeetingUpdate, error) {
	now := formatTime(s.timestamp())
	return s.applyFenced(ctx, claim, StatusQueued,
		`processing_state = 'queued', processing_attempts = MAX(processing_attempts - 1, 0),
         processing_error = COALESCE(?, processing_error), retry_after = NULL, updated_at = ?`,
		[]any{nullableString(message), now}, nil)
}

// UpdateHeartbeat refreshes the liveness timestamp for a claimed question.
func (s *Store) UpdateHeartbeat(ctx context.Context, claim Claim) error {
	now := formatTime(s.timestamp())
	res, err := s.execWithRetry(ctx,
		`UPDATE questions SET last_heartbeat = ?, updated_at = ?`+fencedWhere,
		now, now, claim.QuestionID, claim.Attempt,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("question %d attempt %d: %w", claim.QuestionID, claim.Attempt, ErrJobLost)
	}
	return nil
}

// ReclaimStale returns in_progress questions whose heartbeat is older than
// cutoff to the queue. Questions that already used maxAttempts move to error
// instead. The claim already counted the attempt, so reclaiming does not
// increment it again.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time, maxAttempts int) (ReclaimResult, error) {
	ctx = ensureContext(ctx)
	var result ReclaimResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result = ReclaimResult{}
		rows, err := tx.QueryContext(ctx,
			`SELECT id, meeting_id, source_question_idx, processing_attempts FROM questions
             WHERE processing_state = 'in_progress'
               AND COALESCE(last_heartbeat, processing_started_at, updated_at) < ?
             ORDER BY id`,
			formatTime(cutoff),
		)
		if err != nil {
			return fmt.Errorf("select stale questions: %w", err)
		}
		type stale struct {
			id, meetingID int64
			idx, attempts int
		}
		var found []stale
		for rows.Next() {
			var st stale
			if err := rows.Scan(&st.id, &st.meetingID, &st.idx, &st.attempts); err != nil {
				rows.Close()
				return fmt.Errorf("scan stale question: %w", err)
			}
			found = append(found, st)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}

		now := formatTime(s.timestamp())
		meetingIDs := make([]int64, 0, len(found))
		for _, st := range found {
			meetingIDs = append(meetingIDs, st.meetingID)
			if st.attempts >= maxAttempts {
				message := fmt.Sprintf("heartbeat lost after %d attempts", st.attempts)
				if _, err := tx.ExecContext(ctx,
					`UPDATE questions SET processing_state = 'error', processing_error = ?,
                         processing_completed_at = ?, updated_at = ?
                     WHERE id = ?`,
					message, now, now, st.id,
				); err != nil {
					return fmt.Errorf("fail stale question %d: %w", st.id, err)
				}
				if _, err := tx.ExecContext(ctx,
					`UPDATE meetings SET processing_error = ?, updated_at = ? WHERE id = ?`,
					fmt.Sprintf("question #%d: %s", st.idx, message), now, st.meetingID,
				); err != nil {
					return fmt.Errorf("record meeting error: %w", err)
				}
				result.Failed++
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE questions SET processing_state = 'queued', processing_error = ?,
                     retry_after = NULL, updated_at = ?
                 WHERE id = ?`,
				"reclaimed after heartbeat timeout", now, st.id,
			); err != nil {
				return fmt.Errorf("requeue stale question %d: %w", st.id, err)
			}
			result.Requeued++
		}

		updates, err := s.recomputeMeetings(ctx, tx, meetingIDs)
		if err != nil {
			return err
		}
		result.Updates = updates
		return nil
	})
	if err != nil {
		return ReclaimResult{}, err
	}
	return result, nil
}

// Requeue resets a terminal question so it is processed again, together with
// every terminal question that inherits from it directly or transitively.
// A queued question is left alone; an in_progress one is refused.
func (s *Store) Requeue(ctx context.Context, questionID int64) (*Question, error) {
	ctx = ensureContext(ctx)
	var question *Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := mustGetQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusInProgress:
			return fmt.Errorf("question %d: %w", questionID, ErrQuestionBusy)
		case StatusQueued:
			question = current
			return nil
		}
		if err := s.requeueCascade(ctx, tx, questionID); err != nil {
			return err
		}
		if _, err := s.recomputeMeeting(ctx, tx, current.MeetingID); err != nil {
			return err
		}
		question, err = mustGetQuestion(ctx, tx, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// requeueCascade resets root and its terminal inheritors breadth first.
func (s *Store) requeueCascade(ctx context.Context, tx *sql.Tx, root int64) error {
	now := formatTime(s.timestamp())
	visited := map[int64]struct{}{}
	pending := []int64{root}
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if err := resetQuestion(ctx, tx, id, now); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM questions WHERE inherits_answer_from_id = ? AND processing_state IN ('done', 'error')`, id)
		if err != nil {
			return fmt.Errorf("select inheritors of %d: %w", id, err)
		}
		for rows.Next() {
			var child int64
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return fmt.Errorf("scan inheritor: %w", err)
			}
			pending = append(pending, child)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func resetQuestion(ctx context.Context, tx *sql.Tx, id int64, now string) error {
	args := answerArgs(AnswerSourceNone, Answer{})
	args = append(args, now, id)
	if _, err := tx.ExecContext(ctx,
		`UPDATE questions
         SET processing_state = 'queued', processing_error = NULL, processing_attempts = 0,
             processing_started_at = NULL, processing_completed_at = NULL, last_heartbeat = NULL,
             retry_after = NULL, `+answerAssignments+`, updated_at = ?
         WHERE id = ?`,
		args...,
	); err != nil {
		return fmt.Errorf("reset question %d: %w", id, err)
	}
	return nil
}
