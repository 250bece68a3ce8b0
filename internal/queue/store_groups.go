package queue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stevendeporre123/quest-app/internal/grouping"
)

type inheritanceEdge struct {
	id       int64
	inherits sql.NullInt64
}

func loadInheritance(ctx context.Context, q queryer, meetingID int64) (map[int64]int64, []int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, inherits_answer_from_id FROM questions WHERE meeting_id = ? ORDER BY source_question_idx`,
		meetingID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load inheritance: %w", err)
	}
	defer rows.Close()

	parents := make(map[int64]int64)
	var ids []int64
	for rows.Next() {
		var edge inheritanceEdge
		if err := rows.Scan(&edge.id, &edge.inherits); err != nil {
			return nil, nil, fmt.Errorf("scan inheritance: %w", err)
		}
		ids = append(ids, edge.id)
		if edge.inherits.Valid {
			parents[edge.id] = edge.inherits.Int64
		}
	}
	return parents, ids, rows.Err()
}

func nextFrom(parents map[int64]int64) grouping.Next {
	return func(id int64) (int64, bool, error) {
		parent, ok := parents[id]
		return parent, ok, nil
	}
}

// SetInheritance makes questionID inherit its answer from sourceID, or clears
// the relation when sourceID is nil. Both questions must belong to the same
// meeting and the assignment must not close a cycle. A question that already
// finished is requeued so the new relation takes effect.
func (s *Store) SetInheritance(ctx context.Context, questionID int64, sourceID *int64) (*Question, error) {
	ctx = ensureContext(ctx)
	var question *Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := mustGetQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if current.Status == StatusInProgress {
			return fmt.Errorf("question %d: %w", questionID, ErrQuestionBusy)
		}
		if sameSource(current.InheritsFromID, sourceID) {
			question = current
			return nil
		}

		parents, ids, err := loadInheritance(ctx, tx, current.MeetingID)
		if err != nil {
			return err
		}
		if sourceID != nil {
			source, err := mustGetQuestion(ctx, tx, *sourceID)
			if err != nil {
				return err
			}
			if source.MeetingID != current.MeetingID {
				return fmt.Errorf("question %d and %d: %w", questionID, *sourceID, ErrCrossMeeting)
			}
			if err := grouping.CheckAssignment(questionID, *sourceID, len(ids), nextFrom(parents)); err != nil {
				return err
			}
		}

		now := formatTime(s.timestamp())
		var inherits any
		if sourceID != nil {
			inherits = *sourceID
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET inherits_answer_from_id = ?, updated_at = ? WHERE id = ?`,
			inherits, now, questionID,
		); err != nil {
			return fmt.Errorf("set inheritance: %w", err)
		}
		if current.Status.Terminal() {
			if err := s.requeueCascade(ctx, tx, questionID); err != nil {
				return err
			}
		}
		if err := refreshGroupPrimaries(ctx, tx, current.MeetingID); err != nil {
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

func sameSource(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// refreshGroupPrimaries points every member of an inheritance group at the
// chain root. Questions outside any group carry no primary.
func refreshGroupPrimaries(ctx context.Context, tx *sql.Tx, meetingID int64) error {
	parents, ids, err := loadInheritance(ctx, tx, meetingID)
	if err != nil {
		return err
	}
	next := nextFrom(parents)
	roots := make(map[int64]int64, len(parents))
	hasMembers := make(map[int64]bool, len(parents))
	for id := range parents {
		root, err := grouping.Root(id, len(ids), next)
		if err != nil {
			return err
		}
		roots[id] = root
		hasMembers[root] = true
	}

	for _, id := range ids {
		var primary any
		if root, ok := roots[id]; ok {
			primary = root
		} else if hasMembers[id] {
			primary = id
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET group_primary_question_id = ? WHERE id = ?`, primary, id,
		); err != nil {
			return fmt.Errorf("update group primary of %d: %w", id, err)
		}
	}
	return nil
}

// ResolveInherited settles every queued inheriting question whose source has
// reached a terminal state. Answered sources have their answer copied;
// failed sources leave the inheritor done with a note. Chains resolve in one
// call because the sweep repeats until nothing changes. The attempt counter
// is untouched since no enrichment ran.
func (s *Store) ResolveInherited(ctx context.Context) ([]MeetingUpdate, int, error) {
	ctx = ensureContext(ctx)
	var (
		updates  []MeetingUpdate
		resolved int
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		updates, resolved = nil, 0
		var meetingIDs []int64
		for {
			batch, err := s.resolveInheritedPass(ctx, tx)
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				break
			}
			resolved += len(batch)
			meetingIDs = append(meetingIDs, batch...)
		}
		var err error
		updates, err = s.recomputeMeetings(ctx, tx, meetingIDs)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return updates, resolved, nil
}

// earlierPendingExpr is true when an earlier independent question of the
// same meeting is still queued or in progress. claimSelect applies the same
// guard so answers settle in agenda order.
const earlierPendingExpr = `EXISTS (
          SELECT 1 FROM questions earlier
          WHERE earlier.meeting_id = q.meeting_id
            AND earlier.inherits_answer_from_id IS NULL
            AND earlier.processing_state IN ('queued', 'in_progress')
            AND earlier.source_question_idx < q.source_question_idx
      )`

func outcomeOf(state Status) grouping.Outcome {
	switch state {
	case StatusDone:
		return grouping.OutcomeAnswered
	case StatusError:
		return grouping.OutcomeFailed
	default:
		return grouping.OutcomePending
	}
}

// resolveInheritedPass resolves one layer and returns the meeting of each
// question it settled.
func (s *Store) resolveInheritedPass(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT q.id, q.meeting_id, src.id, src.processing_state, `+earlierPendingExpr+`
         FROM questions q
         JOIN questions src ON src.id = q.inherits_answer_from_id
         WHERE q.processing_state = 'queued'
         ORDER BY q.meeting_id, q.source_question_idx`)
	if err != nil {
		return nil, fmt.Errorf("select resolvable inheritors: %w", err)
	}
	type pending struct {
		id, meetingID, sourceID int64
		source                  grouping.Outcome
	}
	var found []pending
	for rows.Next() {
		var (
			p       pending
			state   string
			blocked bool
		)
		if err := rows.Scan(&p.id, &p.meetingID, &p.sourceID, &state, &blocked); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan inheritor: %w", err)
		}
		p.source = outcomeOf(Status(state))
		if !grouping.Eligible(true, p.source, blocked) {
			continue
		}
		found = append(found, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := formatTime(s.timestamp())
	meetingIDs := make([]int64, 0, len(found))
	for _, p := range found {
		source, err := mustGetQuestion(ctx, tx, p.sourceID)
		if err != nil {
			return nil, err
		}
		resolution, ok := grouping.Resolve(p.sourceID, p.source, source.ProcessingError)
		if !ok {
			continue
		}
		answer := Answer{}
		if resolution.CopyAnswer {
			answer = source.Answer
		}
		args := answerArgs(AnswerSourceInherited, answer)
		args = append(args, nullableString(resolution.Note), now, now, p.id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions
             SET processing_state = 'done', `+answerAssignments+`, processing_error = ?,
                 retry_after = NULL, processing_completed_at = ?, updated_at = ?
             WHERE id = ? AND processing_state = 'queued'`,
			args...,
		); err != nil {
			return nil, fmt.Errorf("resolve inheritor %d: %w", p.id, err)
		}
		meetingIDs = append(meetingIDs, p.meetingID)
	}
	return meetingIDs, nil
}
