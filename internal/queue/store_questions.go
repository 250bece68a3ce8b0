package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func getQuestion(ctx context.Context, q queryer, id int64) (*Question, error) {
	row := q.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	question, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	return question, nil
}

func mustGetQuestion(ctx context.Context, q queryer, id int64) (*Question, error) {
	question, err := getQuestion(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return question, nil
}

// GetQuestion fetches a question by ID; it returns nil when none exists.
func (s *Store) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	return getQuestion(ensureContext(ctx), s.db, id)
}

// ListQuestions returns a meeting's questions in agenda order.
func (s *Store) ListQuestions(ctx context.Context, meetingID int64) ([]*Question, error) {
	return listQuestions(ensureContext(ctx), s.db, meetingID)
}

func listQuestions(ctx context.Context, q queryer, meetingID int64) ([]*Question, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE meeting_id = ? ORDER BY source_question_idx, id`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// ListByStatus returns questions in the given states across all meetings,
// oldest meeting and agenda position first.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Question, error) {
	if len(statuses) == 0 {
		statuses = AllStatuses
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+prefixedQuestionColumns+` FROM questions q JOIN meetings m ON m.id = q.meeting_id
         WHERE q.processing_state IN (`+makePlaceholders(len(statuses))+`)
         ORDER BY m.created_at, m.id, q.source_question_idx`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions by status: %w", err)
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}
