package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stevendeporre123/quest-app/internal/progress"
)

// countersSelect tallies questions per meeting in a single statement so the
// four counters always come from the same snapshot.
const countersSelect = `SELECT m.id, m.created_at,
        COALESCE(SUM(q.processing_state = 'queued'), 0),
        COALESCE(SUM(q.processing_state = 'in_progress'), 0),
        COALESCE(SUM(q.processing_state = 'done'), 0),
        COALESCE(SUM(q.processing_state = 'error'), 0)
    FROM meetings m
    LEFT JOIN questions q ON q.meeting_id = m.id`

func scanCounters(row scanner) (progress.MeetingProgress, error) {
	var (
		entry      progress.MeetingProgress
		createdRaw string
	)
	if err := row.Scan(
		&entry.MeetingID, &createdRaw,
		&entry.Pending, &entry.InProgress, &entry.Completed, &entry.Errors,
	); err != nil {
		return progress.MeetingProgress{}, err
	}
	entry.CreatedAt, _ = parseTimeString(createdRaw)
	return entry, nil
}

// MeetingCounters returns the live counters for one meeting.
func (s *Store) MeetingCounters(ctx context.Context, meetingID int64) (progress.MeetingProgress, bool, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), countersSelect+` WHERE m.id = ? GROUP BY m.id`, meetingID)
	entry, err := scanCounters(row)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.MeetingProgress{}, false, nil
	}
	if err != nil {
		return progress.MeetingProgress{}, false, fmt.Errorf("meeting counters: %w", err)
	}
	return entry, true, nil
}

// AllMeetingCounters returns live counters for every meeting, oldest first.
func (s *Store) AllMeetingCounters(ctx context.Context) ([]progress.MeetingProgress, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), countersSelect+` GROUP BY m.id ORDER BY m.created_at, m.id`)
	if err != nil {
		return nil, fmt.Errorf("all meeting counters: %w", err)
	}
	defer rows.Close()

	var out []progress.MeetingProgress
	for rows.Next() {
		entry, err := scanCounters(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting counters: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// recomputeMeeting derives the meeting's counters and state from its
// question rows inside the caller's transaction. It never sets the state
// independently of the rows.
func (s *Store) recomputeMeeting(ctx context.Context, tx *sql.Tx, meetingID int64) (MeetingUpdate, error) {
	var before string
	err := tx.QueryRowContext(ctx, `SELECT processing_state FROM meetings WHERE id = ?`, meetingID).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return MeetingUpdate{}, fmt.Errorf("meeting %d: %w", meetingID, ErrNotFound)
	}
	if err != nil {
		return MeetingUpdate{}, fmt.Errorf("load meeting state: %w", err)
	}

	entry, err := scanCounters(tx.QueryRowContext(ctx, countersSelect+` WHERE m.id = ? GROUP BY m.id`, meetingID))
	if err != nil {
		return MeetingUpdate{}, fmt.Errorf("count meeting questions: %w", err)
	}
	after := entry.State()
	now := formatTime(s.timestamp())

	if _, err := tx.ExecContext(ctx,
		`UPDATE meetings
         SET processing_state = ?, total_questions = ?, processed_questions = ?,
             processing_error = CASE WHEN ? THEN NULL ELSE processing_error END,
             processing_completed_at = CASE WHEN ? THEN COALESCE(processing_completed_at, ?) ELSE NULL END,
             updated_at = ?
         WHERE id = ?`,
		string(after), entry.Total(), entry.Processed(),
		entry.Errors == 0,
		after.Terminal(), now,
		now,
		meetingID,
	); err != nil {
		return MeetingUpdate{}, fmt.Errorf("update meeting state: %w", err)
	}
	return MeetingUpdate{MeetingID: meetingID, Before: progress.State(before), After: after}, nil
}

// recomputeMeetings recomputes each distinct meeting once.
func (s *Store) recomputeMeetings(ctx context.Context, tx *sql.Tx, meetingIDs []int64) ([]MeetingUpdate, error) {
	seen := make(map[int64]struct{}, len(meetingIDs))
	updates := make([]MeetingUpdate, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		update, err := s.recomputeMeeting(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// Stats returns the number of questions in each state across all meetings.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT processing_state, COUNT(1) FROM questions GROUP BY processing_state`)
	if err != nil {
		return nil, fmt.Errorf("question stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(AllStatuses))
	for _, status := range AllStatuses {
		stats[status] = 0
	}
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan question stats: %w", err)
		}
		stats[Status(state)] = count
	}
	return stats, rows.Err()
}
