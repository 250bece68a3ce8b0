package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stevendeporre123/quest-app/internal/progress"
	"github.com/stevendeporre123/quest-app/internal/textutil"
)

// CreateMeeting inserts a meeting and its agenda in one transaction. Every
// question is queued at its agenda position, so it is a legal job as soon as
// the call returns.
func (s *Store) CreateMeeting(ctx context.Context, in NewMeeting) (*Meeting, error) {
	ctx = ensureContext(ctx)
	var meeting *Meeting
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(s.timestamp())
		initial := progress.Counters{Pending: len(in.Questions)}.State()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO meetings (meeting_date, commission_name, webcast_id, transcript_text,
                processing_state, total_questions, processed_questions, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			nullableString(textutil.NormalizeField(in.MeetingDate)),
			nullableString(textutil.NormalizeField(in.CommissionName)),
			nullableString(textutil.NormalizeField(in.WebcastID)),
			textutil.NormalizeText(in.Transcript),
			string(initial), len(in.Questions), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert meeting: %w", err)
		}
		meetingID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("meeting id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO questions (meeting_id, source_question_idx, dossier_id, dossier_year_nr, sequence_nr,
                title, subject, roi_type, submitter_given_name, submitter_family_name, submitter_faction,
                assignee_label, assignee_given_name, assignee_family_name, question_text,
                processing_state, processing_attempts, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare question insert: %w", err)
		}
		defer stmt.Close()

		for idx, q := range in.Questions {
			if _, err := stmt.ExecContext(ctx,
				meetingID, idx,
				nullableString(textutil.NormalizeField(q.DossierID)),
				nullableString(textutil.NormalizeField(q.DossierYearNr)),
				nullableString(textutil.NormalizeField(q.SequenceNr)),
				nullableString(textutil.NormalizeField(q.Title)),
				nullableString(textutil.NormalizeField(q.Subject)),
				nullableString(textutil.NormalizeField(q.RoiType)),
				nullableString(textutil.NormalizeField(q.SubmitterGivenName)),
				nullableString(textutil.NormalizeField(q.SubmitterFamilyName)),
				nullableString(textutil.NormalizeField(q.SubmitterFaction)),
				nullableString(textutil.NormalizeField(q.AssigneeLabel)),
				nullableString(textutil.NormalizeField(q.AssigneeGivenName)),
				nullableString(textutil.NormalizeField(q.AssigneeFamilyName)),
				textutil.NormalizeText(q.QuestionText),
				string(StatusQueued), now, now,
			); err != nil {
				return fmt.Errorf("insert question %d: %w", idx, err)
			}
		}

		if _, err := s.recomputeMeeting(ctx, tx, meetingID); err != nil {
			return err
		}
		meeting, err = getMeeting(ctx, tx, meetingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func getMeeting(ctx context.Context, q queryer, id int64) (*Meeting, error) {
	row := q.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	meeting, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load meeting %d: %w", id, err)
	}
	return meeting, nil
}

// GetMeeting fetches a meeting by ID; it returns nil when none exists.
func (s *Store) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	return getMeeting(ensureContext(ctx), s.db, id)
}

// ListMeetings returns all meetings, newest first.
func (s *Store) ListMeetings(ctx context.Context) ([]*Meeting, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+meetingColumns+` FROM meetings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

// DeleteMeeting removes a meeting and, by cascade, its questions. A worker
// still holding one of those questions finds its claim gone on the next write
// and abandons the job.
func (s *Store) DeleteMeeting(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete meeting %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
