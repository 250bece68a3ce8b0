package queue

import (
	"errors"

	"github.com/stevendeporre123/quest-app/internal/grouping"
)

var (
	// ErrNotFound reports a missing meeting or question.
	ErrNotFound = errors.New("not found")
	// ErrJobLost reports a worker write against a question that is no longer
	// in the claimed attempt, typically because its meeting was deleted or
	// the question was reclaimed.
	ErrJobLost = errors.New("job no longer claimed")
	// ErrQuestionBusy reports a mutation refused because the question is in_progress.
	ErrQuestionBusy = errors.New("question is in progress")
	// ErrCrossMeeting reports an inheritance assignment across meetings.
	ErrCrossMeeting = errors.New("inheritance source belongs to another meeting")
	// ErrInheritanceCycle reports an assignment that would close a cycle.
	ErrInheritanceCycle = grouping.ErrCycle
)
