package progress

import "time"

// State is the derived, never independently set, processing state of a meeting.
type State string

const (
	StateQueued              State = "queued"
	StateInProgress          State = "in_progress"
	StateCompleted           State = "completed"
	StateCompletedWithErrors State = "completed_with_errors"
)

// Terminal reports whether no question of the meeting can change state
// without an explicit requeue.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCompletedWithErrors
}

// Counters tallies a meeting's questions by processing state.
type Counters struct {
	Pending    int
	InProgress int
	Completed  int
	Errors     int
}

// Total is the number of questions counted.
func (c Counters) Total() int {
	return c.Pending + c.InProgress + c.Completed + c.Errors
}

// Processed counts questions in a terminal state.
func (c Counters) Processed() int {
	return c.Completed + c.Errors
}

// Add merges another set of counters into c.
func (c Counters) Add(other Counters) Counters {
	return Counters{
		Pending:    c.Pending + other.Pending,
		InProgress: c.InProgress + other.InProgress,
		Completed:  c.Completed + other.Completed,
		Errors:     c.Errors + other.Errors,
	}
}

// State derives the meeting state. A meeting whose questions are all still
// waiting is queued; an empty meeting has nothing left to do and is completed.
func (c Counters) State() State {
	switch {
	case c.Pending == 0 && c.InProgress == 0 && c.Errors == 0:
		return StateCompleted
	case c.Pending == 0 && c.InProgress == 0:
		return StateCompletedWithErrors
	case c.Pending == c.Total():
		return StateQueued
	default:
		return StateInProgress
	}
}

// MeetingProgress pairs a meeting with its counters.
type MeetingProgress struct {
	MeetingID int64
	CreatedAt time.Time
	Counters
}

// State derives the meeting state from the embedded counters.
func (m MeetingProgress) State() State {
	return m.Counters.State()
}
