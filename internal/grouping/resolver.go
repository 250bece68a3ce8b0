package grouping

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle reports an assignment that would make a question inherit,
	// directly or transitively, from itself.
	ErrCycle = errors.New("inheritance cycle")
	// ErrChainCorrupt reports an existing chain longer than the meeting,
	// which can only happen when a cycle is already persisted.
	ErrChainCorrupt = errors.New("inheritance chain exceeds meeting size")
)

// Outcome is the processing outcome of a source question as seen by its inheritors.
type Outcome int

const (
	// OutcomePending covers queued and in_progress sources.
	OutcomePending Outcome = iota
	OutcomeAnswered
	OutcomeFailed
)

// Next returns the question a given question inherits from; ok is false when
// it does not inherit.
type Next func(questionID int64) (sourceID int64, ok bool, err error)

// Eligible reports whether a queued question may move forward. A question
// never overtakes an earlier independent question of its meeting that is
// still queued or in progress; earlierPending reports that case. Inheriting
// questions also wait until the source reaches a terminal outcome. An earlier
// question that itself inherits does not count as pending, so a question
// waiting on a later source never blocks the agenda.
func Eligible(inherits bool, source Outcome, earlierPending bool) bool {
	if earlierPending {
		return false
	}
	if !inherits {
		return true
	}
	return source != OutcomePending
}

// Resolution describes how an inheriting question settles once its source is terminal.
type Resolution struct {
	// CopyAnswer is true when the source's answer fields are copied.
	CopyAnswer bool
	// Note is written to processing_error; empty for a clean inheritance.
	Note string
}

// Resolve settles an inheriting question against its terminal source. A
// failed source still ends the inheritor in done so it never blocks, with a
// note pointing at the source. A source that is itself done with a note
// passes that note along the chain.
func Resolve(sourceID int64, source Outcome, sourceError string) (Resolution, bool) {
	switch source {
	case OutcomeAnswered:
		return Resolution{CopyAnswer: true, Note: sourceError}, true
	case OutcomeFailed:
		note := fmt.Sprintf("inherited error from question %d", sourceID)
		if sourceError != "" {
			note += ": " + sourceError
		}
		return Resolution{Note: note}, true
	default:
		return Resolution{}, false
	}
}

// CheckAssignment validates making questionID inherit from sourceID. It walks
// the chain starting at sourceID for at most bound steps and fails with
// ErrCycle if the walk reaches questionID. bound is the number of questions in
// the meeting; a longer chain means the relation is already cyclic.
func CheckAssignment(questionID, sourceID int64, bound int, next Next) error {
	if questionID == sourceID {
		return fmt.Errorf("%w: question %d cannot inherit from itself", ErrCycle, questionID)
	}
	current := sourceID
	for step := 0; step < bound; step++ {
		parent, ok, err := next(current)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if parent == questionID {
			return fmt.Errorf("%w: question %d already inherits from question %d", ErrCycle, sourceID, questionID)
		}
		current = parent
	}
	return fmt.Errorf("%w: walked %d steps from question %d", ErrChainCorrupt, bound, sourceID)
}

// Root follows the chain from start to the question that does not inherit.
// That question is the group primary.
func Root(start int64, bound int, next Next) (int64, error) {
	current := start
	for step := 0; step <= bound; step++ {
		parent, ok, err := next(current)
		if err != nil {
			return 0, err
		}
		if !ok {
			return current, nil
		}
		current = parent
	}
	return 0, fmt.Errorf("%w: walked %d steps from question %d", ErrChainCorrupt, bound, start)
}
