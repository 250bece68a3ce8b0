package progress

import (
	"context"
	"sort"
)

// Reader is the read-only view of the store the aggregator needs.
type Reader interface {
	// MeetingCounters returns the counters for one meeting; ok is false when
	// the meeting does not exist.
	MeetingCounters(ctx context.Context, meetingID int64) (MeetingProgress, bool, error)
	// AllMeetingCounters returns counters for every meeting.
	AllMeetingCounters(ctx context.Context) ([]MeetingProgress, error)
}

// Aggregator computes per-meeting and global progress views.
type Aggregator struct {
	reader Reader
}

// NewAggregator constructs an aggregator over the provided reader.
func NewAggregator(reader Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// Meeting returns the progress of a single meeting.
func (a *Aggregator) Meeting(ctx context.Context, meetingID int64) (MeetingProgress, bool, error) {
	return a.reader.MeetingCounters(ctx, meetingID)
}

// Queue returns meetings that still have pending or in-flight questions,
// oldest meeting first.
func (a *Aggregator) Queue(ctx context.Context) ([]MeetingProgress, error) {
	all, err := a.reader.AllMeetingCounters(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]MeetingProgress, 0, len(all))
	for _, entry := range all {
		if entry.State().Terminal() {
			continue
		}
		active = append(active, entry)
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].MeetingID < active[j].MeetingID
	})
	return active, nil
}

// Totals sums the counters of every meeting in the store.
func (a *Aggregator) Totals(ctx context.Context) (Counters, error) {
	all, err := a.reader.AllMeetingCounters(ctx)
	if err != nil {
		return Counters{}, err
	}
	var total Counters
	for _, entry := range all {
		total = total.Add(entry.Counters)
	}
	return total, nil
}
