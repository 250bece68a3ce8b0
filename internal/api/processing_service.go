package api

import (
	"context"

	"github.com/stevendeporre123/quest-app/internal/grouping"
	"github.com/stevendeporre123/quest-app/internal/progress"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// ProcessingStore abstracts the persistence operations behind the HTTP and CLI surfaces.
type ProcessingStore interface {
	progress.Reader
	CreateMeeting(ctx context.Context, in queue.NewMeeting) (*queue.Meeting, error)
	GetMeeting(ctx context.Context, id int64) (*queue.Meeting, error)
	ListMeetings(ctx context.Context) ([]*queue.Meeting, error)
	DeleteMeeting(ctx context.Context, id int64) (bool, error)
	ListQuestions(ctx context.Context, meetingID int64) ([]*queue.Question, error)
	SetInheritance(ctx context.Context, questionID int64, sourceID *int64) (*queue.Question, error)
	Requeue(ctx context.Context, questionID int64) (*queue.Question, error)
}

// Waker is notified when new work may have become eligible.
type Waker interface {
	Notify()
}

// ProcessingService exposes meeting and question operations returning API DTOs.
type ProcessingService struct {
	store    ProcessingStore
	progress *progress.Aggregator
	waker    Waker
}

// NewProcessingService constructs a service around the provided store. waker may be nil.
func NewProcessingService(store ProcessingStore, waker Waker) *ProcessingService {
	if store == nil {
		return nil
	}
	return &ProcessingService{
		store:    store,
		progress: progress.NewAggregator(store),
		waker:    waker,
	}
}

func (s *ProcessingService) wake() {
	if s.waker != nil {
		s.waker.Notify()
	}
}

// MeetingProgress returns the counters of one meeting, or nil when it does not exist.
func (s *ProcessingService) MeetingProgress(ctx context.Context, meetingID int64) (*MeetingProgress, error) {
	entry, ok, err := s.progress.Meeting(ctx, meetingID)
	if err != nil || !ok {
		return nil, err
	}
	dto := FromProgress(entry)
	return &dto, nil
}

// Queue returns the meetings that still have unfinished questions along with
// counters summed over all meetings.
func (s *ProcessingService) Queue(ctx context.Context) (QueueResponse, error) {
	entries, err := s.progress.Queue(ctx)
	if err != nil {
		return QueueResponse{}, err
	}
	totals, err := s.progress.Totals(ctx)
	if err != nil {
		return QueueResponse{}, err
	}
	return QueueResponse{Meetings: FromQueueEntries(entries), Totals: FromTotals(totals)}, nil
}

// Upload ingests a meeting and wakes the dispatcher. Enrichment happens in
// the background; the response only acknowledges the ingest.
func (s *ProcessingService) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	meeting, err := s.store.CreateMeeting(ctx, ToNewMeeting(req))
	if err != nil {
		return UploadResponse{}, err
	}
	s.wake()
	return UploadResponse{
		Status:    "queued",
		MeetingID: meeting.ID,
		Questions: meeting.TotalQuestions,
	}, nil
}

// ListMeetings returns every meeting, newest first.
func (s *ProcessingService) ListMeetings(ctx context.Context) (MeetingListResponse, error) {
	meetings, err := s.store.ListMeetings(ctx)
	if err != nil {
		return MeetingListResponse{}, err
	}
	return MeetingListResponse{Meetings: FromMeetings(meetings)}, nil
}

// DescribeMeeting returns a meeting with its agenda, or nil when it does not exist.
func (s *ProcessingService) DescribeMeeting(ctx context.Context, meetingID int64) (*MeetingDetail, error) {
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil || meeting == nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return &MeetingDetail{
		Meeting:   FromMeeting(meeting),
		Questions: FromQuestions(questions),
	}, nil
}

// DeleteMeeting removes a meeting and its questions. A worker processing
// one of them abandons its job on the next write.
func (s *ProcessingService) DeleteMeeting(ctx context.Context, meetingID int64) (bool, error) {
	return s.store.DeleteMeeting(ctx, meetingID)
}

// SetInheritance assigns or clears a question's answer source.
func (s *ProcessingService) SetInheritance(ctx context.Context, questionID int64, req InheritRequest) (*Question, error) {
	q, err := s.store.SetInheritance(ctx, questionID, req.InheritsFromID)
	if err != nil {
		return nil, err
	}
	s.wake()
	dto := FromQuestion(q)
	return &dto, nil
}

// Requeue resets a finished question so it is answered again.
func (s *ProcessingService) Requeue(ctx context.Context, questionID int64) (*Question, error) {
	q, err := s.store.Requeue(ctx, questionID)
	if err != nil {
		return nil, err
	}
	s.wake()
	dto := FromQuestion(q)
	return &dto, nil
}

// Suggestions proposes inheritance assignments for a meeting, or returns nil
// when the meeting does not exist.
func (s *ProcessingService) Suggestions(ctx context.Context, meetingID int64) (*SuggestionsResponse, error) {
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil || meeting == nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	candidates := make([]grouping.Candidate, 0, len(questions))
	for _, q := range questions {
		candidates = append(candidates, grouping.Candidate{
			ID:        q.ID,
			SourceIdx: q.SourceIdx,
			DossierID: q.DossierID,
			Title:     q.Title,
			Subject:   q.Subject,
			Text:      q.QuestionText,
			Inherits:  q.InheritsFromID != nil,
		})
	}
	return &SuggestionsResponse{
		MeetingID:   meetingID,
		Suggestions: FromSuggestions(grouping.Suggest(candidates, grouping.DefaultSimilarityThreshold)),
	}, nil
}
