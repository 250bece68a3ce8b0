package workflow

import (
	"context"
	"time"

	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/notifications"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

const notifyTimeout = 15 * time.Second

// notifyMeetingUpdates announces meetings that just reached a terminal state.
func (m *Manager) notifyMeetingUpdates(ctx context.Context, updates []queue.MeetingUpdate) {
	if m.notifier == nil {
		return
	}
	for _, update := range updates {
		if !update.Finished() {
			continue
		}
		payload := notifications.Payload{"meetingID": update.MeetingID}
		if meeting, err := m.store.GetMeeting(ctx, update.MeetingID); err == nil && meeting != nil {
			payload["commission"] = meeting.CommissionName
			payload["date"] = meeting.MeetingDate
		}
		if counters, ok, err := m.store.MeetingCounters(ctx, update.MeetingID); err == nil && ok {
			payload["completed"] = counters.Completed
			payload["errors"] = counters.Errors
		}
		m.logger.Info("meeting processing finished",
			logging.MeetingID(update.MeetingID),
			logging.String("meeting_state", string(update.After)),
			logging.Event("meeting_finished"),
		)
		m.publish(ctx, notifications.EventMeetingCompleted, payload)
	}
}

func (m *Manager) notifyQuestionFailed(ctx context.Context, job *queue.Job, message string) {
	if m.notifier == nil {
		return
	}
	payload := notifications.Payload{
		"meetingID": job.MeetingID,
		"index":     job.Question.SourceIdx,
		"error":     message,
	}
	if job.Meeting != nil {
		payload["commission"] = job.Meeting.CommissionName
		payload["date"] = job.Meeting.MeetingDate
	}
	m.publish(ctx, notifications.EventQuestionFailed, payload)
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := m.notifier.Publish(notifyCtx, event, payload); err != nil {
		m.logger.Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.Event("notification_failed"),
		)
	}
}
