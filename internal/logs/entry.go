package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/stevendeporre123/quest-app/internal/logging"
)

// Entry is one decoded log record.
type Entry struct {
	Time       time.Time
	Level      slog.Level
	Message    string
	Component  string
	MeetingID  int64
	QuestionID int64
	Fields     map[string]any
	Raw        string
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	MeetingID  int64
	QuestionID int64
	Component  string
	MinLevel   slog.Level
}

// Parse decodes a JSON log line. Lines that are not JSON objects are
// returned as INFO entries carrying only the raw text.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Level: slog.LevelInfo, Message: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry
	}
	entry.Fields = fields
	entry.Message = stringField(fields, slog.MessageKey)
	entry.Component = stringField(fields, logging.FieldComponent)
	entry.MeetingID = intField(fields, logging.FieldMeetingID)
	entry.QuestionID = intField(fields, logging.FieldQuestionID)
	if raw := stringField(fields, logging.FieldTimestamp); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.Time = ts
		}
	}
	if raw := stringField(fields, slog.LevelKey); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			entry.Level = level
		}
	}
	return entry
}

// Match reports whether the entry passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.MeetingID != 0 && e.MeetingID != f.MeetingID {
		return false
	}
	if f.QuestionID != 0 && e.QuestionID != f.QuestionID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	return true
}

func stringField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}

// intField accepts numbers and numeric strings; slog writes int64 attrs as JSON numbers.
func intField(fields map[string]any, key string) int64 {
	switch value := fields[key].(type) {
	case float64:
		return int64(value)
	case string:
		var out int64
		if err := json.Unmarshal([]byte(value), &out); err == nil {
			return out
		}
	}
	return 0
}
