package enrichment

import (
	"encoding/json"
	"strings"

	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
	"github.com/stevendeporre123/quest-app/internal/textutil"
)

type answerPayload struct {
	QuestionStart string   `json:"question_start_time"`
	QuestionEnd   string   `json:"question_end_time"`
	AnswerStart   string   `json:"answer_start_time"`
	AnswerEnd     string   `json:"answer_end_time"`
	Verbatim      string   `json:"answer_text_verbatim"`
	Text          string   `json:"answer_text_raw"`
	Summary       string   `json:"summary"`
	Actions       []string `json:"actions"`
	Topics        []string `json:"topics"`
	Note          string   `json:"note"`
}

// cleanJSONResponse strips code fences and any prose around the JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// decodeAnswer parses a model reply. Malformed output is transient: the same
// prompt usually succeeds on a later attempt.
func decodeAnswer(content string) (queue.Answer, error) {
	cleaned := cleanJSONResponse(content)
	if cleaned == "" {
		return queue.Answer{}, services.Wrap(services.ErrTransient, stage, "decode", "empty model response", nil)
	}
	var payload answerPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return queue.Answer{}, services.Wrap(services.ErrTransient, stage, "decode", "malformed model response", err)
	}

	answer := queue.Answer{
		Text:          textutil.NormalizeText(payload.Text),
		Verbatim:      textutil.NormalizeText(payload.Verbatim),
		Summary:       textutil.NormalizeText(payload.Summary),
		Note:          textutil.NormalizeText(payload.Note),
		Topics:        cleanList(payload.Topics),
		Actions:       cleanList(payload.Actions),
		QuestionStart: strings.TrimSpace(payload.QuestionStart),
		QuestionEnd:   strings.TrimSpace(payload.QuestionEnd),
		AnswerStart:   strings.TrimSpace(payload.AnswerStart),
		AnswerEnd:     strings.TrimSpace(payload.AnswerEnd),
	}
	if answer.Verbatim == "" {
		answer.Verbatim = answer.Text
	}
	return answer, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if v := textutil.NormalizeField(value); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
