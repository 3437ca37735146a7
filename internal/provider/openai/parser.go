package openai

import (
	"encoding/json"
	"strings"

	"github.com/davidbz/promptforge/internal/domain"
)

// doneSentinel terminates an SSE completion stream.
const doneSentinel = "[DONE]"

// streamPayload is the duck-typed shape of one provider event. Chunk deltas,
// full-message responses, legacy text completions, and error wrappers all
// decode into it; unknown fields are ignored.
type streamPayload struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"` // number or string depending on provider
	} `json:"error"`
	Choices []struct {
		Delta *struct {
			Content json.RawMessage `json:"content"`
		} `json:"delta"`
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text         string  `json:"text"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// contentPart is one element of a typed content-part list.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseFrame turns one frame into a stream event. It never fails: frames
// with no data lines or with payloads that don't decode are ignored and the
// caller keeps reading.
func parseFrame(frame string) (domain.StreamEvent, bool) {
	var dataLines []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(rest, " "))
		}
	}
	if len(dataLines) == 0 {
		return domain.StreamEvent{}, false
	}

	payload := strings.Join(dataLines, "\n")
	if strings.TrimSpace(payload) == doneSentinel {
		return domain.StreamEvent{Type: domain.EventDone}, true
	}

	var p streamPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return domain.StreamEvent{}, false
	}

	if p.Error != nil {
		message := p.Error.Message
		if message == "" {
			message = "provider returned an error"
		}
		status := 0
		if code, isNum := p.Error.Code.(float64); isNum {
			status = int(code)
		}
		return domain.StreamEvent{Type: domain.EventError, Message: message, Status: status}, true
	}

	var text strings.Builder
	finished := false
	for _, choice := range p.Choices {
		if choice.Delta != nil {
			text.WriteString(decodeContent(choice.Delta.Content))
		}
		if choice.Message != nil {
			text.WriteString(decodeContent(choice.Message.Content))
		}
		text.WriteString(choice.Text)
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finished = true
		}
	}

	if text.Len() > 0 {
		return domain.StreamEvent{Type: domain.EventChunk, Text: text.String()}, true
	}
	if finished {
		return domain.StreamEvent{Type: domain.EventDone}, true
	}
	return domain.StreamEvent{}, false
}

// decodeContent accepts content as either a plain string or a list of typed
// text parts. Anything else contributes nothing.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, part := range parts {
			if part.Type == "" || part.Type == "text" || part.Type == "output_text" {
				b.WriteString(part.Text)
			}
		}
		return b.String()
	}

	return ""
}
