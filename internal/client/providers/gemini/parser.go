package gemini

import (
	"encoding/json"

	"github.com/zeroshot/zeroshot/internal/client"
)

// geminiContextWindowSize is the context window size for Gemini 3 Pro and
// Gemini 2.5 Flash, both larger than the Claude-family models.
const geminiContextWindowSize = 1048576

// Parser implements client.EventParser for Gemini CLI's stream-json output,
// whose event shape (geminiEvent) differs from the Claude/Amp/Codex family
// enough to need its own mapping, done in mapEventType (events.go).
type Parser struct {
	client.BaseParser
}

// NewParser creates a new Gemini EventParser with the default context
// window size.
func NewParser() *Parser {
	return &Parser{
		BaseParser: client.NewBaseParser(geminiContextWindowSize),
	}
}

// ParseEvent converts one line of Gemini CLI's stream-json output to a
// client.OutputEvent.
func (p *Parser) ParseEvent(data []byte) (client.OutputEvent, error) {
	var raw geminiEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, err
	}

	event := client.OutputEvent{
		Type:      mapEventType(raw.Type, raw.Role),
		SessionID: raw.SessionID,
		Delta:     raw.Delta,
	}

	if raw.Type == "init" {
		event.SubType = "init"
	}

	if raw.Type == "message" {
		event.Message = &client.MessageContent{
			Role:  raw.Role,
			Model: raw.Model,
		}
		if raw.Content != "" {
			event.Message.Content = append(event.Message.Content, client.ContentBlock{
				Type: "text",
				Text: raw.Content,
			})
		}
	}

	if raw.Type == "tool_use" || raw.Type == "tool_result" {
		event.Tool = &client.ToolContent{
			ID:     raw.ToolID,
			Name:   raw.ToolName,
			Output: raw.Output,
		}
	}

	if raw.Type == "result" {
		event.Result = raw.Content
		if raw.Stats != nil {
			event.DurationMs = raw.Stats.DurationMs
			event.Usage = &client.UsageInfo{
				TokensUsed:   raw.Stats.TokensPrompt + raw.Stats.TokensCached,
				TotalTokens:  p.ContextWindowSize(),
				OutputTokens: raw.Stats.TokensCandidates,
			}
		}
	}

	if raw.Error != nil {
		event.Error = &client.ErrorInfo{
			Message: raw.Error.Message,
			Code:    raw.Error.Code,
		}
		event.IsErrorResult = raw.Type == "result"
	}
	if raw.Status == "error" {
		event.IsErrorResult = true
	}

	event.Raw = make([]byte, len(data))
	copy(event.Raw, data)

	return event, nil
}

// ExtractSessionRef returns the session identifier from an init event.
func (p *Parser) ExtractSessionRef(event client.OutputEvent, _ []byte) string {
	if event.IsInit() {
		return event.SessionID
	}
	return ""
}

// Verify Parser implements EventParser at compile time.
var _ client.EventParser = (*Parser)(nil)
