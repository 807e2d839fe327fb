package amp

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zeroshot/zeroshot/internal/client"
)

// AmpContextWindowSize is the context window size backing Amp's models
// (Claude Opus by default, Sonnet with --use-sonnet; see buildArgs).
const AmpContextWindowSize = 200000

// Parser implements client.EventParser for Amp's --stream-json output,
// which is Claude Code-compatible apart from one quirk: some upstream
// failures arrive as a string error field instead of an object (see
// parseErrorField).
type Parser struct {
	client.BaseParser
}

// NewParser creates a new Amp EventParser with the default context window
// size.
func NewParser() *Parser {
	return &Parser{
		BaseParser: client.NewBaseParser(AmpContextWindowSize),
	}
}

// ParseEvent converts one line of Amp's --stream-json output to a
// client.OutputEvent.
func (p *Parser) ParseEvent(data []byte) (client.OutputEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, err
	}

	event := client.OutputEvent{
		Type:          raw.Type,
		SubType:       raw.SubType,
		SessionID:     raw.SessionID,
		WorkDir:       raw.WorkDir,
		TotalCostUSD:  raw.TotalCostUSD,
		DurationMs:    raw.DurationMs,
		IsErrorResult: raw.IsErrorResult,
		Result:        raw.Result,
	}

	event.Error = parseErrorField(raw.Error)

	if raw.Message != nil {
		event.Message = &client.MessageContent{
			ID:    raw.Message.ID,
			Role:  raw.Message.Role,
			Model: raw.Message.Model,
		}
		for _, block := range raw.Message.Content {
			event.Message.Content = append(event.Message.Content, client.ContentBlock{
				Type: block.Type,
				Text: block.Text,
				ID:   block.ID,
				Name: block.Name,
			})
		}

		if tools := event.Message.GetToolUses(); len(tools) > 0 {
			event.Tool = &client.ToolContent{ID: tools[0].ID, Name: tools[0].Name}
		}

		if raw.Message.Usage != nil {
			u := raw.Message.Usage
			event.Usage = &client.UsageInfo{
				TokensUsed:   u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens,
				TotalTokens:  p.ContextWindowSize(),
				OutputTokens: u.OutputTokens,
			}
		}
	}

	event.Raw = make([]byte, len(data))
	copy(event.Raw, data)

	return event, nil
}

// parseErrorField handles Amp's polymorphic error field. It is usually an
// object ({"message": ..., "code": ...}), but result events reporting an
// upstream failure send it as a string carrying an HTTP status code
// followed by a JSON blob, e.g. `413 {"type":"error","error":{...}}`.
func parseErrorField(raw json.RawMessage) *client.ErrorInfo {
	if len(raw) == 0 {
		return nil
	}

	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		info := &client.ErrorInfo{Message: obj.Message, Code: obj.Code}
		if strings.Contains(strings.ToLower(obj.Message), "prompt is too long") {
			info.Reason = client.ErrReasonContextExceeded
		}
		return info
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil && str != "" {
		return parseNestedErrorString(str)
	}

	return nil
}

// parseNestedErrorString parses the "<status> {json}" format, e.g.
// `413 {"type":"error","error":{"type":"invalid_request_error","message":"Prompt is too long"},"request_id":"..."}`.
func parseNestedErrorString(s string) *client.ErrorInfo {
	fields := strings.SplitN(s, " ", 2)
	if len(fields) != 2 {
		return &client.ErrorInfo{Message: s}
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return &client.ErrorInfo{Message: s}
	}

	var nested struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(fields[1]), &nested); err != nil || nested.Error.Message == "" {
		return &client.ErrorInfo{Message: s}
	}

	info := &client.ErrorInfo{
		Message: nested.Error.Message,
		Code:    nested.Error.Type,
	}
	if strings.Contains(strings.ToLower(nested.Error.Message), "prompt is too long") {
		info.Reason = client.ErrReasonContextExceeded
	}
	return info
}

// ExtractSessionRef returns the thread ID from an init event, mirroring
// the pattern every provider's parser uses to hand a session identifier
// back to BaseProcess.
func (p *Parser) ExtractSessionRef(event client.OutputEvent, _ []byte) string {
	if event.IsInit() {
		return event.SessionID
	}
	return ""
}

// Verify Parser implements EventParser at compile time.
var _ client.EventParser = (*Parser)(nil)
