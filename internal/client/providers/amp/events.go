package amp

import (
	"encoding/json"

	"github.com/zeroshot/zeroshot/internal/client"
)

// rawUsage holds raw token usage nested inside an assistant message, the
// same shape Claude CLI uses (Amp's --stream-json output is Claude
// Code-compatible, per doc.go).
type rawUsage struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

type contentBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
	// Tool use fields (when Type == "tool_use").
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

type messageContent struct {
	ID      string         `json:"id,omitempty"`
	Role    string         `json:"role,omitempty"`
	Content []contentBlock `json:"content,omitempty"`
	Model   string         `json:"model,omitempty"`
	Usage   *rawUsage      `json:"usage,omitempty"`
}

// rawEvent mirrors client.OutputEvent but with Amp's raw field shapes.
// Error is a json.RawMessage because Amp sends it as either an object
// ({"message": ..., "code": ...}) or, for certain upstream failures, a
// string carrying an HTTP-status-prefixed JSON blob (see parseErrorField).
type rawEvent struct {
	Type          client.EventType `json:"type"`
	SubType       string           `json:"subtype,omitempty"`
	SessionID     string           `json:"session_id,omitempty"`
	WorkDir       string           `json:"cwd,omitempty"`
	Message       *messageContent  `json:"message,omitempty"`
	Error         json.RawMessage  `json:"error,omitempty"`
	TotalCostUSD  float64          `json:"total_cost_usd,omitempty"`
	DurationMs    int64            `json:"duration_ms,omitempty"`
	IsErrorResult bool             `json:"is_error,omitempty"`
	Result        string           `json:"result,omitempty"`
	NumTurns      int              `json:"num_turns,omitempty"`
}
