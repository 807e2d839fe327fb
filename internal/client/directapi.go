package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DirectAPICredentialEnv is the environment variable whose presence enables
// the direct-API fast path per spec.md §4.3/§6.
const DirectAPICredentialEnv = "ANTHROPIC_API_KEY"

// HasDirectAPICredential reports whether the direct-API fast path can be
// used in this process.
func HasDirectAPICredential(lookupEnv func(string) (string, bool)) bool {
	_, ok := lookupEnv(DirectAPICredentialEnv)
	return ok
}

// DirectAPIRequest is the input to a direct provider-API call.
type DirectAPIRequest struct {
	Model     string
	Prompt    string
	System    string
	MaxTokens int
}

// ErrDirectAPIValidation is returned when a direct-API response cannot be
// coerced into valid JSON by any extraction strategy.
var ErrDirectAPIValidation = fmt.Errorf("direct api response failed validation")

// DirectAPIClient calls a provider's HTTP API directly, bypassing subprocess
// spawn entirely. The only implementation in this module targets Anthropic's
// Messages API, since ANTHROPIC_API_KEY is the only credential spec.md §6
// names as load-bearing.
type DirectAPIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewDirectAPIClient constructs a client reading its key from apiKey.
func NewDirectAPIClient(apiKey string) *DirectAPIClient {
	return &DirectAPIClient{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		apiKey:     apiKey,
		baseURL:    "https://api.anthropic.com/v1/messages",
	}
}

type anthropicMessageRequest struct {
	Model     string                     `json:"model"`
	MaxTokens int                        `json:"max_tokens"`
	System    string                     `json:"system,omitempty"`
	Messages  []anthropicMessageReqEntry `json:"messages"`
}

type anthropicMessageReqEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Call sends req and returns the raw assistant text. Rate-limit responses
// (HTTP 429) are mapped to ErrRateLimited.
func (c *DirectAPIClient) Call(ctx context.Context, req DirectAPIRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(anthropicMessageRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []anthropicMessageReqEntry{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal direct api request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build direct api request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("direct api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read direct api response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrRateLimited, strings.TrimSpace(string(respBody)))
	}

	var parsed anthropicMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal direct api response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("direct api error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// ExtractJSON implements the resilient JSON extraction policy from
// spec.md §4.3: strict parse, then a fenced code block, then the first
// balanced object, else ErrDirectAPIValidation.
func ExtractJSON(raw string, out any) error {
	raw = strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	if m := fencedJSONBlock.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(m[1]), out); err == nil {
			return nil
		}
	}

	if obj := firstBalancedObject(raw); obj != "" {
		if err := json.Unmarshal([]byte(obj), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: no valid JSON object found", ErrDirectAPIValidation)
}

// firstBalancedObject scans raw for the first brace-balanced {...} span,
// respecting string literals and escapes so braces inside strings don't
// throw off the depth count.
func firstBalancedObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// inside a string literal, ignore braces
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
