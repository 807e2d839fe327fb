package opencode

import (
	"context"

	"github.com/zeroshot/zeroshot/internal/client"
)

// This package's client_test.go asserts ClientOpenCode is registered via
// init(), matching the pattern every other provider package in this tree
// follows (claude/amp/codex/gemini each carry a client.go doing the same);
// this file was missing from the retrieved source.
func init() {
	client.RegisterClient(client.ClientOpenCode, func() client.HeadlessClient {
		return NewClient()
	})
	client.RegisterLevelTable(client.ClientOpenCode, client.LevelTable{
		MinLevel:     client.Level1,
		MaxLevel:     client.Level3,
		DefaultLevel: client.Level2,
		Models: map[client.Level]string{
			client.Level1: "anthropic/claude-haiku-4-5",
			client.Level2: "anthropic/claude-sonnet-4-5",
			client.Level3: "anthropic/claude-opus-4-5",
		},
	})
}

// OpenCodeClient implements client.HeadlessClient for the OpenCode CLI.
type OpenCodeClient struct{}

// NewClient creates a new OpenCodeClient.
func NewClient() *OpenCodeClient {
	return &OpenCodeClient{}
}

// Type returns the client type identifier.
func (c *OpenCodeClient) Type() client.ClientType {
	return client.ClientOpenCode
}

// Spawn creates and starts a headless OpenCode process.
// If cfg.SessionID is set, resumes an existing session.
// If cfg.SessionID is empty, creates a new session.
func (c *OpenCodeClient) Spawn(ctx context.Context, cfg client.Config) (client.HeadlessProcess, error) {
	ocCfg := configFromClient(cfg)
	if cfg.SessionID != "" {
		return Resume(ctx, cfg.SessionID, ocCfg)
	}
	return Spawn(ctx, ocCfg)
}

// configFromClient converts a client.Config to an opencode.Config.
func configFromClient(cfg client.Config) Config {
	return Config{
		WorkDir:      cfg.WorkDir,
		Prompt:       cfg.Prompt,
		SystemPrompt: cfg.SystemPrompt,
		SessionID:    cfg.SessionID,
		Model:        cfg.OpenCodeModel(),
		Timeout:      cfg.Timeout,
		MCPConfig:    cfg.MCPConfig,
	}
}

// Ensure OpenCodeClient implements client.HeadlessClient at compile time.
var _ client.HeadlessClient = (*OpenCodeClient)(nil)
