package opencode

import (
	"time"

	"github.com/zeroshot/zeroshot/internal/client"
)

// Config holds configuration for spawning an OpenCode process. Referenced
// throughout this package's Spawn/Resume/spawnProcess functions and its
// integration tests but never defined anywhere in the retrieved source;
// shaped here to match those call sites and the flags documented in
// doc.go.
type Config struct {
	WorkDir      string
	Prompt       string
	SystemPrompt string
	SessionID    string // For --session
	Model        string // e.g. anthropic/claude-opus-4-5
	Timeout      time.Duration
	MCPConfig    string // JSON string passed via OPENCODE_CONFIG_CONTENT
}

// buildArgs constructs the opencode CLI argv for a run or resume
// invocation, per doc.go's documented flags:
//
//	opencode run --format json --model <model> [--session <id>] -- <prompt>
//
// OpenCode has no dedicated system-prompt flag; doc.go specifies prepending
// it to the prompt, separated by a blank line.
//
// Flags are gated on caps, probed from the installed binary's --help
// output, so an older opencode build that lacks a flag degrades instead of
// erroring out.
func buildArgs(cfg Config, isResume bool, caps client.Capabilities) []string {
	args := []string{"run"}
	if caps.SupportsOutputFormat {
		args = append(args, "--format", "json")
	} else {
		client.WarnIfUnsupported("opencode", "supportsOutputFormat", false)
	}

	if cfg.Model != "" {
		if caps.SupportsModel {
			args = append(args, "--model", cfg.Model)
		} else {
			client.WarnIfUnsupported("opencode", "supportsModel", false)
		}
	}
	if isResume && cfg.SessionID != "" {
		args = append(args, "--session", cfg.SessionID)
	}

	prompt := cfg.Prompt
	if cfg.SystemPrompt != "" {
		prompt = cfg.SystemPrompt + "\n\n" + prompt
	}

	args = append(args, "--", prompt)
	return args
}
