package amp

import "github.com/zeroshot/zeroshot/internal/client"

// buildArgs constructs the command line arguments for amp.
// For new sessions, the prompt is passed as the final positional argument.
// For resume, we use "threads continue <thread-id>".
// Flags are gated on caps, probed from the installed binary's --help output,
// so an older amp build that lacks a flag degrades instead of erroring out.
func buildArgs(cfg Config, isResume bool, caps client.Capabilities) []string {
	var args []string

	// For resume, use "threads continue <thread-id>" subcommand
	if isResume && cfg.ThreadID != "" {
		args = append(args, "threads", "continue", cfg.ThreadID)
	}

	// Skip permission prompts
	if cfg.SkipPermissions {
		if caps.SupportsAutoApprove {
			args = append(args, "--dangerously-allow-all")
		} else {
			client.WarnIfUnsupported("amp", "supportsAutoApprove", false)
		}
	}

	// Disable notifications in headless mode
	args = append(args, "--no-notifications")

	// Disable IDE integration in headless mode
	if cfg.DisableIDE {
		args = append(args, "--no-ide")
	}

	// Model selection: Amp defaults to Opus, use --use-sonnet for Sonnet
	if cfg.Model == "sonnet" {
		args = append(args, "--use-sonnet")
	}

	// Agent mode
	if cfg.Mode != "" {
		args = append(args, "-m", cfg.Mode)
	}

	// MCP configuration
	if cfg.MCPConfig != "" {
		if caps.SupportsConfigOverride {
			args = append(args, "--mcp-config", cfg.MCPConfig)
		} else {
			client.WarnIfUnsupported("amp", "supportsConfigOverride", false)
		}
	}

	// Execute mode with stream-json output
	if caps.SupportsStreamJSON {
		args = append(args, "--stream-json", "-x")
	} else {
		client.WarnIfUnsupported("amp", "supportsStreamJson", false)
		args = append(args, "-x")
	}

	// Prompt as final positional argument (if present)
	if cfg.Prompt != "" {
		args = append(args, cfg.Prompt)
	}

	return args
}
