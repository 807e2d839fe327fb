package gemini

import "github.com/zeroshot/zeroshot/internal/client"

// buildArgs constructs the command line arguments for Gemini CLI.
//
// Gemini CLI uses the following argument pattern:
//   - Flags first: ["-m", "<model>", "--yolo", "--output-format", "stream-json"]
//   - Prompt: positional for new sessions, "-p" flag when resuming (required by Gemini CLI)
//   - Model: ["-m", "<model>"]
//   - Session resume: ["--resume", "<session-id>"] (to continue existing session)
//   - Auto-approve: ["--yolo"] (whenever caps.SupportsAutoApprove; SkipPermissions is not read)
//
// Flags are gated on caps, probed from the installed binary's --help output,
// so an older gemini build that lacks a flag degrades instead of erroring out.
func buildArgs(cfg Config, caps client.Capabilities) []string {
	var args []string

	// Model selection (-m flag)
	if cfg.Model != "" {
		if caps.SupportsModel {
			args = append(args, "-m", cfg.Model)
		} else {
			client.WarnIfUnsupported("gemini", "supportsModel", false)
		}
	}

	// Session resume (--resume flag)
	if cfg.SessionID != "" {
		args = append(args, "--resume", cfg.SessionID)
	}

	if caps.SupportsAutoApprove {
		args = append(args, "--yolo")
	} else {
		client.WarnIfUnsupported("gemini", "supportsAutoApprove", false)
	}

	// Output format (always stream-json for headless)
	if caps.SupportsOutputFormat {
		args = append(args, "--output-format", "stream-json")
	} else {
		client.WarnIfUnsupported("gemini", "supportsOutputFormat", false)
	}

	// Prompt: When resuming, Gemini CLI requires -p flag instead of positional argument
	if cfg.SessionID != "" {
		args = append(args, "-p", cfg.Prompt)
	} else {
		// Prompt as positional argument for new sessions (must be last)
		args = append(args, cfg.Prompt)
	}

	return args
}
