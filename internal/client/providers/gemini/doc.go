// Package gemini provides a Go interface to headless Gemini CLI sessions.
//
// Gemini CLI is Google's agentic coding assistant that supports non-interactive
// execution for AI-assisted coding tasks. This package implements the
// client.HeadlessClient interface to enable Gemini as a provider in the
// orchestration system.
//
// # Usage
//
// Import this package to register the Gemini client with the client registry:
//
//	import _ "github.com/zeroshot/zeroshot/internal/client/providers/gemini"
//
// Then create a client using the registry:
//
//	client, err := client.NewClient(client.ClientGemini)
//
// # CLI Requirements
//
// The "gemini" command must be available in PATH. Install from:
// https://github.com/google-gemini/gemini-cli
//
// # Headless Mode
//
// Gemini runs in headless mode with stream-json output:
//
//	gemini -m gemini-2.5-pro --yolo --output-format stream-json "your prompt here"
//
// Key flags:
//   - -m: Model selection (e.g., gemini-2.5-pro, gemini-2.5-flash)
//   - --yolo: Auto-approve mode, emitted whenever the installed CLI supports it
//   - --output-format stream-json: JSONL events for parsing
//   - --resume <session-id>: Continue a session; the prompt then follows -p
//
// The working directory is set on the process, not passed as a flag.
//
// # Event Format
//
// Gemini uses a different event structure from Claude/Amp/Codex. Events are
// parsed from the JSONL output stream and mapped to unified OutputEvent types:
//
//	Gemini Event      | Maps To
//	------------------|------------------
//	init              | EventSystem (init)
//	message           | EventAssistant (role assistant), else EventToolResult
//	tool_use          | EventToolUse
//	tool_result       | EventToolResult
//	result            | EventResult (token usage from stats)
//	error             | EventError
//
// # System Prompt
//
// Gemini doesn't have a dedicated --system-prompt flag. System prompts are
// prepended to the main prompt, separated by a blank line:
//
//	<system prompt content>
//
//	<user prompt>
//
// # MCP Configuration
//
// Config.MCPConfig is copied from client.Config, but spawnProcess neither
// writes it to settings.json nor passes it to the CLI: this package configures
// no MCP servers for a spawned Gemini process.
//
// # Authentication
//
// Gemini CLI uses Google Cloud authentication. Ensure credentials are configured
// via `gcloud auth login` or service account credentials before use.
package gemini
