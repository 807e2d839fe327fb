// Package config provides configuration types, defaults, and persistence
// for the orchestrator: cluster presets (declarative agent graphs), theme
// and status-footer UI settings, and distributed-tracing settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/client"
	"github.com/zeroshot/zeroshot/internal/log"
)

// Config holds all configuration options for the orchestrator CLI.
type Config struct {
	UI            UIConfig            `mapstructure:"ui"`
	Theme         ThemeConfig         `mapstructure:"theme"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	ClusterPresets []ClusterPresetConfig `mapstructure:"cluster_presets"`
	DefaultPreset  string                `mapstructure:"default_preset"`
}

// UIConfig holds status-footer display options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
}

// ThemeConfig holds theme customization for the lipgloss-rendered status
// footer.
type ThemeConfig struct {
	// Preset loads a built-in theme as the base (optional).
	Preset string `mapstructure:"preset"`

	// Mode forces light or dark mode. If empty, uses terminal detection.
	Mode string `mapstructure:"mode"`

	// Colors allows overriding individual color tokens, in dot notation or
	// nested YAML.
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// TimeoutsConfig holds timeout settings for cluster-startup phases.
type TimeoutsConfig struct {
	// WorktreeCreation is the timeout for git worktree creation.
	WorktreeCreation time.Duration `mapstructure:"worktree_creation"`

	// AgentStart is the timeout for an agent process's first response.
	AgentStart time.Duration `mapstructure:"agent_start"`

	// MaxTotal is the maximum total time allowed for cluster startup. 0
	// disables the safety net.
	MaxTotal time.Duration `mapstructure:"max_total"`
}

// DefaultTimeoutsConfig returns the default timeout configuration.
func DefaultTimeoutsConfig() TimeoutsConfig {
	return TimeoutsConfig{
		WorktreeCreation: 30 * time.Second,
		AgentStart:       60 * time.Second,
		MaxTotal:         120 * time.Second,
	}
}

// OrchestrationConfig holds the default per-provider model settings a
// cluster preset's agents inherit when they don't override Model/Extensions
// themselves.
type OrchestrationConfig struct {
	DisableWorktrees bool                 `mapstructure:"disable_worktrees"`
	GraceWindow      time.Duration        `mapstructure:"grace_window"`
	Claude           ClaudeClientConfig   `mapstructure:"claude"`
	Codex            CodexClientConfig    `mapstructure:"codex"`
	Amp              AmpClientConfig      `mapstructure:"amp"`
	Gemini           GeminiClientConfig   `mapstructure:"gemini"`
	OpenCode         OpenCodeClientConfig `mapstructure:"opencode"`
	Tracing          TracingConfig        `mapstructure:"tracing"`
	Timeouts         TimeoutsConfig       `mapstructure:"timeouts"`
}

// ClaudeClientConfig holds Claude-specific settings.
type ClaudeClientConfig struct {
	Model string            `mapstructure:"model"`
	Env   map[string]string `mapstructure:"env"`
}

// CodexClientConfig holds Codex-specific settings.
type CodexClientConfig struct {
	Model string `mapstructure:"model"`
}

// AmpClientConfig holds Amp-specific settings.
type AmpClientConfig struct {
	Model string `mapstructure:"model"`
	Mode  string `mapstructure:"mode"`
}

// GeminiClientConfig holds Gemini-specific settings.
type GeminiClientConfig struct {
	Model string `mapstructure:"model"`
}

// OpenCodeClientConfig holds OpenCode-specific settings.
type OpenCodeClientConfig struct {
	Model string `mapstructure:"model"`
}

// extensionsForClient builds the client.Config.Extensions map for
// clientType from the default model settings. AgentPresetConfig carries
// no extensions, so nothing is merged on top.
func (o OrchestrationConfig) extensionsForClient(clientType client.ClientType) map[string]any {
	extensions := make(map[string]any)

	switch clientType {
	case client.ClientClaude:
		if o.Claude.Model != "" {
			extensions[client.ExtClaudeModel] = o.Claude.Model
		}
	case client.ClientCodex:
		if o.Codex.Model != "" {
			extensions[client.ExtCodexModel] = o.Codex.Model
		}
	case client.ClientAmp:
		if o.Amp.Model != "" {
			extensions[client.ExtAmpModel] = o.Amp.Model
		}
		if o.Amp.Mode != "" {
			extensions["amp.mode"] = o.Amp.Mode
		}
	case client.ClientGemini:
		if o.Gemini.Model != "" {
			extensions[client.ExtGeminiModel] = o.Gemini.Model
		}
	case client.ClientOpenCode:
		if o.OpenCode.Model != "" {
			extensions[client.ExtOpenCodeModel] = o.OpenCode.Model
		}
	}

	return extensions
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend: "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ClusterPresetConfig is a named, declarative cluster configuration: the
// agent graph a `start` invocation launches.
type ClusterPresetConfig struct {
	Name      string              `mapstructure:"name" yaml:"name"`
	SeedTopic string              `mapstructure:"seed_topic" yaml:"seed_topic,omitempty"`
	Agents    []AgentPresetConfig `mapstructure:"agents" yaml:"agents"`
}

// AgentPresetConfig is one agent's declarative configuration in a preset
// file: the mapstructure/yaml-serializable counterpart of agent.Config,
// whose Trigger.Condition is a Go func and so cannot round-trip through
// YAML directly.
type AgentPresetConfig struct {
	ID              string                `mapstructure:"id" yaml:"id"`
	Role            string                `mapstructure:"role" yaml:"role,omitempty"`
	Provider        string                `mapstructure:"provider" yaml:"provider,omitempty"`
	Level           string                `mapstructure:"level" yaml:"level,omitempty"`
	ReasoningEffort string                `mapstructure:"reasoning_effort" yaml:"reasoning_effort,omitempty"`
	PromptTemplate  string                `mapstructure:"prompt_template" yaml:"prompt_template,omitempty"`
	SystemPreamble  string                `mapstructure:"system_preamble" yaml:"system_preamble,omitempty"`
	Timeout         time.Duration         `mapstructure:"timeout" yaml:"timeout,omitempty"`
	UseDirectAPI    bool                  `mapstructure:"use_direct_api" yaml:"use_direct_api,omitempty"`
	JSONSchema      string                `mapstructure:"json_schema" yaml:"json_schema,omitempty"`
	OutputFormat    string                `mapstructure:"output_format" yaml:"output_format,omitempty"`
	AutoApprove     bool                  `mapstructure:"auto_approve" yaml:"auto_approve,omitempty"`
	RetryOnError    bool                  `mapstructure:"retry_on_error" yaml:"retry_on_error,omitempty"`
	Triggers        []TriggerPresetConfig `mapstructure:"triggers" yaml:"triggers,omitempty"`
	OnComplete      *ActionPresetConfig   `mapstructure:"on_complete" yaml:"on_complete,omitempty"`
	OnError         *ActionPresetConfig   `mapstructure:"on_error" yaml:"on_error,omitempty"`
}

// TriggerPresetConfig is the declarative form of an agent.Trigger. When is
// restricted to a single field-equals-value predicate; this is a deliberate
// scoping decision (see DESIGN.md) rather than a full expression language,
// since the spec only requires trigger conditions to be decidable from the
// event payload.
type TriggerPresetConfig struct {
	Topic  string             `mapstructure:"topic" yaml:"topic"`
	When   *ConditionConfig   `mapstructure:"when" yaml:"when,omitempty"`
	Action ActionPresetConfig `mapstructure:"action" yaml:"action"`
}

// ConditionConfig is a single payload-field-equals-value predicate.
type ConditionConfig struct {
	Field  string `mapstructure:"field" yaml:"field"`
	Equals string `mapstructure:"equals" yaml:"equals"`
}

// ActionPresetConfig is the declarative form of an agent.Action.
type ActionPresetConfig struct {
	Kind            string            `mapstructure:"kind" yaml:"kind"` // execute_task, publish_message, stop_cluster, noop
	Topic           string            `mapstructure:"topic" yaml:"topic,omitempty"`
	PayloadTemplate map[string]string `mapstructure:"payload_template" yaml:"payload_template,omitempty"`
}

// ToAgentConfig converts a declarative AgentPresetConfig into an
// agent.Config, resolving trigger conditions into closures. It sets no
// provider extensions; those come from OrchestrationConfig.ExtensionsFor.
func (a AgentPresetConfig) ToAgentConfig() agent.Config {
	cfg := agent.Config{
		ID:              a.ID,
		Role:            a.Role,
		Provider:        agent.ProviderName(a.Provider),
		Level:           agent.Level(a.Level),
		ReasoningEffort: a.ReasoningEffort,
		PromptTemplate:  a.PromptTemplate,
		SystemPreamble:  a.SystemPreamble,
		Timeout:         a.Timeout,
		UseDirectAPI:    a.UseDirectAPI,
		JSONSchema:      a.JSONSchema,
		OutputFormat:    agent.OutputFormat(a.OutputFormat),
		AutoApprove:     a.AutoApprove,
		RetryOnError:    a.RetryOnError,
		OnComplete:      a.OnComplete.toAction(),
		OnError:         a.OnError.toAction(),
	}
	for _, t := range a.Triggers {
		cfg.Triggers = append(cfg.Triggers, t.toTrigger())
	}
	return cfg
}

func (t TriggerPresetConfig) toTrigger() agent.Trigger {
	trig := agent.Trigger{Topic: t.Topic, Action: *t.Action.toAction()}
	if t.When != nil {
		field, want := t.When.Field, t.When.Equals
		trig.Condition = func(payload map[string]any) bool {
			v, ok := payload[field]
			if !ok {
				return false
			}
			return fmt.Sprintf("%v", v) == want
		}
	}
	return trig
}

func (a *ActionPresetConfig) toAction() *agent.Action {
	if a == nil {
		return nil
	}
	return &agent.Action{
		Kind:            agent.ActionKind(a.Kind),
		Topic:           a.Topic,
		PayloadTemplate: a.PayloadTemplate,
	}
}

// ExtensionsFor returns the extensions map a named provider should spawn
// with, combining this config's defaults for clientType.
func (o OrchestrationConfig) ExtensionsFor(clientType client.ClientType) map[string]any {
	return o.extensionsForClient(clientType)
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "zeroshot", "traces", "traces.jsonl")
}

var allowedClients = []string{"claude", "amp", "codex", "gemini", "opencode"}

func isAllowedClient(c string) bool {
	return slices.Contains(allowedClients, c)
}

// ValidateOrchestration checks orchestration configuration for errors.
func ValidateOrchestration(orch OrchestrationConfig) error {
	if orch.Amp.Mode != "" {
		switch orch.Amp.Mode {
		case "free", "rush", "smart":
		default:
			return fmt.Errorf("orchestration.amp.mode must be \"free\", \"rush\", or \"smart\", got %q", orch.Amp.Mode)
		}
	}
	return ValidateTracing(orch.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("orchestration.tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("orchestration.tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("orchestration.tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("orchestration.tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// ValidateClusterPresets checks preset configuration for errors. Returns
// nil if presets are valid or empty.
func ValidateClusterPresets(presets []ClusterPresetConfig) error {
	seen := make(map[string]struct{}, len(presets))
	for i, p := range presets {
		if p.Name == "" {
			return fmt.Errorf("cluster_presets[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("cluster_presets[%d]: duplicate preset name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}

		if len(p.Agents) == 0 {
			return fmt.Errorf("cluster_presets[%d] (%s): at least one agent is required", i, p.Name)
		}
		agentIDs := make(map[string]struct{}, len(p.Agents))
		for j, a := range p.Agents {
			if a.ID == "" {
				return fmt.Errorf("cluster_presets[%d] (%s).agents[%d]: id is required", i, p.Name, j)
			}
			if _, dup := agentIDs[a.ID]; dup {
				return fmt.Errorf("cluster_presets[%d] (%s).agents[%d]: duplicate agent id %q", i, p.Name, j, a.ID)
			}
			agentIDs[a.ID] = struct{}{}
			if a.Provider != "" && !isAllowedClient(a.Provider) {
				return fmt.Errorf("cluster_presets[%d] (%s).agents[%d]: provider must be one of %v, got %q", i, p.Name, j, allowedClients, a.Provider)
			}
		}
	}
	return nil
}

// FindPreset returns the named preset, or false if it does not exist.
func (c Config) FindPreset(name string) (ClusterPresetConfig, bool) {
	for _, p := range c.ClusterPresets {
		if p.Name == name {
			return p, true
		}
	}
	return ClusterPresetConfig{}, false
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		UI: UIConfig{ShowStatusBar: true},
		Theme: ThemeConfig{
			Preset: "",
		},
		Orchestration: OrchestrationConfig{
			GraceWindow: 5 * time.Second,
			Claude: ClaudeClientConfig{
				Model: "claude-opus-4-5",
			},
			Amp: AmpClientConfig{
				Model: "opus",
				Mode:  "smart",
			},
			Codex: CodexClientConfig{
				Model: "gpt-5.2-codex",
			},
			Gemini: GeminiClientConfig{
				Model: "gemini-3-pro-preview",
			},
			Tracing: TracingConfig{
				Enabled:      false,
				Exporter:     "file",
				FilePath:     "",
				OTLPEndpoint: "localhost:4317",
				SampleRate:   1.0,
			},
			Timeouts: DefaultTimeoutsConfig(),
		},
		ClusterPresets: DefaultClusterPresets(),
		DefaultPreset:  "single-worker",
	}
}

// DefaultClusterPresets returns the built-in preset matching spec.md §8's
// end-to-end single-worker scenario: a worker that executes a task on
// ISSUE_OPENED and publishes TASK_COMPLETE, and a completion-detector that
// stops the cluster once it sees TASK_COMPLETE.
func DefaultClusterPresets() []ClusterPresetConfig {
	return []ClusterPresetConfig{
		{
			Name:      "single-worker",
			SeedTopic: "ISSUE_OPENED",
			Agents: []AgentPresetConfig{
				{
					ID:             "worker",
					Provider:       "claude",
					Level:          "level2",
					PromptTemplate: "{{.text}}",
					Triggers: []TriggerPresetConfig{
						{Topic: "ISSUE_OPENED", Action: ActionPresetConfig{Kind: "execute_task"}},
					},
					OnComplete: &ActionPresetConfig{Kind: "publish_message", Topic: "TASK_COMPLETE"},
					OnError:    &ActionPresetConfig{Kind: "publish_message", Topic: "TASK_FAILED"},
				},
				{
					ID:   "completion-detector",
					Role: "orchestrator",
					Triggers: []TriggerPresetConfig{
						{Topic: "TASK_COMPLETE", Action: ActionPresetConfig{Kind: "stop_cluster"}},
					},
				},
			},
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# zeroshot orchestrator configuration

# Status footer display
ui:
  show_status_bar: true

# Theme configuration for the status footer
theme:
  # preset: catppuccin-mocha

# Default provider model settings, inherited by any agent preset that
# doesn't set its own extensions.
orchestration:
  grace_window: 5s

  claude:
    model: opus

  codex:
    model: gpt-5.2-codex

  amp:
    model: opus
    mode: smart

  opencode:
    model: anthropic/claude-opus-4-5

  tracing:
    enabled: false
    exporter: file
    sample_rate: 1.0

# Which preset "start" launches when none is given on the command line.
default_preset: single-worker

# Cluster presets: each is a named agent graph. See DefaultClusterPresets
# in internal/config for the shape; "zeroshot presets" lists the presets
# defined here.
cluster_presets:
  - name: single-worker
    seed_topic: ISSUE_OPENED
    agents:
      - id: worker
        provider: claude
        level: level2
        prompt_template: "{{.text}}"
        triggers:
          - topic: ISSUE_OPENED
            action:
              kind: execute_task
        on_complete:
          kind: publish_message
          topic: TASK_COMPLETE
        on_error:
          kind: publish_message
          topic: TASK_FAILED
      - id: completion-detector
        role: orchestrator
        triggers:
          - topic: TASK_COMPLETE
            action:
              kind: stop_cluster
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
