package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/client"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.True(t, cfg.UI.ShowStatusBar)
	assert.Equal(t, 5*time.Second, cfg.Orchestration.GraceWindow)
	assert.NotEmpty(t, cfg.Orchestration.Claude.Model)
	assert.NotEmpty(t, cfg.ClusterPresets)
	assert.Equal(t, "single-worker", cfg.DefaultPreset)
}

func TestValidateOrchestration_Empty(t *testing.T) {
	err := ValidateOrchestration(OrchestrationConfig{})
	require.NoError(t, err)
}

func TestValidateOrchestration_InvalidAmpMode(t *testing.T) {
	err := ValidateOrchestration(OrchestrationConfig{Amp: AmpClientConfig{Mode: "bogus"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amp.mode")
}

func TestValidateOrchestration_ValidAmpModes(t *testing.T) {
	for _, mode := range []string{"free", "rush", "smart"} {
		err := ValidateOrchestration(OrchestrationConfig{Amp: AmpClientConfig{Mode: mode}})
		require.NoError(t, err, "mode %s should be valid", mode)
	}
}

func TestValidateTracing_SampleRateOutOfRange(t *testing.T) {
	err := ValidateTracing(TracingConfig{SampleRate: 1.5})
	require.Error(t, err)

	err = ValidateTracing(TracingConfig{SampleRate: -0.1})
	require.Error(t, err)
}

func TestValidateTracing_InvalidExporter(t *testing.T) {
	err := ValidateTracing(TracingConfig{Exporter: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exporter")
}

func TestValidateTracing_EnabledFileRequiresPath(t *testing.T) {
	err := ValidateTracing(TracingConfig{Enabled: true, Exporter: "file"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")
}

func TestValidateTracing_EnabledOTLPRequiresEndpoint(t *testing.T) {
	err := ValidateTracing(TracingConfig{Enabled: true, Exporter: "otlp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "otlp_endpoint")
}

func TestValidateTracing_Valid(t *testing.T) {
	err := ValidateTracing(TracingConfig{
		Enabled:  true,
		Exporter: "file",
		FilePath: "/tmp/traces.jsonl",
	})
	require.NoError(t, err)
}

func TestValidateClusterPresets_Empty(t *testing.T) {
	require.NoError(t, ValidateClusterPresets(nil))
}

func TestValidateClusterPresets_MissingName(t *testing.T) {
	err := ValidateClusterPresets([]ClusterPresetConfig{{Agents: []AgentPresetConfig{{ID: "a"}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidateClusterPresets_DuplicateName(t *testing.T) {
	presets := []ClusterPresetConfig{
		{Name: "dup", Agents: []AgentPresetConfig{{ID: "a"}}},
		{Name: "dup", Agents: []AgentPresetConfig{{ID: "b"}}},
	}
	err := ValidateClusterPresets(presets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate preset name")
}

func TestValidateClusterPresets_NoAgents(t *testing.T) {
	err := ValidateClusterPresets([]ClusterPresetConfig{{Name: "empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestValidateClusterPresets_DuplicateAgentID(t *testing.T) {
	presets := []ClusterPresetConfig{
		{Name: "p", Agents: []AgentPresetConfig{{ID: "a"}, {ID: "a"}}},
	}
	err := ValidateClusterPresets(presets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent id")
}

func TestValidateClusterPresets_InvalidProvider(t *testing.T) {
	presets := []ClusterPresetConfig{
		{Name: "p", Agents: []AgentPresetConfig{{ID: "a", Provider: "gpt5000"}}},
	}
	err := ValidateClusterPresets(presets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider must be one of")
}

func TestValidateClusterPresets_Valid(t *testing.T) {
	require.NoError(t, ValidateClusterPresets(DefaultClusterPresets()))
}

func TestAgentPresetConfig_ToAgentConfig(t *testing.T) {
	preset := AgentPresetConfig{
		ID:             "worker",
		Provider:       "claude",
		Level:          "level2",
		PromptTemplate: "{{.text}}",
		Triggers: []TriggerPresetConfig{
			{
				Topic:  "ISSUE_OPENED",
				When:   &ConditionConfig{Field: "priority", Equals: "high"},
				Action: ActionPresetConfig{Kind: "execute_task"},
			},
		},
		OnComplete: &ActionPresetConfig{Kind: "publish_message", Topic: "TASK_COMPLETE"},
	}

	cfg := preset.ToAgentConfig()

	assert.Equal(t, "worker", cfg.ID)
	assert.Equal(t, agent.ProviderName("claude"), cfg.Provider)
	assert.Equal(t, agent.Level2, cfg.Level)
	require.Len(t, cfg.Triggers, 1)
	require.NotNil(t, cfg.Triggers[0].Condition)
	assert.True(t, cfg.Triggers[0].Condition(map[string]any{"priority": "high"}))
	assert.False(t, cfg.Triggers[0].Condition(map[string]any{"priority": "low"}))
	assert.Equal(t, agent.ActionExecuteTask, cfg.Triggers[0].Action.Kind)
	require.NotNil(t, cfg.OnComplete)
	assert.Equal(t, agent.ActionPublishMessage, cfg.OnComplete.Kind)
}

func TestAgentPresetConfig_ToAgentConfig_NoConditionMatchesAlways(t *testing.T) {
	preset := AgentPresetConfig{
		ID: "watcher",
		Triggers: []TriggerPresetConfig{
			{Topic: "ANY_EVENT", Action: ActionPresetConfig{Kind: "noop"}},
		},
	}

	cfg := preset.ToAgentConfig()
	require.Len(t, cfg.Triggers, 1)
	assert.Nil(t, cfg.Triggers[0].Condition)
}

func TestAgentPresetConfig_ToAgentConfig_NilHooks(t *testing.T) {
	cfg := AgentPresetConfig{ID: "a"}.ToAgentConfig()
	assert.Nil(t, cfg.OnComplete)
	assert.Nil(t, cfg.OnError)
}

func TestOrchestrationConfig_ExtensionsFor(t *testing.T) {
	orch := OrchestrationConfig{
		Claude: ClaudeClientConfig{Model: "opus"},
		Codex:  CodexClientConfig{Model: "gpt-5.2-codex"},
		Amp:    AmpClientConfig{Model: "opus", Mode: "smart"},
	}

	claudeExt := orch.ExtensionsFor(client.ClientClaude)
	assert.Equal(t, "opus", claudeExt[client.ExtClaudeModel])

	codexExt := orch.ExtensionsFor(client.ClientCodex)
	assert.Equal(t, "gpt-5.2-codex", codexExt[client.ExtCodexModel])

	ampExt := orch.ExtensionsFor(client.ClientAmp)
	assert.Equal(t, "opus", ampExt[client.ExtAmpModel])
	assert.Equal(t, "smart", ampExt["amp.mode"])
}

func TestOrchestrationConfig_ExtensionsFor_EmptyWhenUnset(t *testing.T) {
	ext := OrchestrationConfig{}.ExtensionsFor(client.ClientGemini)
	assert.Empty(t, ext)
}

func TestConfig_FindPreset(t *testing.T) {
	cfg := Defaults()

	found, ok := cfg.FindPreset("single-worker")
	require.True(t, ok)
	assert.Equal(t, "single-worker", found.Name)

	_, ok = cfg.FindPreset("does-not-exist")
	assert.False(t, ok)
}

func TestThemeConfig_FlattenedColors(t *testing.T) {
	theme := ThemeConfig{
		Colors: map[string]any{
			"text.primary": "#FF0000",
			"status": map[string]any{
				"error": "#00FF00",
			},
		},
	}

	flat := theme.FlattenedColors()
	assert.Equal(t, "#FF0000", flat["text.primary"])
	assert.Equal(t, "#00FF00", flat["status.error"])
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.yaml")

	err := WriteDefaultConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cluster_presets")
	assert.Contains(t, string(data), "default_preset")
}

func TestDefaultConfigTemplate_ParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o644))

	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	require.NoError(t, ValidateOrchestration(cfg.Orchestration))
	require.NoError(t, ValidateClusterPresets(cfg.ClusterPresets))
	assert.Equal(t, "single-worker", cfg.DefaultPreset)
	require.Len(t, cfg.ClusterPresets, 1)
	assert.Equal(t, "ISSUE_OPENED", cfg.ClusterPresets[0].SeedTopic)
}
