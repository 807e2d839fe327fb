package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveClusterPresets_NewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	presets := []ClusterPresetConfig{
		{
			Name:      "single-worker",
			SeedTopic: "ISSUE_OPENED",
			Agents: []AgentPresetConfig{
				{ID: "worker", Provider: "claude", Level: "level2"},
			},
		},
	}

	require.NoError(t, SaveClusterPresets(path, presets))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded struct {
		ClusterPresets []ClusterPresetConfig `yaml:"cluster_presets"`
	}
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Len(t, loaded.ClusterPresets, 1)
	assert.Equal(t, "single-worker", loaded.ClusterPresets[0].Name)
	assert.Equal(t, "ISSUE_OPENED", loaded.ClusterPresets[0].SeedTopic)
	require.Len(t, loaded.ClusterPresets[0].Agents, 1)
	assert.Equal(t, "worker", loaded.ClusterPresets[0].Agents[0].ID)
	assert.Equal(t, "claude", loaded.ClusterPresets[0].Agents[0].Provider)
}

func TestSaveClusterPresets_PreservesUnrelatedSectionsAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	initial := `# a hand-written comment that should survive
ui:
  show_status_bar: true

default_preset: single-worker
`
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))

	presets := []ClusterPresetConfig{
		{Name: "replaced", Agents: []AgentPresetConfig{{ID: "a"}}},
	}
	require.NoError(t, SaveClusterPresets(path, presets))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "a hand-written comment that should survive")
	assert.Contains(t, content, "default_preset: single-worker")
	assert.Contains(t, content, "replaced")
}

func TestSaveClusterPresets_ReplacesExistingPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, SaveClusterPresets(path, []ClusterPresetConfig{
		{Name: "first", Agents: []AgentPresetConfig{{ID: "a"}}},
	}))
	require.NoError(t, SaveClusterPresets(path, []ClusterPresetConfig{
		{Name: "second", Agents: []AgentPresetConfig{{ID: "b"}}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded struct {
		ClusterPresets []ClusterPresetConfig `yaml:"cluster_presets"`
	}
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Len(t, loaded.ClusterPresets, 1)
	assert.Equal(t, "second", loaded.ClusterPresets[0].Name)
}

func TestSaveClusterPresets_MultipleAgentsAndTriggers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	presets := []ClusterPresetConfig{
		{
			Name: "pair",
			Agents: []AgentPresetConfig{
				{
					ID:       "worker",
					Provider: "claude",
					Triggers: []TriggerPresetConfig{
						{Topic: "ISSUE_OPENED", Action: ActionPresetConfig{Kind: "execute_task"}},
					},
					OnComplete: &ActionPresetConfig{Kind: "publish_message", Topic: "TASK_COMPLETE"},
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

	require.NoError(t, SaveClusterPresets(path, presets))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded struct {
		ClusterPresets []ClusterPresetConfig `yaml:"cluster_presets"`
	}
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Len(t, loaded.ClusterPresets[0].Agents, 2)
	assert.Equal(t, "stop_cluster", loaded.ClusterPresets[0].Agents[1].Triggers[0].Action.Kind)
	assert.Equal(t, "TASK_COMPLETE", loaded.ClusterPresets[0].Agents[0].OnComplete.Topic)
}
