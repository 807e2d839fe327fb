// Package config provides configuration types, defaults, and persistence for zeroshot.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveClusterPresets updates the cluster_presets section of the config
// file. This preserves comments and formatting in other sections by
// round-tripping through yaml.Node instead of re-marshaling the whole
// document from a Go struct.
func SaveClusterPresets(configPath string, presets []ClusterPresetConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	presetsNode, err := buildPresetsNode(presets)
	if err != nil {
		return fmt.Errorf("building cluster_presets node: %w", err)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "cluster_presets"},
						presetsNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == "cluster_presets" {
					root.Content[i+1] = presetsNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "cluster_presets"},
					presetsNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".zeroshot.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func buildPresetsNode(presets []ClusterPresetConfig) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(presets))}

	for _, preset := range presets {
		presetNode := &yaml.Node{Kind: yaml.MappingNode}
		presetNode.Content = append(presetNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "name"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: preset.Name},
		)
		if preset.SeedTopic != "" {
			presetNode.Content = append(presetNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: "seed_topic"},
				&yaml.Node{Kind: yaml.ScalarNode, Value: preset.SeedTopic},
			)
		}

		agentsNode, err := buildAgentsNode(preset.Agents)
		if err != nil {
			return nil, err
		}
		presetNode.Content = append(presetNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "agents"},
			agentsNode,
		)

		node.Content = append(node.Content, presetNode)
	}

	return node, nil
}

func buildAgentsNode(agents []AgentPresetConfig) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(agents))}

	for _, a := range agents {
		var agentNode yaml.Node
		encoded, err := yaml.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshaling agent %q: %w", a.ID, err)
		}
		if err := yaml.Unmarshal(encoded, &agentNode); err != nil {
			return nil, fmt.Errorf("round-tripping agent %q: %w", a.ID, err)
		}
		if agentNode.Kind == yaml.DocumentNode && len(agentNode.Content) > 0 {
			node.Content = append(node.Content, agentNode.Content[0])
		}
	}

	return node, nil
}
