package client

import "fmt"

// Level is the orchestrator's abstract model capability tier. Agents are
// configured in terms of Level, never a concrete model id; each provider
// maps levels to its own model ids via a LevelTable.
type Level string

const (
	Level1 Level = "level1"
	Level2 Level = "level2"
	Level3 Level = "level3"
)

// LevelTable bounds and maps a provider's level selection. MinLevel/
// MaxLevel bound what a caller may request and DefaultLevel fills in an
// empty request; Models maps each
// supported level to a concrete model id. ReasoningEffortSupported gates
// whether an agent's ReasoningEffort override is honored at all for this
// provider.
type LevelTable struct {
	MinLevel                Level
	MaxLevel                Level
	DefaultLevel             Level
	Models                   map[Level]string
	ReasoningEffortSupported bool
}

var levelOrder = map[Level]int{Level1: 1, Level2: 2, Level3: 3}

// ErrLevelOutOfRange is returned when a requested level falls outside a
// provider's min/max bounds.
var ErrLevelOutOfRange = fmt.Errorf("level out of range")

// Resolve checks level against the table's bounds (falling back to
// DefaultLevel when level is empty) and returns the provider's model id
// for it, plus the reasoning effort to use (empty if the provider doesn't
// support overriding it, or no override was requested). A level outside
// [MinLevel, MaxLevel], or one with no mapped model, is not clamped: it
// yields ErrLevelOutOfRange.
func (t LevelTable) Resolve(level Level, reasoningEffort string) (modelID string, effort string, err error) {
	if level == "" {
		level = t.DefaultLevel
	}
	if levelOrder[level] < levelOrder[t.MinLevel] || levelOrder[level] > levelOrder[t.MaxLevel] {
		return "", "", fmt.Errorf("%w: %s not in [%s,%s]", ErrLevelOutOfRange, level, t.MinLevel, t.MaxLevel)
	}
	modelID, ok := t.Models[level]
	if !ok {
		return "", "", fmt.Errorf("%w: no model mapped for %s", ErrLevelOutOfRange, level)
	}
	if t.ReasoningEffortSupported {
		effort = reasoningEffort
	}
	return modelID, effort, nil
}

// levelTables holds the per-provider LevelTable registry. Populated by
// provider packages' init() functions via RegisterLevelTable, the same
// registry-at-init pattern client.go uses for RegisterClient.
var levelTables = make(map[ClientType]LevelTable)

// RegisterLevelTable registers a provider's level-to-model mapping.
func RegisterLevelTable(clientType ClientType, table LevelTable) {
	levelTables[clientType] = table
}

// LevelTableFor returns the registered LevelTable for a provider, if any.
func LevelTableFor(clientType ClientType) (LevelTable, bool) {
	t, ok := levelTables[clientType]
	return t, ok
}
