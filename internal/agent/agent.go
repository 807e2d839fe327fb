// Package agent implements the Agent Runtime & Trigger Engine: a per-agent
// state machine that watches a cluster's message bus, evaluates triggers,
// assembles provider context, spawns a provider subprocess (or calls a
// provider API directly), and runs completion/error hooks.
//
// Grounded on the teacher's orchestration packages for the shape of a
// prompt-driven worker (internal/orchestration/coordinator's template-based
// prompt assembly) and on internal/client for subprocess lifecycle; the
// trigger/state-machine design itself has no direct teacher analogue and is
// built fresh from spec.md's state table.
package agent

import (
	"errors"
	"time"
)

// State is a position in the per-agent state machine.
type State string

const (
	StateIdle             State = "idle"
	StateEvaluating       State = "evaluating"
	StateBuildingContext  State = "building_context"
	StateExecuting        State = "executing"
	StateStopped          State = "stopped"
	StateError            State = "error"
)

// ErrAgentTimeout is raised when a provider invocation exceeds its
// configured timeout.
var ErrAgentTimeout = errors.New("agent timeout")

// ErrCancelled marks a runtime stopped by external cancellation rather than
// a provider/execution failure; no onError hook runs for it.
var ErrCancelled = errors.New("agent cancelled")

// Level is the abstract model capability tier an agent's provider
// invocation is requested at.
type Level string

const (
	Level1 Level = "level1"
	Level2 Level = "level2"
	Level3 Level = "level3"
)

// OutputFormat selects how the provider is asked to format its output.
type OutputFormat string

const (
	OutputText       OutputFormat = "text"
	OutputJSON       OutputFormat = "json"
	OutputStreamJSON OutputFormat = "stream-json"
)

// Status is a read-only snapshot of a Runtime's current state, exposed to
// the Supervisor and the status footer.
type Status struct {
	AgentID    string
	Role       string
	State      State
	Cursor     uint64
	Iteration  int
	ChildPID   int
	LastErr    error
	UpdatedAt  time.Time
}
