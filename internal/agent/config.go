package agent

import "time"

// RoleOrchestrator is the special role that grants stop-authority: only
// agents carrying this role are expected to publish ActionStopCluster,
// though the Supervisor's shutdown detector reacts to the topic regardless
// of publisher.
const RoleOrchestrator = "orchestrator"

// Config is an agent's declarative configuration: everything the
// Supervisor reads from a cluster preset to construct a Runtime.
type Config struct {
	// ID is unique within a cluster.
	ID string
	// Role is a free-form tag; RoleOrchestrator indicates stop-authority.
	Role string

	// Triggers is evaluated in order against every bus event newer than
	// the agent's cursor; the first match wins.
	Triggers []Trigger

	// PromptTemplate is a text/template source rendered against the
	// triggering event's payload to build the provider context.
	PromptTemplate string
	// SystemPreamble is prepended verbatim before the rendered template.
	SystemPreamble string

	// OnComplete and OnError are hook actions run after execute_task
	// succeeds or fails, before the state transitions back to idle/error.
	OnComplete *Action
	OnError    *Action

	// Timeout bounds a single execute_task invocation; zero disables it.
	Timeout time.Duration

	// UseDirectAPI opts into the direct-API fast path instead of
	// subprocess spawn, when a credential env var is present.
	UseDirectAPI bool
	// JSONSchema, when non-empty, is appended to the rendered prompt and
	// used to validate direct-API output.
	JSONSchema string

	// Provider selects which client.ClientType backs execute_task.
	Provider ProviderName
	// Level is the abstract model tier requested for this agent.
	Level Level
	// ReasoningEffort overrides reasoning effort for providers that
	// declare support for it; ignored otherwise.
	ReasoningEffort string
	// OutputFormat selects the provider's output mode.
	OutputFormat OutputFormat
	// AutoApprove bypasses provider permission prompts.
	AutoApprove bool

	// RetryOnError allows the state machine to transition error -> idle
	// instead of remaining in error, per spec.md's "retry-policy allows"
	// transition. Defaults to false (stay in error) when unset.
	RetryOnError bool
}

// ProviderName mirrors client.ClientType without importing internal/client
// from the config, so agent configuration stays a plain data structure
// decodable from YAML without constructing provider objects.
type ProviderName string

// AutoDetectsConductor reports whether this config should default to the
// direct-API fast path per spec.md §4.3: role "conductor" with JSON output
// configured, even when UseDirectAPI wasn't explicitly set.
func (c Config) AutoDetectsConductor() bool {
	return c.Role == "conductor" && (c.OutputFormat == OutputJSON || c.JSONSchema != "")
}

// WantsDirectAPI reports whether execute_task should bypass subprocess
// spawn for this agent.
func (c Config) WantsDirectAPI() bool {
	return c.UseDirectAPI || c.AutoDetectsConductor()
}
