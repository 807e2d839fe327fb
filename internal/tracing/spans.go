package tracing

// Span attribute keys for orchestration tracing.
// These constants define the semantic conventions for span attributes
// across the agent/trigger/provider/isolation domain.
const (
	// Cluster and agent attributes
	AttrClusterID = "cluster.id"
	AttrAgentID   = "agent.id"
	AttrAgentRole = "agent.role"

	// Trigger/action attributes
	AttrTriggerTopic = "trigger.topic"
	AttrActionKind   = "action.kind"

	// Provider attributes
	AttrProviderType = "provider.type"
	AttrSessionRef   = "provider.session_ref"

	// Isolation attributes
	AttrIsolationKind = "isolation.kind"
	AttrChildPID      = "process.pid"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// SpanKind constants for categorizing span types.
const (
	SpanKindTrigger   = "trigger"
	SpanKindProvider  = "provider"
	SpanKindIsolation = "isolation"
)

// Span name prefixes for consistent naming. Provider and isolation helpers
// append a dynamic suffix (provider type, isolation kind) so spans for
// different providers are distinguishable in an exporter without relying on
// attributes alone. Trigger spans use the fixed suffix "evaluate" and carry
// the matched topic as an attribute.
const (
	SpanPrefixTrigger   = "agent.trigger."
	SpanPrefixProvider  = "provider.spawn."
	SpanPrefixIsolation = "isolation.provision."
)

// Event names for span events, recorded at points of interest within an
// otherwise single span, when a sub-step is worth timestamping without the
// overhead of a child span.
const (
	EventTriggerMatched   = "trigger.matched"
	EventActionDispatched = "action.dispatched"
	EventProcessSpawned   = "process.spawned"
	EventErrorOccurred    = "error.occurred"
)
