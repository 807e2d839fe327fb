package agent

// ActionKind is the finite set of actions a trigger or hook may specify.
type ActionKind string

const (
	// ActionExecuteTask runs the provider CLI with the configured prompt
	// and the triggering event's payload. The only action that transitions
	// a Runtime into building_context.
	ActionExecuteTask ActionKind = "execute_task"
	// ActionPublishMessage appends a new event to the bus.
	ActionPublishMessage ActionKind = "publish_message"
	// ActionStopCluster publishes the reserved CLUSTER_STOP topic the
	// Supervisor's shutdown detector watches.
	ActionStopCluster ActionKind = "stop_cluster"
	// ActionNoop does nothing.
	ActionNoop ActionKind = "noop"
)

// Action is a single instruction a trigger or hook resolves to.
type Action struct {
	Kind ActionKind

	// Topic and PayloadTemplate are used by ActionPublishMessage. PayloadTemplate
	// entries are rendered with the triggering event's payload as template
	// data before publishing, the same substitution context assembly uses.
	Topic           string
	PayloadTemplate map[string]string
}

// Condition is a predicate over an event's payload. A nil Condition always
// matches.
type Condition func(payload map[string]any) bool

// Trigger is a single (topic, condition, action) rule evaluated against
// each new bus event, in the order an agent's Triggers list declares them.
type Trigger struct {
	Topic     string
	Condition Condition
	Action    Action
}

// matches reports whether t fires for the given event topic/payload.
func (t Trigger) matches(topic string, payload map[string]any) bool {
	if t.Topic != topic {
		return false
	}
	if t.Condition == nil {
		return true
	}
	return t.Condition(payload)
}
