// Package orchestrator implements the Orchestrator Supervisor: the
// top-level lifecycle owner that starts/stops/kills clusters, fans
// configuration out to per-agent runtimes, and coordinates a shutdown
// detector watching the bus's reserved CLUSTER_STOP topic.
//
// Grounded on the teacher's client registry pattern
// (internal/client/client.go's map-guarded-by-nothing-but-init-time-writes
// registry) for the cluster registry shape, generalized here to a
// mutex-guarded map since clusters are registered at arbitrary runtime
// points, not just at init().
package orchestrator

import (
	"time"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/bus"
	"github.com/zeroshot/zeroshot/internal/client"
	"github.com/zeroshot/zeroshot/internal/isolation"
)

// State is a cluster's lifecycle position.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning       State = "running"
	StateStopping      State = "stopping"
	StateStopped       State = "stopped"
	StateError         State = "error"
)

// AgentConfig is one agent's declarative configuration plus the provider
// selection needed to construct its Runtime.
type AgentConfig = agent.Config

// Options configures a cluster start.
type Options struct {
	// Worktree requests worktree-mode isolation.
	Worktree bool
	// Docker requests container-mode isolation, with Image used for the
	// container. Ignored if Worktree is also set (worktree takes
	// precedence; a cluster has exactly one isolation record).
	Docker bool
	Image  string

	// Cwd is the repository root isolation is provisioned against.
	Cwd string

	// SeedTopic is the topic the seed event is published under. Defaults
	// to ISSUE_OPENED.
	SeedTopic string

	// Extensions supplies provider-specific defaults (model selection etc.)
	// keyed by client.ClientType, threaded into every agent whose
	// AgentConfig.Provider resolves to that type. Typically built from
	// config.OrchestrationConfig.ExtensionsFor.
	Extensions map[client.ClientType]map[string]any

	// Mirror, when set, receives every event a cluster's bus publishes, in
	// sequence order, for observability (spec.md §1's "optionally mirrored
	// to disk" note). Never read back into live cluster state.
	Mirror bus.Mirror

	// GraceWindow is how long the shutdown detector waits after a
	// CLUSTER_STOP event before cleanup runs. Defaults to 5 seconds (spec.md
	// §9's open question, decided in SPEC_FULL.md). Stop does not read it
	// and always waits DefaultGraceWindow.
	GraceWindow time.Duration
}

// DefaultSeedTopic is the bus topic the seed event publishes to when
// Options.SeedTopic is unset.
const DefaultSeedTopic = "ISSUE_OPENED"

// DefaultGraceWindow is the stop-flow grace window when Options.GraceWindow
// is unset.
const DefaultGraceWindow = 5 * time.Second

// ClusterConfig is the declarative configuration a cluster starts from: the
// agent graph. A configuration snapshot of this is taken at start time and
// never mutated afterward, even if the preset it was loaded from hot-reloads
// (spec.md §3's "configuration snapshot" invariant).
type ClusterConfig struct {
	Agents []AgentConfig
}

// Snapshot returns a defensive deep-enough copy of cfg: the Agents slice is
// copied so later mutation of the caller's slice (e.g. a hot-reloaded
// preset) cannot affect a running cluster.
func (cfg ClusterConfig) Snapshot() ClusterConfig {
	agents := make([]AgentConfig, len(cfg.Agents))
	copy(agents, cfg.Agents)
	return ClusterConfig{Agents: agents}
}

// cluster is the Supervisor's internal record for one running ensemble.
type cluster struct {
	id        string
	config    ClusterConfig
	state     State
	createdAt time.Time

	isolation isolation.Record
	bus       *bus.Bus
	runtimes  map[string]*agent.Runtime

	cancelRun func()
}

// ClusterInfo is the read-only view of a cluster exposed by getCluster.
type ClusterInfo struct {
	ID        string
	State     State
	CreatedAt time.Time
	Isolation isolation.Record
	Agents    []agent.Status
}

