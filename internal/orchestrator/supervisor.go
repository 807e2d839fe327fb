package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/bus"
	"github.com/zeroshot/zeroshot/internal/client"
	"github.com/zeroshot/zeroshot/internal/isolation"
	"github.com/zeroshot/zeroshot/internal/log"
)

// ErrUnknownCluster is returned by operations on a clusterId the Supervisor
// has no record of.
var ErrUnknownCluster = errors.New("unknown cluster")

// ErrConfigInvalid is returned when a ClusterConfig fails validation before
// any side effect runs.
var ErrConfigInvalid = errors.New("invalid cluster config")

// Supervisor is the top-level lifecycle owner for every cluster in this
// process. The zero value is not usable; construct with New.
type Supervisor struct {
	isolationMgr *isolation.Manager

	mu       sync.Mutex
	clusters map[string]*cluster

	// warnOnce deduplicates capability-probe warnings keyed by
	// "<provider>-<feature>", per spec.md §6/§9's cluster-local global
	// state design note.
	warnOnce map[string]struct{}
}

// New constructs a Supervisor whose clusters provision worktree isolation
// relative to repoRoot by default.
func New(repoRoot string) *Supervisor {
	return &Supervisor{
		isolationMgr: isolation.NewManager(repoRoot),
		clusters:     make(map[string]*cluster),
		warnOnce:     make(map[string]struct{}),
	}
}

// Start allocates a clusterId, provisions isolation per opts, constructs
// the bus, instantiates one Runtime per configured agent, publishes the
// seed event, and transitions the cluster to running.
func (s *Supervisor) Start(ctx context.Context, cfg ClusterConfig, seed map[string]any, opts Options) (string, error) {
	if len(cfg.Agents) == 0 {
		return "", fmt.Errorf("%w: no agents configured", ErrConfigInvalid)
	}
	seen := make(map[string]struct{}, len(cfg.Agents))
	for _, a := range cfg.Agents {
		if a.ID == "" {
			return "", fmt.Errorf("%w: agent with empty id", ErrConfigInvalid)
		}
		if _, dup := seen[a.ID]; dup {
			return "", fmt.Errorf("%w: duplicate agent id %q", ErrConfigInvalid, a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	clusterID := uuid.NewString()
	snapshot := cfg.Snapshot()

	c := &cluster{
		id:        clusterID,
		config:    snapshot,
		state:     StateInitializing,
		createdAt: time.Now(),
		runtimes:  make(map[string]*agent.Runtime),
	}

	record, workDir, err := s.provisionIsolation(ctx, clusterID, opts)
	if err != nil {
		return "", err
	}
	c.isolation = record

	var busOpts []bus.Option
	if opts.Mirror != nil {
		busOpts = append(busOpts, bus.WithMirror(opts.Mirror))
	}
	c.bus = bus.New(clusterID, busOpts...)

	for _, a := range snapshot.Agents {
		clientType := client.ClientType(a.Provider)
		provider := client.NewAgentProvider(clientType, opts.Extensions[clientType])
		rt := agent.New(clusterID, a, c.bus, provider, workDir)
		c.runtimes[a.ID] = rt
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancelRun = cancel

	s.mu.Lock()
	s.clusters[clusterID] = c
	s.mu.Unlock()

	unsubStop := c.bus.Subscribe(bus.TopicClusterStop, func(e bus.Event) {
		s.onClusterStop(clusterID, opts.GraceWindow)
	})
	_ = unsubStop // the Supervisor owns this cluster for its whole lifetime; never unsubscribed early

	for _, rt := range c.runtimes {
		rt.Start(runCtx)
	}

	seedTopic := opts.SeedTopic
	if seedTopic == "" {
		seedTopic = DefaultSeedTopic
	}
	c.bus.Publish(bus.Publication{Topic: seedTopic, Publisher: "orchestrator", Payload: seed})

	s.mu.Lock()
	c.state = StateRunning
	s.mu.Unlock()

	log.Info(log.CatOrchestrator, "cluster started", "cluster", clusterID, "agents", len(c.runtimes))
	return clusterID, nil
}

// provisionIsolation creates the sandbox opts requests and returns the
// record plus the working directory agents should run in.
func (s *Supervisor) provisionIsolation(ctx context.Context, clusterID string, opts Options) (isolation.Record, string, error) {
	switch {
	case opts.Worktree:
		info, err := s.isolationMgr.CreateWorktree(ctx, clusterID)
		if err != nil {
			return isolation.Record{}, "", err
		}
		return isolation.Record{Kind: isolation.KindWorktree, Worktree: info}, info.Path, nil

	case opts.Docker:
		info, err := s.isolationMgr.CreateContainer(ctx, clusterID, isolation.ContainerOptions{
			WorkDir: opts.Cwd,
			Image:   opts.Image,
		})
		if err != nil {
			return isolation.Record{}, "", err
		}
		return isolation.Record{Kind: isolation.KindContainer, Container: info}, info.WorkDir, nil

	default:
		return isolation.Record{Kind: isolation.KindNone}, opts.Cwd, nil
	}
}

// onClusterStop is the shutdown detector: it reacts to the first
// CLUSTER_STOP event observed for a cluster and ignores subsequent ones,
// per SPEC_FULL.md's decision on the simultaneous-publisher race (resolved
// deterministically by the bus's total order, not a wall-clock tiebreak).
func (s *Supervisor) onClusterStop(clusterID string, graceWindow time.Duration) {
	s.mu.Lock()
	c, ok := s.clusters[clusterID]
	if !ok || c.state == StateStopping || c.state == StateStopped {
		s.mu.Unlock()
		return
	}
	c.state = StateStopping
	s.mu.Unlock()

	log.Info(log.CatOrchestrator, "shutdown detector fired", "cluster", clusterID)
	s.gracefulStop(c, graceWindow)
}

// Stop requests graceful shutdown: it marks the cluster stopping, waits
// DefaultGraceWindow (Options.GraceWindow is not consulted here), then runs
// cleanup. Agent runtimes keep evaluating triggers during the wait; only
// cleanup stops them.
func (s *Supervisor) Stop(clusterID string) error {
	s.mu.Lock()
	c, ok := s.clusters[clusterID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownCluster, clusterID)
	}
	if c.state == StateStopping || c.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	c.state = StateStopping
	s.mu.Unlock()

	s.gracefulStop(c, 0)
	return nil
}

func (s *Supervisor) gracefulStop(c *cluster, graceWindow time.Duration) {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	time.Sleep(graceWindow)
	s.teardown(c)
}

// Kill immediately signals all child process groups for clusterID, cleans
// up isolation, and marks it stopped. The worktree branch (if any) is
// preserved.
func (s *Supervisor) Kill(ctx context.Context, clusterID string) error {
	s.mu.Lock()
	c, ok := s.clusters[clusterID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCluster, clusterID)
	}
	s.teardown(c)
	return nil
}

// KillAll kills every registered cluster.
func (s *Supervisor) KillAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.clusters))
	for id := range s.clusters {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		_ = s.Kill(ctx, id)
	}
}

// teardown cancels every agent runtime, cleans up isolation, and marks the
// cluster stopped. Idempotent: a cluster already stopped is left alone.
func (s *Supervisor) teardown(c *cluster) {
	s.mu.Lock()
	if c.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if c.cancelRun != nil {
		c.cancelRun()
	}
	for _, rt := range c.runtimes {
		rt.Stop()
	}

	switch c.isolation.Kind {
	case isolation.KindWorktree:
		if err := s.isolationMgr.CleanupWorktree(c.id); err != nil {
			log.Warn(log.CatOrchestrator, "worktree cleanup failed", "cluster", c.id, "err", err)
		}
	case isolation.KindContainer:
		if err := s.isolationMgr.CleanupContainer(context.Background(), c.id); err != nil {
			log.Warn(log.CatOrchestrator, "container cleanup failed", "cluster", c.id, "err", err)
		}
	}

	s.mu.Lock()
	c.state = StateStopped
	s.mu.Unlock()

	log.Info(log.CatOrchestrator, "cluster stopped", "cluster", c.id)
}

// GetCluster returns a read-only snapshot of clusterID, or false if unknown.
func (s *Supervisor) GetCluster(clusterID string) (ClusterInfo, bool) {
	s.mu.Lock()
	c, ok := s.clusters[clusterID]
	s.mu.Unlock()
	if !ok {
		return ClusterInfo{}, false
	}

	statuses := make([]agent.Status, 0, len(c.runtimes))
	for _, rt := range c.runtimes {
		statuses = append(statuses, rt.Status())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ClusterInfo{
		ID:        c.id,
		State:     c.state,
		CreatedAt: c.createdAt,
		Isolation: c.isolation,
		Agents:    statuses,
	}, true
}

// warnOnceFor reports whether this is the first time key has been warned
// about in this process, recording it if so.
func (s *Supervisor) warnOnceFor(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.warnOnce[key]; seen {
		return false
	}
	s.warnOnce[key] = struct{}{}
	return true
}
