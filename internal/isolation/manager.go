package isolation

import (
	"context"
	"sync"

	"github.com/zeroshot/zeroshot/internal/git"
	"github.com/zeroshot/zeroshot/internal/log"
	"github.com/zeroshot/zeroshot/internal/tracing"
)

// Manager tracks exactly one isolation Record per cluster id and exposes
// the provisioning/teardown operations the Orchestrator Supervisor drives
// a cluster's sandbox lifecycle through.
type Manager struct {
	repoRoot string
	clock    Clock

	mu      sync.Mutex
	records map[string]Record
}

// NewManager constructs a Manager rooted at repoRoot, the git repository
// clusters' worktrees are created against.
func NewManager(repoRoot string) *Manager {
	return &Manager{
		repoRoot: repoRoot,
		clock:    RealClock{},
		records:  make(map[string]Record),
	}
}

// WithClock overrides the Manager's Clock, for deterministic tests of
// container retry/backoff timing.
func (m *Manager) WithClock(c Clock) *Manager {
	m.clock = c
	return m
}

// CreateWorktree provisions a git worktree sandbox for clusterID and
// records it as the cluster's active isolation.
func (m *Manager) CreateWorktree(ctx context.Context, clusterID string) (*WorktreeInfo, error) {
	_, span := tracing.StartIsolationSpan(ctx, clusterID, "worktree")
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	exec := git.NewRealExecutor(m.repoRoot)
	info, err := createWorktree(exec, clusterID, m.repoRoot)
	if err != nil {
		spanErr = err
		return nil, err
	}

	m.mu.Lock()
	m.records[clusterID] = Record{Kind: KindWorktree, Worktree: info}
	m.mu.Unlock()

	return info, nil
}

// CreateContainer provisions a container sandbox for clusterID and records
// it as the cluster's active isolation.
func (m *Manager) CreateContainer(ctx context.Context, clusterID string, opts ContainerOptions) (*ContainerInfo, error) {
	ctx, span := tracing.StartIsolationSpan(ctx, clusterID, "container")
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	info, err := createContainer(ctx, m.clock, clusterID, opts)
	if err != nil {
		spanErr = err
		return nil, err
	}

	m.mu.Lock()
	m.records[clusterID] = Record{Kind: KindContainer, Container: info}
	m.mu.Unlock()

	return info, nil
}

// CleanupWorktree tears down clusterID's worktree sandbox, if any. Before
// removing the directory it logs a diff summary against the base
// repository checkout, since the worktree's branch survives teardown but
// its working directory does not.
func (m *Manager) CleanupWorktree(clusterID string) error {
	rec, ok := m.take(clusterID)
	if !ok || rec.Kind != KindWorktree {
		return nil
	}

	if summary, err := summarizeWorktreeDiff(m.repoRoot, rec.Worktree.Path); err != nil {
		log.Debug(log.CatIsolation, "worktree diff summary failed", "cluster", clusterID, "err", err)
	} else if len(summary.Files) > 0 {
		added, removed := summary.Totals()
		log.Info(log.CatIsolation, "worktree teardown diff summary",
			"cluster", clusterID, "branch", rec.Worktree.Branch,
			"files_changed", len(summary.Files), "lines_added", added, "lines_removed", removed)
	}

	exec := git.NewRealExecutor(m.repoRoot)
	return cleanupWorktree(exec, rec.Worktree)
}

// CleanupContainer tears down clusterID's container sandbox, if any.
func (m *Manager) CleanupContainer(ctx context.Context, clusterID string) error {
	rec, ok := m.take(clusterID)
	if !ok || rec.Kind != KindContainer {
		return nil
	}
	return cleanupContainer(ctx, rec.Container)
}

// take atomically removes and returns clusterID's record.
func (m *Manager) take(clusterID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[clusterID]
	if ok {
		delete(m.records, clusterID)
	}
	return rec, ok
}

// GetWorktreeInfo returns clusterID's worktree record, preferring the
// in-memory record but falling back to an on-disk check so a manager
// restarted mid-run can still discover an existing worktree.
func (m *Manager) GetWorktreeInfo(clusterID string) (*WorktreeInfo, bool) {
	m.mu.Lock()
	rec, ok := m.records[clusterID]
	m.mu.Unlock()
	if ok && rec.Kind == KindWorktree {
		return rec.Worktree, true
	}
	return getWorktreeInfo(clusterID)
}

// HasContainer reports whether clusterID has an active container sandbox.
func (m *Manager) HasContainer(ctx context.Context, clusterID string) bool {
	m.mu.Lock()
	rec, ok := m.records[clusterID]
	m.mu.Unlock()
	if ok && rec.Kind == KindContainer {
		return true
	}
	return hasContainer(ctx, clusterID)
}

// Record returns clusterID's current isolation record, if any.
func (m *Manager) Record(clusterID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[clusterID]
	return rec, ok
}
