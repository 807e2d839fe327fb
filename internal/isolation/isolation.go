// Package isolation implements the Isolation Manager: it provisions and
// tears down per-cluster execution sandboxes, either a git worktree or a
// long-running container, and tracks exactly one active isolation record
// per cluster id at a time.
//
// Worktree provisioning is grounded on internal/git's RealExecutor
// (CreateWorktree/RemoveWorktree/PruneWorktrees, the same calls the teacher
// uses for session worktrees); container provisioning is grounded on
// maruel/caic's md-CLI wrapper pattern (shell out to a CLI rather than a
// Docker SDK), adapted here to invoke docker directly since no md-like
// wrapper is part of this cluster's toolchain.
package isolation

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced by the Isolation Manager, per the error
// taxonomy's NotAGitRepo/IsolationFailed kinds.
var (
	ErrNotAGitRepo     = errors.New("not a git repository")
	ErrIsolationFailed = errors.New("isolation provisioning failed")
	ErrUnknownCluster  = errors.New("no isolation record for cluster")
)

// Kind identifies which variant of isolation a cluster is using.
type Kind int

const (
	// KindNone indicates no isolation (the agent runtime operates directly
	// in the caller-provided working directory).
	KindNone Kind = iota
	KindWorktree
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindWorktree:
		return "worktree"
	case KindContainer:
		return "container"
	default:
		return "none"
	}
}

// WorktreeInfo describes a provisioned git-worktree sandbox.
type WorktreeInfo struct {
	Path     string
	Branch   string
	RepoRoot string
}

// ContainerInfo describes a provisioned container sandbox.
type ContainerInfo struct {
	ContainerID string
	Image       string
	WorkDir     string
}

// Record is the tagged-union isolation record tracked per cluster.
type Record struct {
	Kind      Kind
	Worktree  *WorktreeInfo
	Container *ContainerInfo
}

// WorkDir returns the effective working directory agents should run in for
// this isolation record.
func (r Record) WorkDir() string {
	switch r.Kind {
	case KindWorktree:
		return r.Worktree.Path
	case KindContainer:
		return r.Container.WorkDir
	default:
		return ""
	}
}

// ContainerOptions configures createContainer.
type ContainerOptions struct {
	WorkDir string
	Image   string
}

// installRetryAttempts and the inter-attempt sleep schedule implement the
// bounded exponential-backoff policy: up to 3 attempts, sleeping 2*2^0s
// then 2*2^1s between attempts, no delay after the final attempt.
const installRetryAttempts = 3

func installRetryDelay(attempt int) time.Duration {
	return 2 * time.Second * time.Duration(1<<uint(attempt))
}

// wrapFailed annotates err with ErrIsolationFailed while preserving it for
// errors.Is/errors.As.
func wrapFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIsolationFailed, err)
}
