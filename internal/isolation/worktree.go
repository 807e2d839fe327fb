package isolation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeroshot/zeroshot/internal/git"
	"github.com/zeroshot/zeroshot/internal/log"
)

// worktreeBranch returns the branch name a cluster's worktree is created on.
func worktreeBranch(clusterID string) string {
	return "zeroshot/" + clusterID
}

// worktreePath returns the on-disk path a cluster's worktree lives at,
// rooted under the OS temp directory so stale worktrees from crashed runs
// are easy to find and sweep.
func worktreePath(clusterID string) string {
	return filepath.Join(os.TempDir(), "zeroshot-worktrees", clusterID)
}

// createWorktree provisions a git worktree sandbox for clusterID rooted at
// repoRoot. If a stale worktree directory already exists at the target path
// (left behind by a crashed prior run) it prunes and recreates rather than
// failing. On the first CreateWorktree failure it retries
// once after running PruneWorktrees, since a dangling worktree
// administrative entry is the most common transient cause.
func createWorktree(exec git.GitExecutor, clusterID, repoRoot string) (*WorktreeInfo, error) {
	if !exec.IsGitRepo() {
		return nil, ErrNotAGitRepo
	}

	path := worktreePath(clusterID)
	branch := worktreeBranch(clusterID)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		log.Debug(log.CatIsolation, "pruning stale worktree directory", "cluster", clusterID, "path", path)
		if err := os.RemoveAll(path); err != nil {
			return nil, wrapFailed("remove stale worktree dir", err)
		}
		_ = exec.PruneWorktrees()
	}

	baseBranch, err := exec.GetCurrentBranch()
	if err != nil {
		baseBranch = ""
	}

	createErr := exec.CreateWorktree(path, branch, baseBranch)
	if createErr != nil {
		log.Debug(log.CatIsolation, "worktree create failed, pruning and retrying once", "cluster", clusterID, "err", createErr)
		if pruneErr := exec.PruneWorktrees(); pruneErr != nil {
			return nil, wrapFailed("create worktree", createErr)
		}
		createErr = exec.CreateWorktree(path, branch, baseBranch)
		if createErr != nil {
			return nil, wrapFailed("create worktree after retry", createErr)
		}
	}

	root, err := exec.GetRepoRoot()
	if err != nil {
		root = repoRoot
	}

	return &WorktreeInfo{
		Path:     path,
		Branch:   branch,
		RepoRoot: root,
	}, nil
}

// cleanupWorktree removes the worktree directory while preserving its
// branch (the branch may carry committed work the caller wants to inspect
// or merge after the cluster stops). Idempotent: a missing worktree is not
// an error.
func cleanupWorktree(exec git.GitExecutor, info *WorktreeInfo) error {
	if info == nil {
		return nil
	}
	if err := exec.RemoveWorktree(info.Path); err != nil {
		log.Debug(log.CatIsolation, "remove worktree failed, falling back to rmdir", "path", info.Path, "err", err)
	}
	if err := os.RemoveAll(info.Path); err != nil {
		return fmt.Errorf("cleanup worktree %s: %w", info.Path, err)
	}
	_ = exec.PruneWorktrees()
	return nil
}

// getWorktreeInfo reports whether clusterID currently has a worktree
// provisioned on disk, re-deriving the info deterministically from the
// cluster id rather than requiring a lookup table.
func getWorktreeInfo(clusterID string) (*WorktreeInfo, bool) {
	path := worktreePath(clusterID)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, false
	}
	return &WorktreeInfo{
		Path:   path,
		Branch: worktreeBranch(clusterID),
	}, true
}
