package isolation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroshot/zeroshot/internal/git"
)

// fakeExecutor is a minimal git.GitExecutor test double. Only the methods
// createWorktree/cleanupWorktree actually call are meaningfully
// implemented; the rest return zero values, matching the teacher's
// fake-over-mock testing style.
type fakeExecutor struct {
	isGitRepo bool

	createErr      error
	createErrOnce  bool
	createCalls    int
	pruneCalls     int
	removeCalls    int
	removePath     string
	currentBranch  string
	repoRoot       string
}

func (f *fakeExecutor) CreateWorktree(path, newBranch, baseBranch string) error {
	f.createCalls++
	if f.createErr != nil && (!f.createErrOnce || f.createCalls == 1) {
		return f.createErr
	}
	return nil
}
func (f *fakeExecutor) RemoveWorktree(path string) error {
	f.removeCalls++
	f.removePath = path
	return nil
}
func (f *fakeExecutor) PruneWorktrees() error { f.pruneCalls++; return nil }
func (f *fakeExecutor) ListWorktrees() ([]git.WorktreeInfo, error) { return nil, nil }
func (f *fakeExecutor) ListBranches() ([]git.BranchInfo, error)    { return nil, nil }
func (f *fakeExecutor) BranchExists(name string) bool              { return false }
func (f *fakeExecutor) IsGitRepo() bool                            { return f.isGitRepo }
func (f *fakeExecutor) IsWorktree() (bool, error)                  { return false, nil }
func (f *fakeExecutor) IsBareRepo() (bool, error)                  { return false, nil }
func (f *fakeExecutor) IsDetachedHead() (bool, error)              { return false, nil }
func (f *fakeExecutor) GetCurrentBranch() (string, error)          { return f.currentBranch, nil }
func (f *fakeExecutor) GetMainBranch() (string, error)             { return "main", nil }
func (f *fakeExecutor) IsOnMainBranch() (bool, error)              { return false, nil }
func (f *fakeExecutor) GetRepoRoot() (string, error)               { return f.repoRoot, nil }
func (f *fakeExecutor) HasUncommittedChanges() (bool, error)       { return false, nil }
func (f *fakeExecutor) DetermineWorktreePath(sessionID string) (string, error) {
	return "", nil
}

var _ git.GitExecutor = (*fakeExecutor)(nil)

func TestCreateWorktree_NotAGitRepo(t *testing.T) {
	exec := &fakeExecutor{isGitRepo: false}
	_, err := createWorktree(exec, "c1", "/repo")
	require.ErrorIs(t, err, ErrNotAGitRepo)
}

func TestCreateWorktree_Success(t *testing.T) {
	exec := &fakeExecutor{isGitRepo: true, currentBranch: "main", repoRoot: "/repo"}
	info, err := createWorktree(exec, "c1", "/repo")
	require.NoError(t, err)
	require.Equal(t, "zeroshot/c1", info.Branch)
	require.Equal(t, "/repo", info.RepoRoot)
	require.Equal(t, 1, exec.createCalls)
}

func TestCreateWorktree_RetriesOnceAfterPrune(t *testing.T) {
	exec := &fakeExecutor{
		isGitRepo:     true,
		currentBranch: "main",
		repoRoot:      "/repo",
		createErr:     errors.New("already exists"),
		createErrOnce: true,
	}
	info, err := createWorktree(exec, "c2", "/repo")
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, 2, exec.createCalls)
	require.Equal(t, 1, exec.pruneCalls)
}

func TestCreateWorktree_FailsAfterRetryExhausted(t *testing.T) {
	exec := &fakeExecutor{
		isGitRepo:     true,
		currentBranch: "main",
		repoRoot:      "/repo",
		createErr:     errors.New("permanent failure"),
	}
	_, err := createWorktree(exec, "c3", "/repo")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrIsolationFailed)
}

func TestCreateWorktree_PrunesStaleDirectory(t *testing.T) {
	clusterID := "c-stale"
	stalePath := worktreePath(clusterID)
	require.NoError(t, os.MkdirAll(stalePath, 0o755))
	defer os.RemoveAll(filepath.Dir(stalePath))

	exec := &fakeExecutor{isGitRepo: true, currentBranch: "main", repoRoot: "/repo"}
	info, err := createWorktree(exec, clusterID, "/repo")
	require.NoError(t, err)
	require.Equal(t, stalePath, info.Path)
	require.GreaterOrEqual(t, exec.pruneCalls, 1)
}

func TestCleanupWorktree_NilInfoIsNoop(t *testing.T) {
	exec := &fakeExecutor{isGitRepo: true}
	require.NoError(t, cleanupWorktree(exec, nil))
	require.Equal(t, 0, exec.removeCalls)
}

func TestCleanupWorktree_RemovesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, os.MkdirAll(path, 0o755))

	exec := &fakeExecutor{isGitRepo: true}
	info := &WorktreeInfo{Path: path, Branch: "zeroshot/c1"}
	require.NoError(t, cleanupWorktree(exec, info))
	require.Equal(t, 1, exec.removeCalls)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestGetWorktreeInfo_MissingDirectory(t *testing.T) {
	_, ok := getWorktreeInfo("no-such-cluster-ever")
	require.False(t, ok)
}
