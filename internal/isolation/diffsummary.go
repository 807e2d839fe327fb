package isolation

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileChange summarizes one file's change between a worktree and the base
// repository checkout it was branched from.
type FileChange struct {
	Path         string
	LinesAdded   int
	LinesRemoved int
}

// DiffSummary is a short summary of what a worktree's files changed
// relative to the base repository checkout, computed at teardown time so a
// caller can judge whether a branch is worth keeping before the worktree
// directory vanishes.
type DiffSummary struct {
	Files []FileChange
}

// Totals sums LinesAdded/LinesRemoved across every changed file.
func (s DiffSummary) Totals() (added, removed int) {
	for _, f := range s.Files {
		added += f.LinesAdded
		removed += f.LinesRemoved
	}
	return added, removed
}

// summarizeWorktreeDiff walks worktreeDir, diffing every regular file
// against the same relative path under repoRoot with a line-mode Myers
// diff. A file present only in the worktree is reported as fully added;
// .git directories are skipped. Read errors for an individual file are
// treated as "unchanged" rather than failing the whole walk, since a
// teardown summary is best-effort observability, not a correctness check.
func summarizeWorktreeDiff(repoRoot, worktreeDir string) (DiffSummary, error) {
	var summary DiffSummary
	dmp := diffmatchpatch.New()

	err := filepath.WalkDir(worktreeDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(worktreeDir, path)
		if err != nil {
			return nil
		}

		newContent, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		oldContent, err := os.ReadFile(filepath.Join(repoRoot, rel))
		if err != nil {
			summary.Files = append(summary.Files, FileChange{
				Path:       rel,
				LinesAdded: countLines(string(newContent)),
			})
			return nil
		}
		if string(oldContent) == string(newContent) {
			return nil
		}

		chars1, chars2, lineArray := dmp.DiffLinesToChars(string(oldContent), string(newContent))
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

		var added, removed int
		for _, diff := range diffs {
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				added += countLines(diff.Text)
			case diffmatchpatch.DiffDelete:
				removed += countLines(diff.Text)
			}
		}
		if added == 0 && removed == 0 {
			return nil
		}
		summary.Files = append(summary.Files, FileChange{Path: rel, LinesAdded: added, LinesRemoved: removed})
		return nil
	})
	if err != nil {
		return DiffSummary{}, err
	}
	return summary, nil
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
