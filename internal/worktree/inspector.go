// Package worktree implements the reproducibility gate: the pre-run check
// that a run's code state is clean (or explicitly overridden) before it may
// be logged as a trustworthy experiment.
package worktree

import (
	"context"
	"strings"

	"github.com/motionnets/mptrain/internal/process"
)

// Inspector reports whether the version-controlled working tree has
// uncommitted changes to tracked files. Untracked files are ignored.
type Inspector interface {
	IsDirty(ctx context.Context) (bool, error)
}

// GitInspector inspects the working tree by shelling out to git.
type GitInspector struct {
	// Dir is the directory to inspect. Empty means the current directory.
	Dir string
}

// IsDirty runs `git status --porcelain --untracked-files=no` and reports
// whether any tracked file has uncommitted changes.
func (g *GitInspector) IsDirty(ctx context.Context) (bool, error) {
	result, err := process.Run(ctx, process.Command{
		Binary: "git",
		Args:   []string{"status", "--porcelain", "--untracked-files=no"},
		Dir:    g.Dir,
	})
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(result.Stdout)) != "", nil
}
