package gitops

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// StageFile adds a single path to the index. The path is relative to the
// worktree root.
func (r *Repository) StageFile(path string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndex, err)
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("%w: staging %s: %v", ErrIndex, path, err)
	}
	return nil
}

// StageAll stages every working-tree change under the repository root,
// including deletions, like git add -A.
func (r *Repository) StageAll() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndex, err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("%w: staging all changes: %v", ErrIndex, err)
	}
	return nil
}
