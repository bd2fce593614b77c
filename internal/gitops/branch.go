package gitops

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CreateSessionBranch creates a branch named name at the current HEAD commit
// and checks it out, updating the working tree. It fails when the name is
// already taken or the repository has no commits to branch from.
func (r *Repository) CreateSessionBranch(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("%w: repository has no commits: %v", ErrBranch, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBranch, err)
	}

	// Keep carries local changes over to the new branch, matching
	// git checkout -b on a dirty worktree.
	err = wt.Checkout(&git.CheckoutOptions{
		Hash:   head.Hash(),
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrBranch, name, err)
	}
	return nil
}
