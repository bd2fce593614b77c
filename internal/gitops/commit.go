package gitops

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit builds a tree from the current index and commits it. The parent is
// the current HEAD commit when one exists; on an unborn branch a root commit
// with no parents is created.
func (r *Repository) Commit(message string) (plumbing.Hash, error) {
	sig, err := r.signature()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrCommit, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrCommit, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:    &sig,
		Committer: &sig,
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrCommit, err)
	}
	return hash, nil
}

// signature resolves the author identity from git configuration, merging
// local, global and system scopes the way git's own config resolution does.
func (r *Repository) signature() (object.Signature, error) {
	cfg, err := r.repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return object.Signature{}, fmt.Errorf("reading git config: %v", err)
	}
	if cfg.User.Name == "" || cfg.User.Email == "" {
		return object.Signature{}, fmt.Errorf("user.name and user.email not configured")
	}
	return object.Signature{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
		When:  time.Now(),
	}, nil
}
