// Package gitops provides the staging, diff, commit and branch primitives the
// committer drives. It wraps go-git; one Repository handle is opened per
// invocation and every query re-reads from disk, so concurrent hook
// invocations are serialized only by git's own index locking.
package gitops

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository is a handle to one on-disk git repository.
type Repository struct {
	repo *git.Repository
}

// Open discovers the repository containing dir, walking up parent
// directories the way git itself does.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRepositoryAccess, dir, err)
	}
	return &Repository{repo: repo}, nil
}

// CurrentBranch returns the short name of the checked-out branch, or "HEAD"
// when the repository is in a detached state.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: resolving HEAD: %v", ErrRepositoryAccess, err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return "HEAD", nil
}

// headTree returns the tree of the current HEAD commit, or nil when the
// repository has no commits yet.
func (r *Repository) headTree() (*object.Tree, error) {
	head, err := r.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, nil
		}
		return nil, err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}
