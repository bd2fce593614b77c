package gitops

import "errors"

var (
	// ErrRepositoryAccess indicates the repository could not be discovered
	// or opened from the working directory.
	ErrRepositoryAccess = errors.New("repository access failed")

	// ErrIndex indicates a staging operation against the index failed.
	ErrIndex = errors.New("index operation failed")

	// ErrDiff indicates the staged diff could not be computed.
	ErrDiff = errors.New("diff computation failed")

	// ErrBranch indicates a session branch could not be created, typically
	// because the name already exists or the repository has no commits.
	ErrBranch = errors.New("branch creation failed")

	// ErrCommit indicates a commit could not be created.
	ErrCommit = errors.New("commit creation failed")
)
