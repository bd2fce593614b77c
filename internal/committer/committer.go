// Package committer implements the commit orchestration policy: which hook
// events stage and commit, and when a fresh session branch is cut.
package committer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commitd/internal/event"
	"github.com/fyrsmithlabs/commitd/internal/gitops"
)

// MessageGenerator produces a commit message for a staged diff. It must not
// fail; degraded generators return a fallback message instead.
type MessageGenerator interface {
	Generate(diff string) string
}

// trunkBranches are the protected long-lived branches. A session starting on
// one of these gets its own session branch; anything else is assumed to
// already be a session branch.
var trunkBranches = map[string]bool{
	"main":    true,
	"master":  true,
	"develop": true,
}

// endOfSessionSources are the SessionStart sources that signal the previous
// session just ended, so its leftover work is committed before switching
// branches. The agent protocol is still evolving here; extend only with
// confirmed upstream semantics.
var endOfSessionSources = map[event.SessionSource]bool{
	event.SourceClear:   true,
	event.SourceCompact: true,
	event.SourceResume:  true,
}

// editTools are the tools whose successful completion triggers a per-file
// commit.
var editTools = map[event.ToolName]bool{
	event.ToolEdit:      true,
	event.ToolMultiEdit: true,
	event.ToolWrite:     true,
}

// Committer drives gitops and a MessageGenerator for one hook event.
type Committer struct {
	repo *gitops.Repository
	gen  MessageGenerator
	log  *zap.Logger
}

// New creates a Committer over an opened repository. A nil logger disables
// logging.
func New(repo *gitops.Repository, gen MessageGenerator, log *zap.Logger) *Committer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Committer{repo: repo, gen: gen, log: log}
}

// HandleEvent applies the decision policy for one event. Errors from gitops
// are fatal for the invocation and propagate; message generation cannot fail.
func (c *Committer) HandleEvent(ev *event.HookEvent) error {
	switch ev.Name {
	case event.SessionStart:
		return c.handleSessionStart(ev)
	case event.PostToolUse:
		return c.handlePostToolUse(ev)
	default:
		return nil
	}
}

// handleSessionStart commits the previous session's leftovers when the
// source says one just ended, then cuts a session branch when sitting on a
// trunk branch. The end-of-session commit runs first so it lands on the
// branch being vacated.
func (c *Committer) handleSessionStart(ev *event.HookEvent) error {
	branch, err := c.repo.CurrentBranch()
	if err != nil {
		return err
	}

	if ev.Source != nil && endOfSessionSources[*ev.Source] {
		if err := c.commitStagedAll(); err != nil {
			return err
		}
	}

	if !trunkBranches[branch] {
		c.log.Debug("not on a trunk branch, keeping current branch",
			zap.String("branch", branch))
		return nil
	}

	name := sessionBranchName(ev.SessionID, time.Now())
	if err := c.repo.CreateSessionBranch(name); err != nil {
		return err
	}
	c.log.Info("created session branch",
		zap.String("branch", name),
		zap.String("from", branch))
	return nil
}

// handlePostToolUse commits a single edited file after a successful Edit,
// MultiEdit or Write. All other tools, and failed tool responses, are
// ignored.
func (c *Committer) handlePostToolUse(ev *event.HookEvent) error {
	if !editTools[ev.Tool] || !ev.ToolResponse.Success {
		return nil
	}
	// Without a file path there is no single file to stage; go-git treats
	// an empty path as the worktree root and would sweep everything in.
	if ev.ToolInput.FilePath == "" {
		c.log.Debug("edit event carries no file path, skipping commit",
			zap.String("tool", string(ev.Tool)))
		return nil
	}

	path := relativeToCwd(ev.ToolInput.FilePath, ev.Cwd())
	if err := c.repo.StageFile(path); err != nil {
		return err
	}

	diff, err := c.repo.StagedDiff()
	if err != nil {
		return err
	}
	if diff == "" {
		c.log.Debug("edit produced no staged changes, skipping commit",
			zap.String("file", path))
		return nil
	}

	hash, err := c.repo.Commit(c.gen.Generate(diff))
	if err != nil {
		return err
	}
	c.log.Info("committed edited file",
		zap.String("file", path),
		zap.String("commit", hash.String()))
	return nil
}

// commitStagedAll stages every working-tree change and commits them when the
// staged diff is non-empty.
func (c *Committer) commitStagedAll() error {
	if err := c.repo.StageAll(); err != nil {
		return err
	}
	diff, err := c.repo.StagedDiff()
	if err != nil {
		return err
	}
	if diff == "" {
		return nil
	}

	hash, err := c.repo.Commit(c.gen.Generate(diff))
	if err != nil {
		return err
	}
	c.log.Info("committed end-of-session changes",
		zap.String("commit", hash.String()))
	return nil
}

// sessionBranchName builds session/{id}_{timestamp}. The timestamp is local
// time, so branch names sort by wall clock on the machine that created them.
func sessionBranchName(sessionID string, now time.Time) string {
	return fmt.Sprintf("session/%s_%s", sessionID, now.Format("20060102_150405"))
}

// relativeToCwd strips the cwd prefix from an absolute path. Paths outside
// cwd, and relative paths, are returned unchanged rather than failing.
func relativeToCwd(path, cwd string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
