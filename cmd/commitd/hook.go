package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commitd/internal/committer"
	"github.com/fyrsmithlabs/commitd/internal/event"
	"github.com/fyrsmithlabs/commitd/internal/generator"
	"github.com/fyrsmithlabs/commitd/internal/gitops"
	"github.com/fyrsmithlabs/commitd/internal/logging"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle a hook event from stdin",
	Long: `Read one hook event JSON payload from stdin and act on it.

SessionStart events commit the previous session's leftover work and cut a new
session branch when on a trunk branch. PostToolUse events commit successful
file edits one by one.

Input that does not parse as a hook event is treated as raw diff content: a
commit message is generated for it and printed to stdout without committing.

Configure Claude Code to run this for SessionStart and PostToolUse:

  {
    "hooks": {
      "SessionStart": [{"hooks": [{"type": "command", "command": "commitd hook"}]}],
      "PostToolUse":  [{"matcher": "Edit|MultiEdit|Write",
                        "hooks": [{"type": "command", "command": "commitd hook"}]}]
    }
  }`,
	RunE: runHook,
}

func runHook(cmd *cobra.Command, args []string) error {
	// Generator subprocesses carry this marker; exiting here stops the
	// generator's own tool activity from re-entering the pipeline.
	if os.Getenv(generator.RunningEnv) != "" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	genCfg, err := generator.LoadConfig()
	if err != nil {
		return err
	}
	gen := generator.New(genCfg, cfg.Language, log)

	return handleHookInput(input, gen, log, os.Stdout)
}

// handleHookInput dispatches one stdin payload: hook events drive the
// committer against the repository at the event's cwd, anything else is
// treated as raw diff content and only produces a message on out.
func handleHookInput(input []byte, gen *generator.Generator, log *zap.Logger, out io.Writer) error {
	ev, err := event.Parse(input)
	if err != nil {
		if errors.Is(err, event.ErrMalformedEvent) {
			// Secondary mode: the payload is raw diff content. Print a
			// generated message, commit nothing.
			fmt.Fprintln(out, gen.Generate(string(input)))
			return nil
		}
		return err
	}

	repo, err := gitops.Open(ev.Cwd())
	if err != nil {
		return err
	}
	return committer.New(repo, gen, log).HandleEvent(ev)
}
