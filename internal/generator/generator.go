// Package generator produces commit messages by prompting an external
// text-generation command with the staged diff. Generation is best effort:
// every failure mode resolves to the configured default message, so a flaky
// generator can never block a commit.
package generator

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// RunningEnv marks generator subprocesses. A hook invocation that finds it
// set exits immediately, which stops the generator's own tool activity from
// re-entering this pipeline.
const RunningEnv = "COMMITD_RUNNING"

//go:embed commit-config.toml
var embeddedConfig []byte

// conventionalCommitRe matches a conventional-commit header line, e.g.
// "feat: add parser".
var conventionalCommitRe = regexp.MustCompile(`^[a-z]+:\s.+`)

// Config is the generator configuration. It is loaded once per process and
// never mutated afterwards, so it is safe to share across invocations.
type Config struct {
	Prompt struct {
		Template string `toml:"template"`
	} `toml:"prompt"`
	Generator struct {
		Command              string   `toml:"command"`
		Args                 []string `toml:"args"`
		DefaultCommitMessage string   `toml:"default_commit_message"`
	} `toml:"generator"`
}

// LoadConfig parses the embedded generator configuration.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(embeddedConfig, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded commit-config.toml: %w", err)
	}
	return cfg, nil
}

// Generator builds prompts and invokes the external command. Construct it
// with an explicit Config so tests can inject a fake command.
type Generator struct {
	cfg      Config
	language string
	log      *zap.Logger
}

// New creates a Generator for the given language. A nil logger disables
// logging.
func New(cfg Config, language string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{cfg: cfg, language: language, log: log}
}

// Generate returns a commit message for the diff. It never fails: when the
// external command errors or produces empty output, the configured default
// message is returned; when the output lacks a conventional-commit header,
// the default is prepended as one.
func (g *Generator) Generate(diff string) string {
	candidate, ok := g.invoke(diff)
	if !ok {
		return g.cfg.Generator.DefaultCommitMessage
	}
	if conventionalCommitRe.MatchString(strings.TrimSpace(firstLine(candidate))) {
		return candidate
	}
	return g.cfg.Generator.DefaultCommitMessage + "\n\n" + candidate
}

// invoke runs the configured command once, with the rendered prompt as the
// final argument. No timeout or retry; the host's own hook timeout bounds
// slow generators.
func (g *Generator) invoke(diff string) (string, bool) {
	prompt := strings.NewReplacer(
		"{language}", g.language,
		"{diff_content}", diff,
	).Replace(g.cfg.Prompt.Template)

	args := make([]string, 0, len(g.cfg.Generator.Args)+1)
	args = append(args, g.cfg.Generator.Args...)
	args = append(args, prompt)

	cmd := exec.Command(g.cfg.Generator.Command, args...)
	cmd.Env = append(os.Environ(), RunningEnv+"=1")

	out, err := cmd.Output()
	if err != nil {
		g.log.Debug("generator command failed, using default message",
			zap.String("command", g.cfg.Generator.Command),
			zap.Error(err))
		return "", false
	}

	message := strings.TrimSpace(string(out))
	if message == "" {
		g.log.Debug("generator produced empty output, using default message",
			zap.String("command", g.cfg.Generator.Command))
		return "", false
	}
	return message, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
