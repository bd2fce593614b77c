// Package event decodes hook notifications emitted by a coding agent runtime.
//
// The agent sends one JSON object per invocation on stdin, discriminated by
// the hook_event_name field. Only SessionStart and PostToolUse are handled;
// nested enum values the agent adds in future versions decode to an explicit
// Unknown value so an upgrade on the agent side never breaks parsing here.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEvent indicates the input is not a recognizable hook event.
// Callers use this to fall back to treating the input as raw diff content.
var ErrMalformedEvent = errors.New("malformed hook event")

// Name is the hook_event_name discriminator value.
type Name string

const (
	SessionStart Name = "SessionStart"
	PostToolUse  Name = "PostToolUse"
)

// SessionSource reports why a session started.
type SessionSource string

const (
	SourceClear   SessionSource = "clear"
	SourceCompact SessionSource = "compact"
	SourceResume  SessionSource = "resume"
	SourceStartup SessionSource = "startup"

	// SourceUnknown is the fallback for source values this tool does not
	// know about yet.
	SourceUnknown SessionSource = "unknown"
)

// ToolName identifies the agent tool that fired a PostToolUse event.
type ToolName string

const (
	ToolTask      ToolName = "Task"
	ToolBash      ToolName = "Bash"
	ToolGlob      ToolName = "Glob"
	ToolGrep      ToolName = "Grep"
	ToolRead      ToolName = "Read"
	ToolEdit      ToolName = "Edit"
	ToolMultiEdit ToolName = "MultiEdit"
	ToolWrite     ToolName = "Write"
	ToolWebFetch  ToolName = "WebFetch"
	ToolWebSearch ToolName = "WebSearch"

	// ToolUnknown is the fallback for tool names this tool does not know
	// about yet.
	ToolUnknown ToolName = "Unknown"
)

var knownTools = map[string]ToolName{
	"Task":      ToolTask,
	"Bash":      ToolBash,
	"Glob":      ToolGlob,
	"Grep":      ToolGrep,
	"Read":      ToolRead,
	"Edit":      ToolEdit,
	"MultiEdit": ToolMultiEdit,
	"Write":     ToolWrite,
	"WebFetch":  ToolWebFetch,
	"WebSearch": ToolWebSearch,
}

var knownSources = map[string]SessionSource{
	"clear":   SourceClear,
	"compact": SourceCompact,
	"resume":  SourceResume,
	"startup": SourceStartup,
}

// ToolInput carries the tool parameters relevant to committing.
type ToolInput struct {
	FilePath string `json:"file_path"`
}

// ToolResponse carries the tool outcome. The agent omits success on some
// tools; absence means the tool succeeded.
type ToolResponse struct {
	Success bool `json:"success"`
}

// UnmarshalJSON defaults Success to true when the field is absent.
func (r *ToolResponse) UnmarshalJSON(data []byte) error {
	type raw struct {
		Success *bool `json:"success"`
	}
	var v raw
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Success = v.Success == nil || *v.Success
	return nil
}

// HookEvent is one decoded hook notification. Exactly one of the
// variant-specific field groups is meaningful, selected by Name.
type HookEvent struct {
	Name           Name
	SessionID      string
	TranscriptPath string
	CWD            string

	// SessionStart only. Nil when the agent sent no source.
	Source *SessionSource

	// PostToolUse only.
	Tool         ToolName
	ToolInput    ToolInput
	ToolResponse ToolResponse
}

// Cwd returns the working directory the event refers to. Every downstream
// repository operation is rooted here.
func (e *HookEvent) Cwd() string {
	return e.CWD
}

// envelope is the raw wire shape shared by both variants.
type envelope struct {
	HookEventName  string          `json:"hook_event_name"`
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	CWD            string          `json:"cwd"`
	Source         *string         `json:"source"`
	ToolName       *string         `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolResponse   json.RawMessage `json:"tool_response"`
}

// Parse decodes a hook event payload. It returns ErrMalformedEvent when the
// payload is not JSON, the discriminator is missing or names an unhandled
// variant, or a required field of the matched variant is absent or mistyped.
// Unknown source and tool_name values are not errors; they decode to
// SourceUnknown and ToolUnknown.
func Parse(data []byte) (*HookEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch Name(env.HookEventName) {
	case SessionStart:
		return parseSessionStart(&env)
	case PostToolUse:
		return parsePostToolUse(&env)
	case "":
		return nil, fmt.Errorf("%w: missing hook_event_name", ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: unhandled hook_event_name %q", ErrMalformedEvent, env.HookEventName)
	}
}

func parseSessionStart(env *envelope) (*HookEvent, error) {
	if env.SessionID == "" {
		return nil, fmt.Errorf("%w: SessionStart missing session_id", ErrMalformedEvent)
	}
	if env.CWD == "" {
		return nil, fmt.Errorf("%w: SessionStart missing cwd", ErrMalformedEvent)
	}

	ev := &HookEvent{
		Name:           SessionStart,
		SessionID:      env.SessionID,
		TranscriptPath: env.TranscriptPath,
		CWD:            env.CWD,
	}
	if env.Source != nil {
		src := parseSource(*env.Source)
		ev.Source = &src
	}
	return ev, nil
}

func parsePostToolUse(env *envelope) (*HookEvent, error) {
	if env.CWD == "" {
		return nil, fmt.Errorf("%w: PostToolUse missing cwd", ErrMalformedEvent)
	}
	if env.ToolName == nil {
		return nil, fmt.Errorf("%w: PostToolUse missing tool_name", ErrMalformedEvent)
	}

	ev := &HookEvent{
		Name:           PostToolUse,
		SessionID:      env.SessionID,
		TranscriptPath: env.TranscriptPath,
		CWD:            env.CWD,
		Tool:           parseTool(*env.ToolName),
		// Absent tool_response means success; matches UnmarshalJSON above.
		ToolResponse: ToolResponse{Success: true},
	}

	if len(env.ToolInput) > 0 {
		if err := json.Unmarshal(env.ToolInput, &ev.ToolInput); err != nil {
			return nil, fmt.Errorf("%w: PostToolUse tool_input: %v", ErrMalformedEvent, err)
		}
	}
	if len(env.ToolResponse) > 0 {
		if err := json.Unmarshal(env.ToolResponse, &ev.ToolResponse); err != nil {
			return nil, fmt.Errorf("%w: PostToolUse tool_response: %v", ErrMalformedEvent, err)
		}
	}
	return ev, nil
}

func parseSource(s string) SessionSource {
	if src, ok := knownSources[s]; ok {
		return src
	}
	return SourceUnknown
}

func parseTool(s string) ToolName {
	if tool, ok := knownTools[s]; ok {
		return tool
	}
	return ToolUnknown
}
