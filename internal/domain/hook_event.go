package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingEventName is returned when the payload has no hook_event_name.
	ErrMissingEventName = errors.New("missing hook_event_name")
	// ErrUnknownEvent is returned for hook events hookguard does not handle.
	ErrUnknownEvent = errors.New("unknown hook event")
)

// Hook event names as sent by Claude Code.
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventSessionStart     = "SessionStart"
	EventStop             = "Stop"
)

// HookEventBase contains fields common to all hook events from Claude Code.
type HookEventBase struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	PermissionMode string `json:"permission_mode"`
	HookEventName  string `json:"hook_event_name"`
}

// PreToolUseInput is sent before a tool runs. The hook may block it.
type PreToolUseInput struct {
	HookEventBase
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
	ToolUseID string          `json:"tool_use_id"`
}

// PostToolUseInput is sent after a tool is used in a session.
type PostToolUseInput struct {
	HookEventBase
	ToolName     string          `json:"tool_name"`
	ToolInput    json.RawMessage `json:"tool_input"`
	ToolResponse json.RawMessage `json:"tool_response"`
	ToolUseID    string          `json:"tool_use_id"`
}

// UserPromptSubmitInput is sent when the user submits a prompt.
type UserPromptSubmitInput struct {
	HookEventBase
	Prompt string `json:"prompt"`
}

// SessionStartInput is sent when a Claude Code session starts.
type SessionStartInput struct {
	HookEventBase
	Source    string `json:"source"`
	Model     string `json:"model"`
	AgentType string `json:"agent_type"`
}

// StopInput is sent when a stop event occurs in a session.
type StopInput struct {
	HookEventBase
	StopHookActive bool `json:"stop_hook_active"`
}

// ParseHookEvent parses raw JSON into the appropriate typed event struct.
func ParseHookEvent(data []byte) (any, error) {
	var base HookEventBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse hook event: %w", err)
	}

	if base.HookEventName == "" {
		return nil, ErrMissingEventName
	}

	switch base.HookEventName {
	case EventPreToolUse:
		return ParsePreToolUse(data)

	case EventPostToolUse:
		var event PostToolUseInput
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to parse PostToolUse event: %w", err)
		}
		return &event, nil

	case EventUserPromptSubmit:
		var event UserPromptSubmitInput
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to parse UserPromptSubmit event: %w", err)
		}
		return &event, nil

	case EventSessionStart:
		var event SessionStartInput
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to parse SessionStart event: %w", err)
		}
		return &event, nil

	case EventStop:
		var event StopInput
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to parse Stop event: %w", err)
		}
		return &event, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, base.HookEventName)
	}
}

// ParsePreToolUse parses a PreToolUse payload without requiring
// hook_event_name, so the guard also works when wired as a bare command.
func ParsePreToolUse(data []byte) (*PreToolUseInput, error) {
	var event PreToolUseInput
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse PreToolUse event: %w", err)
	}
	return &event, nil
}
