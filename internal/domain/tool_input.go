package domain

import (
	"encoding/json"
	"fmt"
)

// Tool names used by Claude Code.
const (
	ToolRead         = "Read"
	ToolEdit         = "Edit"
	ToolMultiEdit    = "MultiEdit"
	ToolWrite        = "Write"
	ToolNotebookEdit = "NotebookEdit"
	ToolBash         = "Bash"
)

// ToolInput holds the tool_input fields hookguard inspects. Unknown fields
// are ignored.
type ToolInput struct {
	FilePath     string `json:"file_path,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
	Command      string `json:"command,omitempty"`
	Content      string `json:"content,omitempty"`
}

// Path returns the file the tool operates on, if any.
func (t ToolInput) Path() string {
	if t.FilePath != "" {
		return t.FilePath
	}
	return t.NotebookPath
}

// DecodeToolInput decodes a raw tool_input object. Empty input decodes to
// the zero ToolInput.
func DecodeToolInput(raw json.RawMessage) (ToolInput, error) {
	var in ToolInput
	if len(raw) == 0 || string(raw) == "null" {
		return in, nil
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("failed to decode tool_input: %w", err)
	}
	return in, nil
}

// IsFileTool reports whether the tool reads or writes a single file path.
func IsFileTool(name string) bool {
	switch name {
	case ToolRead, ToolEdit, ToolMultiEdit, ToolWrite, ToolNotebookEdit:
		return true
	}
	return false
}

// IsWriteTool reports whether the tool modifies a file.
func IsWriteTool(name string) bool {
	switch name {
	case ToolEdit, ToolMultiEdit, ToolWrite, ToolNotebookEdit:
		return true
	}
	return false
}

// IsShellTool reports whether the tool executes a shell command.
func IsShellTool(name string) bool {
	return name == ToolBash
}
