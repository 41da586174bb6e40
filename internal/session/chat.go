package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emiliopalmerini/hookguard/internal/parser"
)

// ChatFile is the name of the transcript export inside the log directory.
const ChatFile = "chat.json"

// ExportChat converts a JSONL transcript into a JSON array at dst. Invalid
// lines are skipped and a missing transcript is not an error.
func ExportChat(transcriptPath, dst string) error {
	if transcriptPath == "" {
		return nil
	}
	if _, err := os.Stat(transcriptPath); os.IsNotExist(err) {
		return nil
	}

	lines, err := parser.ReadLines(transcriptPath)
	if err != nil {
		return err
	}
	if lines == nil {
		lines = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chat: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create chat directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write chat: %w", err)
	}
	return nil
}

// ReminderEvery is how many responses pass between wrap-up reminders.
const ReminderEvery = 20

// ShouldRemind reports whether the response count warrants a wrap-up
// reminder.
func ShouldRemind(responseCount int) bool {
	return responseCount > 0 && responseCount%ReminderEvery == 0
}
