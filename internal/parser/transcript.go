// Package parser reads Claude Code session transcripts (JSON Lines).
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type TranscriptEntry struct {
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp,omitempty"`
	Message   *Message `json:"message,omitempty"`
}

// Message content is either a plain string or a list of content blocks.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text returns the message's text, joining text blocks with newlines.
func (m *Message) Text() string {
	if m == nil || len(m.Content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}

	var blocks []Content
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return ""
	}
	var b strings.Builder
	for _, block := range blocks {
		if block.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block.Text)
	}
	return b.String()
}

// ReadLines returns every valid JSON line of the transcript. Malformed lines
// are skipped.
func ReadLines(path string) ([]json.RawMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []json.RawMessage

	scanner := bufio.NewScanner(file)
	// Increase buffer size for large lines
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		lines = append(lines, json.RawMessage(bytes.Clone(line)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript: %w", err)
	}
	return lines, nil
}

// AssistantText concatenates the assistant text found in the last tail
// lines of the transcript, one message per line. A tail of zero or less
// reads the whole transcript.
func AssistantText(path string, tail int) (string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return "", err
	}
	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}

	var b strings.Builder
	for _, line := range lines {
		var entry TranscriptEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "assistant" {
			continue
		}
		if text := entry.Message.Text(); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
