// Package audit persists hook payloads to per-event log files.
//
// The default format is JSON Lines: every entry is appended with O_APPEND
// while holding an exclusive file lock, so concurrent hook processes never
// lose each other's entries. The legacy array format (one JSON array per
// file) is still supported; its read-modify-write cycle runs under the same
// lock.
package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emiliopalmerini/hookguard/internal/util"
)

// Format selects the on-disk layout of a log file.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatArray Format = "array"
)

// TimestampLayout is the ISO-8601 layout used for the timestamp field.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event log names.
const (
	LogPreToolUse       = "pre_tool_use"
	LogUserPromptSubmit = "user_prompt_submit"
	LogSessionStart     = "session_start"
	LogStop             = "stop"
)

// ErrNotObject is returned when a payload to log is not a JSON object.
var ErrNotObject = errors.New("log entry must be a JSON object")

// ParseFormat validates a format name. Empty selects JSONL.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSONL:
		return FormatJSONL, nil
	case FormatArray:
		return FormatArray, nil
	}
	return "", fmt.Errorf("unknown log format %q (want jsonl or array)", s)
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatArray {
		return ".json"
	}
	return ".jsonl"
}

// Log is an append-only event log file.
type Log struct {
	path   string
	format Format
}

// NewLog returns the log for the named event inside dir.
func NewLog(dir, name string, format Format) *Log {
	return &Log{
		path:   filepath.Join(dir, name+format.Extension()),
		format: format,
	}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append records payload with a timestamp field added. The containing
// directory is created if absent.
func (l *Log) Append(payload []byte, ts time.Time) error {
	entry, err := withTimestamp(payload, ts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if l.format == FormatArray {
		return l.appendArray(entry)
	}
	return l.appendLine(entry)
}

func (l *Log) appendLine(entry []byte) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	unlock, err := util.LockFile(f)
	if err != nil {
		return fmt.Errorf("lock log: %w", err)
	}
	defer unlock()

	if _, err := f.Write(append(entry, '\n')); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}

func (l *Log) appendArray(entry []byte) error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	unlock, err := util.LockFile(f)
	if err != nil {
		return fmt.Errorf("lock log: %w", err)
	}
	defer unlock()

	existing, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	// A corrupt or empty file starts a fresh array.
	var entries []json.RawMessage
	if err := json.Unmarshal(existing, &entries); err != nil {
		entries = nil
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate log: %w", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func withTimestamp(payload []byte, ts time.Time) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, ErrNotObject
	}

	stamp, err := json.Marshal(ts.UTC().Format(TimestampLayout))
	if err != nil {
		return nil, err
	}
	obj["timestamp"] = stamp

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("marshal log entry: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
