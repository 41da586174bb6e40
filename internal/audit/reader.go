package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadEntries returns every entry of a log file in either format. A missing
// file yields no entries. Malformed JSONL lines are skipped.
func ReadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("parse log array: %w", err)
		}
		return entries, nil
	}

	entries, _, err := scanLines(bytes.NewReader(data), true)
	return entries, err
}

// ReadFrom reads the complete JSONL entries written after offset and
// returns the offset just past the last complete line. A partial trailing
// line is left for the next call.
func ReadFrom(path string, offset int64) ([]json.RawMessage, int64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, offset, nil
	}
	if err != nil {
		return nil, offset, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log: %w", err)
	}
	// Truncated or replaced: start over.
	if info.Size() < offset {
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log: %w", err)
	}

	entries, consumed, err := scanLines(f, false)
	return entries, offset + consumed, err
}

func scanLines(r io.Reader, includePartial bool) ([]json.RawMessage, int64, error) {
	var (
		entries  []json.RawMessage
		consumed int64
	)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if err == io.EOF {
			if includePartial {
				if last := bytes.TrimSpace(line); len(last) > 0 && json.Valid(last) {
					entries = append(entries, json.RawMessage(last))
				}
			}
			return entries, consumed, nil
		}
		if err != nil {
			return entries, consumed, fmt.Errorf("read log: %w", err)
		}
		consumed += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		entries = append(entries, json.RawMessage(line))
	}
}
