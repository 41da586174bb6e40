package util

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLockFile_SerializesWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.txt")

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			defer f.Close()

			unlock, err := LockFile(f)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()

			if _, err := f.WriteString("line\n"); err != nil {
				t.Errorf("write: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Count(string(data), "line\n"); got != writers {
		t.Errorf("expected %d lines, got %d", writers, got)
	}
}

func TestGetXDGDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dir, err := GetXDGDataDir()
	if err != nil {
		t.Fatalf("GetXDGDataDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-data", "hookguard") {
		t.Errorf("unexpected dir %q", dir)
	}
}
