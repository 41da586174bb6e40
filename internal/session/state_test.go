package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore_UpdateAndLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Update("s1", func(s *State) {
		s.Prompts = append(s.Prompts, "first")
		s.EditCount++
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err = store.Update("s1", func(s *State) {
		s.Prompts = append(s.Prompts, "second")
		s.CorrectionsCount++
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Load("s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &State{
		SessionID:        "s1",
		Prompts:          []string{"first", "second"},
		CorrectionsCount: 1,
		EditCount:        1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_LoadMissingAndCorrupt(t *testing.T) {
	store := NewStore(t.TempDir())

	got, err := store.Load("nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(&State{SessionID: "nope"}, got); diff != "" {
		t.Errorf("missing state (-want +got):\n%s", diff)
	}

	path := store.Path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{oops"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = store.Load("bad")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SessionID != "bad" || got.EditCount != 0 {
		t.Errorf("corrupt state should load fresh, got %+v", got)
	}
}

func TestStore_PathSanitizesIDs(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	dir := filepath.Join(root, SessionsDir)

	tests := []struct {
		id   string
		want string
	}{
		{"abc-123", "abc-123.json"},
		{"../../etc/passwd", ".._.._etc_passwd.json"},
		{"", "unknown.json"},
		{"..", "unknown.json"},
	}
	for _, tt := range tests {
		got := store.Path(tt.id)
		if got != filepath.Join(dir, tt.want) {
			t.Errorf("Path(%q) = %q, want %q", tt.id, got, tt.want)
		}
		if !strings.HasPrefix(got, dir) {
			t.Errorf("Path(%q) escapes the sessions directory", tt.id)
		}
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore(t.TempDir())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Update("s", func(s *State) { s.ResponseCount++ }); err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Load("s")
	if err != nil {
		t.Fatal(err)
	}
	if got.ResponseCount != writers {
		t.Errorf("ResponseCount = %d, want %d", got.ResponseCount, writers)
	}
}
