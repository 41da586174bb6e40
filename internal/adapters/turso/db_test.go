package turso

import (
	"path/filepath"
	"testing"
)

func TestDataSourceName(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		location string
		token    string
		want     string
	}{
		{"local path", filepath.Join(dir, "a.db"), "", "file:" + filepath.Join(dir, "a.db")},
		{"file prefix", "file:" + filepath.Join(dir, "b.db"), "", "file:" + filepath.Join(dir, "b.db")},
		{"remote without token", "libsql://db.example.com", "", "libsql://db.example.com"},
		{"remote token is escaped", "libsql://db.example.com", "a+b/c=d&e", "libsql://db.example.com?authToken=a%2Bb%2Fc%3Dd%26e"},
		{"remote keeps existing query", "https://db.example.com?tls=1", "tok", "https://db.example.com?authToken=tok&tls=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(tt.location, tt.token)
			if err != nil {
				t.Fatalf("dataSourceName: %v", err)
			}
			if got != tt.want {
				t.Errorf("dataSourceName(%q, %q) = %q, want %q", tt.location, tt.token, got, tt.want)
			}
		})
	}

	if _, err := dataSourceName("", ""); err == nil {
		t.Error("expected an error for an empty location")
	}
}
