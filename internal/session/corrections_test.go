package session

import "testing"

func TestIsCorrection(t *testing.T) {
	tests := []struct {
		prompt string
		want   bool
	}{
		{"No, that's wrong", true},
		{"Please revert the last change", true},
		{"Wait, hold on", true},
		{"Actually use a map instead", true},
		{"That's not what I asked", true},
		{"fix that test", true},
		{"Add a login page", false},
		{"Write the README", false},
		{"Make it waiting", false},
	}
	for _, tt := range tests {
		if got := IsCorrection(tt.prompt); got != tt.want {
			t.Errorf("IsCorrection(%q) = %v, want %v", tt.prompt, got, tt.want)
		}
	}
}

func TestShouldRemind(t *testing.T) {
	tests := []struct {
		count int
		want  bool
	}{
		{0, false},
		{1, false},
		{19, false},
		{20, true},
		{21, false},
		{40, true},
	}
	for _, tt := range tests {
		if got := ShouldRemind(tt.count); got != tt.want {
			t.Errorf("ShouldRemind(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}
