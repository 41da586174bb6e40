package turso

import (
	"context"
	"errors"
	"testing"
)

func TestWithRetry(t *testing.T) {
	streamErr := errors.New("hrana: stream not found")
	busyErr := errors.New("SQLite failure: `database is locked`")
	otherErr := errors.New("constraint failed")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success", []error{nil}, 1, nil},
		{"stream error then success", []error{streamErr, streamErr, nil}, 3, nil},
		{"busy error then success", []error{busyErr, nil}, 2, nil},
		{"other error is permanent", []error{otherErr, nil}, 1, otherErr},
		{"gives up after max retries", []error{streamErr, streamErr, streamErr, streamErr, streamErr, streamErr, streamErr}, maxRetries + 1, streamErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := WithRetry(context.Background(), func() (int, error) {
				err := tt.errs[calls]
				calls++
				return calls, err
			})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err == nil && got != calls {
				t.Errorf("result = %d, want %d", got, calls)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("hrana: stream not found"), true},
		{errors.New("SQLite failure: `database is locked`"), true},
		{errors.New("sqlite3: SQLITE_BUSY"), true},
		{errors.New("no such table: decisions"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
