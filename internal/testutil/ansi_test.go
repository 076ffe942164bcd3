package testutil

import "testing"

func TestStripAnsiCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No codes", "p=0.0083 q=0.477", "p=0.0083 q=0.477"},
		{"Simple color", "\x1b[31mFailure\x1b[0m", "Failure"},
		{"Bold and color", "\x1b[1;32mLaggards\x1b[0m", "Laggards"},
		{"Table header", "\x1b[4mYear\x1b[0m\t\x1b[4mCumulative\x1b[0m", "Year\tCumulative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripAnsiCodes(tt.input); got != tt.expected {
				t.Errorf("StripAnsiCodes(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}
