package coregex

import (
	"regexp"
	"testing"
)

// Regression coverage for anchor handling across the unanchored PikeVM
// sweep: ^ and $ must bind to the edges of the searched span, not to every
// position a naive per-byte scan might otherwise try.
func TestAnchorMatching(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
	}{
		{"^", "12345"},
		{"^test", "test hello test"},
		{"^test", "hello test"},
		{"^[a-z]+", "hello world"},
		{"end$", "the end"},
		{"end$", "the end of it"},
		{"^full$", "full"},
		{"^full$", "fuller"},
		{"(?m)^line", "one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			want := regexp.MustCompile(tt.pattern).MatchString(tt.input)

			re, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			defer re.Close()

			if got := re.MatchString(tt.input); got != want {
				t.Errorf("MatchString(%q, %q) = %v, want %v", tt.pattern, tt.input, got, want)
			}
		})
	}
}
