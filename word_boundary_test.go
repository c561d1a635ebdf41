package coregex

import (
	"regexp"
	"testing"
)

func TestWordBoundaryMatching(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
	}{
		{`\bcat\b`, "the cat sat"},
		{`\bcat\b`, "concatenate"},
		{`\bcat\b`, "cat"},
		{`\Bcat\B`, "concatenate"},
		{`\Bcat\B`, "cat"},
		{`\bfoo\b`, "foo bar baz"},
		{`\b\d+\b`, "abc 123 def"},
		{`\b\w+\b`, ""},
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

// Unicode word characters exercise the perl-word table built in
// wasmcompile/unicode_word.go rather than the ASCII-only fast path. The
// expected values are written out: the stdlib regexp's \b is ASCII-only, so
// it cannot serve as the oracle here.
func TestWordBoundaryUnicode(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{`\bmüller\b`, "der müller kommt", true},
		{`\bкот\b`, "домашний кот спит", true},
		{`\b日本\b`, "日本 language", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			defer re.Close()

			if got := re.MatchString(tt.input); got != tt.want {
				t.Errorf("MatchString(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
			}
		})
	}
}
