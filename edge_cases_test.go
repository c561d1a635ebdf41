package coregex

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func TestEmptyHaystack(t *testing.T) {
	tests := []struct {
		pattern string
	}{
		{`a*`},
		{`a+`},
		{``},
		{`^$`},
		{`\b`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			want := regexp.MustCompile(tt.pattern).MatchString("")

			re, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			defer re.Close()

			if got := re.MatchString(""); got != want {
				t.Errorf("MatchString(%q, \"\") = %v, want %v", tt.pattern, got, want)
			}
		})
	}
}

func TestEmptyPattern(t *testing.T) {
	re, err := Compile(``)
	if err != nil {
		t.Fatalf("Compile(\"\"): %v", err)
	}
	defer re.Close()

	if !re.MatchString("anything") {
		t.Error("empty pattern must match any haystack")
	}
	if !re.MatchString("") {
		t.Error("empty pattern must match an empty haystack")
	}
}

// A pattern with many alternated literals pushes the compiled NFA's state
// count across the 1-byte/2-byte state-ID width threshold (wasmcompile's
// chooseStateIDWidth picks the encoding width from the NFA's state count),
// exercising the 2-byte encoding end to end rather than only at the unit
// level.
func TestLargeStateCount(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = strings.Repeat(string(rune('a'+i%26)), 1+i%5) + "_" + strconv.Itoa(i)
	}
	pattern := strings.Join(words, "|")

	re, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer re.Close()

	want := regexp.MustCompile(pattern)
	for _, i := range []int{0, 42, 150, 299} {
		haystack := "xx" + words[i] + "yy"
		if got := re.MatchString(haystack); got != want.MatchString(haystack) {
			t.Errorf("MatchString(%q) = %v, want true", haystack, got)
		}
	}
	if re.MatchString("definitely not any of the words") {
		t.Error("expected no match against an unrelated haystack")
	}
}
