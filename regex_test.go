package coregex

import (
	"regexp"
	"testing"
)

func TestMatchString(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
	}{
		{`hello`, "hello world"},
		{`hello`, "goodbye world"},
		{`^hello`, "hello world"},
		{`^hello`, "say hello"},
		{`world$`, "hello world"},
		{`world$`, "world hello"},
		{`\d+`, "abc123"},
		{`\d+`, "abcdef"},
		{`[a-z]+@[a-z]+\.[a-z]+`, "user@example.com"},
		{`[a-z]+@[a-z]+\.[a-z]+`, "not an email"},
		{`a*`, ""},
		{`a+`, ""},
		{`(ab)+`, "ababab"},
		{`(foo|bar)`, "a bar of soap"},
		{`(foo|bar)`, "neither"},
		{`a{2,4}`, "aaa"},
		{`a{2,4}`, "a"},
		{`.`, ""},
		{`^$`, ""},
		{`^$`, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			want := regexp.MustCompile(tt.pattern).MatchString(tt.input)

			re, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			defer re.Close()

			got := re.MatchString(tt.input)
			if got != want {
				t.Errorf("MatchString(%q, %q) = %v, want %v", tt.pattern, tt.input, got, want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	re, err := Compile(`\d{3}-\d{4}`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer re.Close()

	if !re.Match([]byte("call 555-1234 now")) {
		t.Error("Match: expected a match")
	}
	if re.Match([]byte("no digits here")) {
		t.Error("Match: expected no match")
	}
}

func TestMustCompilePanicsOnInvalidPattern(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile did not panic on an invalid pattern")
		}
	}()
	MustCompile(`[unterminated`)
}

func TestCompileInvalidPattern(t *testing.T) {
	_, err := Compile(`(unclosed`)
	if err == nil {
		t.Fatal("Compile: expected an error for an unbalanced group")
	}
}

func TestString(t *testing.T) {
	const pattern = `[a-z]+\d*`
	re, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer re.Close()

	if got := re.String(); got != pattern {
		t.Errorf("String() = %q, want %q", got, pattern)
	}
}

func TestAlphabetSize(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{`.*`, 16},       // '.' splits on '\n' and on the UTF-8 lead/continuation byte ranges
		{`[a-z]+`, 3},    // below 'a', 'a'-'z', above 'z'
		{`[a-z0-9]+`, 5}, // below '0', '0'-'9', between, 'a'-'z', above 'z'
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			defer re.Close()

			if got := re.AlphabetSize(); got != tt.want {
				t.Errorf("AlphabetSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRegexIsSafeForConcurrentUse(t *testing.T) {
	re, err := Compile(`[a-z]+\d+`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer re.Close()

	const goroutines = 16
	done := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			done <- re.MatchString("abc123")
		}(i)
	}
	for i := 0; i < goroutines; i++ {
		if !<-done {
			t.Error("expected a match from a concurrent MatchString call")
		}
	}
}
