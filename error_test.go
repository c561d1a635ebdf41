package coregex

import (
	"strings"
	"testing"
)

func TestCompileErrors(t *testing.T) {
	badPatterns := []string{
		`(unclosed`,
		`[unclosed`,
		`a{2,1}`,
		`a**`,
		`\`,
		`(?P<dup>a)(?P<dup>b)`,
	}

	for _, p := range badPatterns {
		t.Run(p, func(t *testing.T) {
			if _, err := Compile(p); err == nil {
				t.Errorf("Compile(%q): expected an error, got none", p)
			}
		})
	}
}

func TestMustCompilePanicMessageNamesPattern(t *testing.T) {
	const pattern = `(unterminated`
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic value is %T, want string", r)
		}
		if msg == "" {
			t.Fatal("panic message is empty")
		}
		if !strings.Contains(msg, pattern) {
			t.Errorf("panic message %q does not name the pattern %q", msg, pattern)
		}
	}()
	MustCompile(pattern)
}
