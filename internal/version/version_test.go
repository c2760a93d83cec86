package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.Contains(ua, "/") {
		t.Fatalf("UserAgent() = %q, want name/version format", ua)
	}
	if !strings.Contains(ua, "+https://") {
		t.Fatalf("UserAgent() = %q, want contact URL", ua)
	}
}

func TestString(t *testing.T) {
	s := Version().String()
	if !strings.Contains(s, CmdName()) {
		t.Fatalf("Version().String() = %q, want it to contain %q", s, CmdName())
	}
}
