package id

import (
	"strings"
	"testing"
)

func TestNew_PrefixAndUniqueness(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		v := New("chk")
		if !strings.HasPrefix(v, "chk_") {
			t.Fatalf("missing prefix: %q", v)
		}
		if len(v) != len("chk_")+32 {
			t.Fatalf("unexpected length: %q", v)
		}
		if _, ok := seen[v]; ok {
			t.Fatalf("duplicate id: %q", v)
		}
		seen[v] = struct{}{}
	}
	if got := New(""); strings.Contains(got, "_") {
		t.Fatalf("empty prefix should not add separator: %q", got)
	}
}
