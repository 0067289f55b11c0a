package code

import (
	"regexp"
	"testing"
)

func TestGenerate_DefaultLength(t *testing.T) {
	for _, n := range []int{0, -3} {
		s, err := Generate(n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s) != DefaultLength {
			t.Errorf("Generate(%d): len = %d, want %d", n, len(s), DefaultLength)
		}
	}
}

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{4, 6, 10, 32} {
		s, err := Generate(n)
		if err != nil {
			t.Fatalf("length %d: unexpected error: %v", n, err)
		}
		if len(s) != n {
			t.Fatalf("len = %d, want %d (code=%q)", len(s), n, s)
		}
	}
}

func TestGenerate_Charset(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Za-z]{6}$`)
	for i := 0; i < 100; i++ {
		s, err := Generate(6)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if !re.MatchString(s) {
			t.Fatalf("iteration %d: code %q does not match [0-9A-Za-z]{6}", i, s)
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s, err := Generate(8)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if seen[s] {
			t.Fatalf("duplicate code %q at iteration %d", s, i)
		}
		seen[s] = true
	}
}
