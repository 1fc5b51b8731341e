package cache

import "testing"

// TestNormalize verifies the key function: lower-case plus trim, no
// other folding.
func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"What is FeastLine?", "what is feastline?"},
		{"  hello  ", "hello"},
		{"UPPER", "upper"},
		{"two  spaces", "two  spaces"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestGetPut verifies basic storage and the miss case.
func TestGetPut(t *testing.T) {
	s := New()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("empty store should miss")
	}

	key := Normalize("What is FeastLine?")
	s.Put(key, "a reply")

	got, ok := s.Get(key)
	if !ok || got != "a reply" {
		t.Fatalf("Get = %q, %v; want cached reply", got, ok)
	}

	// Variants that normalize identically hit the same entry.
	if got, ok := s.Get(Normalize("  WHAT IS FEASTLINE?  ")); !ok || got != "a reply" {
		t.Fatalf("normalized variant missed: %q, %v", got, ok)
	}

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

// TestPutOverwrite verifies the last write wins.
func TestPutOverwrite(t *testing.T) {
	s := New()
	s.Put("k", "first")
	s.Put("k", "second")

	if got, _ := s.Get("k"); got != "second" {
		t.Fatalf("Get = %q, want second", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
