package cache

import "testing"

func TestMapIDFromViewKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  string
		want int64
	}{
		{"views:42", 42},
		{"views:1", 1},
		{"views:", 0},
		{"views:abc", 0},
		{"other:42", 0},
		{"views", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := MapIDFromViewKey(tc.key); got != tc.want {
			t.Errorf("MapIDFromViewKey(%q) = %d, want %d", tc.key, got, tc.want)
		}
	}
}

func TestHashIP_StableAndDistinct(t *testing.T) {
	t.Parallel()

	a := hashIP("203.0.113.7")
	b := hashIP("203.0.113.7")
	c := hashIP("203.0.113.8")

	if a != b {
		t.Error("hashing the same IP twice should be stable")
	}
	if a == c {
		t.Error("different IPs should hash differently")
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16", len(a))
	}
}
