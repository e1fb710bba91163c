package validate_test

import (
	"testing"

	"github.com/sabouaram/s3fsgw/validate"
)

func TestBucket(t *testing.T) {
	cases := map[string]bool{
		"abc":            true,
		"my-bucket.name": true,
		"ab":             false,
		"Ab-Bucket":      false,
		"a..b":           false,
		"a.-b":           false,
		"a-.b":           false,
		"192.168.1.1":    false,
		"::1":            false,
	}
	for name, want := range cases {
		if got := validate.Bucket(name); got != want {
			t.Errorf("Bucket(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKey(t *testing.T) {
	cases := map[string]bool{
		"":            true,
		"a/b/c.txt":   true,
		"a/../b":      false,
		"a/./b":       false,
		"a\x00b":      false,
		"normal-key":  true,
	}
	for key, want := range cases {
		if got := validate.Key(key); got != want {
			t.Errorf("Key(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestPartNumber(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want bool
	}{
		{"1", 1, true},
		{"10000", 10000, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"", 0, false},
		{"1.5", 0, false},
	}
	for _, c := range cases {
		n, ok := validate.PartNumber(c.in)
		if ok != c.want || (ok && n != c.n) {
			t.Errorf("PartNumber(%q) = %d,%v want %d,%v", c.in, n, ok, c.n, c.want)
		}
	}
}
