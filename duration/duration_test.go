package duration_test

import (
	"testing"
	"time"

	libdur "github.com/sabouaram/s3fsgw/duration"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"5d23h15m13s", 5*24*time.Hour + 23*time.Hour + 15*time.Minute + 13*time.Second},
		{"2d", 48 * time.Hour},
		{"0s", 0},
	}
	for _, c := range cases {
		got, err := libdur.Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got.Time() != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got.Time(), c.want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "not-a-duration", "5x"} {
		if _, err := libdur.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", in)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15m", "15m0s"},
		{"5d23h15m13s", "5d23h15m13s"},
		{"2d", "2d0s"},
	}
	for _, c := range cases {
		d, err := libdur.Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got := d.String(); got != c.want {
			t.Errorf("Parse(%q).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	d, err := libdur.Parse("5d23h15m13s")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reparsed, err := libdur.Parse(d.String())
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if reparsed.Time() != d.Time() {
		t.Errorf("round trip mismatch: got %v, want %v", reparsed.Time(), d.Time())
	}
}
