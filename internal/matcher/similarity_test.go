package matcher

import (
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRatioKnownValues(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "xyz", 0.0},
		{"ABC", "abc", 1.0},
		{"disk read eror", "disk read error", 28.0 / 29.0},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("Ratio(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatioIgnoresPopularCharsInLongText(t *testing.T) {
	short := "a" + strings.Repeat("b", 10)
	tests := []struct {
		name string
		long string
		want float64
	}{
		{"below length threshold", strings.Repeat("b", 199), 20.0 / 210.0},
		{"at length threshold", strings.Repeat("b", 200), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(short, tt.long); !approx(got, tt.want) {
				t.Errorf("Ratio = %f, want %f", got, tt.want)
			}
		})
	}

	// Characters at or under 1% of the text (plus one) still match.
	long := strings.Repeat("x", 197) + "err"
	if got := Ratio("err", long); !approx(got, 6.0/203.0) {
		t.Errorf("Ratio = %f, want %f", got, 6.0/203.0)
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"boot failure", "failure to boot"},
		{"tide", "diet"},
		{"no bootable device", "bootmgr is missing"},
		{"abab", "baba"},
		{"memory error at 0x0040", "memory parity error"},
	}
	for _, p := range pairs {
		ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0])
		if ab != ba {
			t.Errorf("Ratio(%q, %q) = %f but reversed = %f", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Ratio(%q, %q) = %f out of range", p[0], p[1], ab)
		}
	}
}

func TestRatioIdentity(t *testing.T) {
	for _, s := range []string{"a", "Disk read error", "ünïcödé ✓"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %f, want 1", s, s, got)
		}
	}
}

func TestScoreContainment(t *testing.T) {
	tests := []struct {
		query, stored string
	}{
		{"disk", "Disk read error occurred"},
		{"DISK READ ERROR OCCURRED ON BOOT", "disk read error"},
		{"Boot Failure", "boot failure"},
	}
	for _, tt := range tests {
		if got := Score(tt.query, tt.stored); got != 1.0 {
			t.Errorf("Score(%q, %q) = %f, want 1", tt.query, tt.stored, got)
		}
	}
}

func TestScoreUnrelated(t *testing.T) {
	if got := Score("kernel panic", "disk read error"); got >= DefaultThreshold {
		t.Errorf("unrelated strings scored %f, want < %f", got, DefaultThreshold)
	}
}
