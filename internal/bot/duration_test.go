package bot

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
		ok   bool
	}{
		{"30m", 30 * time.Minute, true},
		{"12h", 12 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"1d12h", 36 * time.Hour, true},
		{" 2h ", 2 * time.Hour, true},
		{"0s", 0, false},
		{"-5m", 0, false},
		{"xd", 0, false},
		{"7dxyz", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, err := parseDuration(tc.raw)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("parseDuration(%q) = %v, %v; want %v", tc.raw, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("parseDuration(%q) = %v, expected an error", tc.raw, got)
		}
	}
}
