package ctxcache

import (
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"3600s", time.Hour, true},
		{"1s", time.Second, true},
		{"1.5s", 1500 * time.Millisecond, true},
		{".5s", 500 * time.Millisecond, true},
		{"0s", 0, true},
		{"", 0, false},
		{"3600", 0, false},
		{"s", 0, false},
		{"1h", 0, false},
		{"1.2.3s", 0, false},
		{"-5s", 0, false},
		{"+5s", 0, false},
		{"1e3s", 0, false},
		{"5.s", 0, false},
		{"Infs", 0, false},
		{" 5s", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTTL(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseTTL(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseTTL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
