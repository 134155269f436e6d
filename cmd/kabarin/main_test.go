package main

import (
	"testing"
	"time"
)

func TestTickIntervalFromEnv(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"empty uses default", "", 60 * time.Second, false},
		{"explicit value", "30s", 30 * time.Second, false},
		{"unparseable", "every-minute", 0, true},
		{"negative", "-10s", 0, true},
		{"zero", "0s", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tickIntervalFromEnv(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("tickIntervalFromEnv(%q) = %v, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("tickIntervalFromEnv(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("tickIntervalFromEnv(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
