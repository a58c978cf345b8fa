package util

import (
	"testing"
	"time"
)

func TestStepFor(t *testing.T) {
	cases := map[string]time.Duration{
		"minute": time.Minute,
		"hour":   time.Hour,
		"day":    24 * time.Hour,
	}
	for g, want := range cases {
		got, ok := StepFor(g)
		if !ok || got != want {
			t.Fatalf("StepFor(%q) = %v, %v", g, got, ok)
		}
	}
	if _, ok := StepFor("week"); ok {
		t.Fatalf("expected unknown granularity to fail")
	}
}

func TestBucketStart(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 47, 13, 0, time.UTC)
	if got := BucketStart(ts, "hour"); !got.Equal(time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected hour bucket %v", got)
	}
	if got := BucketStart(ts, "minute"); !got.Equal(time.Date(2024, 10, 10, 10, 47, 0, 0, time.UTC)) {
		t.Fatalf("unexpected minute bucket %v", got)
	}
}

func TestFromUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	if got := FromUnix(ts.Unix()); !got.Equal(ts) {
		t.Fatalf("unexpected time %v", got)
	}
}
