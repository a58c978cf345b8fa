package util

import "testing"

func TestParsePositiveFloat(t *testing.T) {
	got, err := ParsePositiveFloat(" 64250.5 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 64250.5 {
		t.Fatalf("got %v", got)
	}

	for _, bad := range []string{"", "abc", "0", "-1", "1,5"} {
		if _, err := ParsePositiveFloat(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFixed2(t *testing.T) {
	if got := Fixed2(110.4); got != "110.40" {
		t.Fatalf("got %s", got)
	}
	if got := Fixed2(3.14159); got != "3.14" {
		t.Fatalf("got %s", got)
	}
	if got := Fixed2(2.345); got != "2.35" {
		t.Fatalf("got %s", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol(" btc "); got != "BTC" {
		t.Fatalf("got %q", got)
	}
}
