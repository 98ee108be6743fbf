package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, tenant=ysa ")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "ysa" {
		t.Fatalf("unexpected headers: %+v", got)
	}
	if ParseHeaders("") != nil || ParseHeaders("nothing") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0.1, 0: 0.1, 0.25: 0.25, 1: 1, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v)=%v want %v", in, got, want)
		}
	}
}
