package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValue(t *testing.T) {
	cases := []struct {
		key  string
		val  interface{}
		want func(interface{}) bool
	}{
		{key: "redis_password", val: "hunter2", want: func(v interface{}) bool { return v == "[REDACTED]" }},
		{key: "authorization", val: "Bearer abc", want: func(v interface{}) bool { return v == "[REDACTED]" }},
		{key: "actor_id", val: "5b0c", want: func(v interface{}) bool {
			s, ok := v.(string)
			return ok && strings.HasPrefix(s, "hash:") && len(s) == len("hash:")+12
		}},
		{key: "period_id", val: "2025-Q1", want: func(v interface{}) bool { return v == "2025-Q1" }},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			if got := sanitizeValue(tc.key, tc.val); !tc.want(got) {
				t.Fatalf("sanitizeValue(%q) = %v", tc.key, got)
			}
		})
	}
}

func TestHashValueIsStable(t *testing.T) {
	a := hashValue("same-actor")
	b := hashValue("same-actor")
	if a != b {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if hashValue("") != "" {
		t.Fatalf("empty input should hash to empty")
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("ignored", "k", "v")
	l.Sync()
}
