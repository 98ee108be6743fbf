package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("Submissions.Chain.Submit", "success", 10*time.Millisecond)
	h.IncConflict("Submissions.Chain.Submit")
	h.IncRetry("Submissions.Chain.Submit")

	if len(h.Operations) != 1 {
		t.Fatalf("expected 1 op event, got %d", len(h.Operations))
	}
	if h.Operations[0].Name != "Submissions.Chain.Submit" || h.Operations[0].Status != "success" {
		t.Fatalf("unexpected op event: %+v", h.Operations[0])
	}
	if len(h.Conflicts) != 1 || h.Conflicts[0] != "Submissions.Chain.Submit" {
		t.Fatalf("unexpected conflicts: %+v", h.Conflicts)
	}
	if len(h.Retries) != 1 || h.Retries[0] != "Submissions.Chain.Submit" {
		t.Fatalf("unexpected retries: %+v", h.Retries)
	}
	h.ObserveOperation("Submissions.Chain.CreateDraft", "conflict", time.Millisecond)
	h.ObserveOperation("Submissions.Chain.Submit", "not_found", time.Millisecond)
	got := h.StatusesFor("Submissions.Chain.Submit")
	if len(got) != 2 || got[0] != "success" || got[1] != "not_found" {
		t.Fatalf("unexpected statuses: %+v", got)
	}
}
