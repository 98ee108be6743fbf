package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeSubmissionSubmitted     = "submission.submitted"
	TypeSubmissionAutoSubmitted = "submission.auto_submitted"
	TypePerformanceCalculated   = "performance.calculated"
)

// Event is a post-commit notification. Publishing happens after the owning
// transaction commits; a failed publish never undoes the write.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	Type           string         `json:"type"`
	OccurredAt     time.Time      `json:"occurred_at"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	PeriodID       string         `json:"period_id"`
	SubmissionID   uuid.UUID      `json:"submission_id"`
	Version        int            `json:"version,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func New(eventType string, orgID uuid.UUID, periodID string, submissionID uuid.UUID) Event {
	return Event{
		ID:             uuid.New(),
		Type:           eventType,
		OccurredAt:     time.Now().UTC(),
		OrganizationID: orgID,
		PeriodID:       periodID,
		SubmissionID:   submissionID,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

var _ Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
