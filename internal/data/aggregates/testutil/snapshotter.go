package testutil

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

var ErrInjectedSnapshot = errors.New("injected snapshot failure")

// FailingSnapshotter delegates to Next except for organizations listed in FailFor.
type FailingSnapshotter struct {
	Next    aggregates.EvidenceSnapshotter
	FailFor map[uuid.UUID]bool

	mu    sync.Mutex
	Calls int
}

var _ aggregates.EvidenceSnapshotter = (*FailingSnapshotter)(nil)

func (s *FailingSnapshotter) Snapshot(dbc dbctx.Context, in aggregates.SnapshotInput) ([]*types.EvidenceFile, error) {
	s.mu.Lock()
	s.Calls++
	fail := s.FailFor[in.OrganizationID]
	s.mu.Unlock()
	if fail || s.Next == nil {
		return nil, ErrInjectedSnapshot
	}
	return s.Next.Snapshot(dbc, in)
}
