package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
)

// SeedSubmission inserts a chain row directly, bypassing the aggregate.
func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, periodID string, version int, status types.SubmissionStatus, isLatest bool) *types.Submission {
	tb.Helper()
	s := &types.Submission{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PeriodID:       periodID,
		Version:        version,
		IsLatest:       isLatest,
		Status:         status,
		Completed:      status != types.SubmissionStatusDraft,
		Responses:      datatypes.NewJSONType(types.Responses{}),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

// SeedLiveEvidence inserts n live evidence rows for (orgID, periodID).
func SeedLiveEvidence(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, periodID, categoryID string, n int) []*types.EvidenceFile {
	tb.Helper()
	out := make([]*types.EvidenceFile, 0, n)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		uploader := uuid.New()
		f := &types.EvidenceFile{
			ID:             uuid.New(),
			OrganizationID: orgID,
			PeriodID:       periodID,
			CategoryID:     categoryID,
			FileName:       fmt.Sprintf("evidence-%d.pdf", i),
			MimeType:       "application/pdf",
			SizeBytes:      int64(1024 * (i + 1)),
			StorageKey:     fmt.Sprintf("evidence/%s/%s/%s/evidence-%d.pdf", orgID, periodID, categoryID, i),
			UploadedBy:     &uploader,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		if err := tx.WithContext(ctx).Create(f).Error; err != nil {
			tb.Fatalf("seed evidence: %v", err)
		}
		out = append(out, f)
	}
	return out
}
