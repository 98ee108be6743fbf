package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/objectstore"
)

const MaxEvidenceBytes int64 = 25 << 20

type UploadEvidenceInput struct {
	OrganizationID uuid.UUID
	PeriodID       string
	CategoryID     string
	FileName       string
	MimeType       string
	SizeBytes      int64
	Body           io.Reader
	UploadedBy     uuid.UUID
}

type EvidenceService interface {
	Upload(ctx context.Context, in UploadEvidenceInput) (*types.EvidenceFile, error)
	ListLive(dbc dbctx.Context, orgID uuid.UUID, periodID, categoryID string) ([]*types.EvidenceFile, error)
	// DeleteLive removes a live row. The stored object goes too unless a snapshot
	// still references its key.
	DeleteLive(ctx context.Context, id uuid.UUID) error
	ListSnapshots(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.EvidenceFile, error)
}

type evidenceService struct {
	db       *gorm.DB
	log      *logger.Logger
	evidence repos.EvidenceFileRepo
	store    objectstore.Store
	now      func() time.Time
}

func NewEvidenceService(db *gorm.DB, log *logger.Logger, evidence repos.EvidenceFileRepo, store objectstore.Store) EvidenceService {
	if store == nil {
		store = objectstore.NewDiscard()
	}
	return &evidenceService{
		db:       db,
		log:      log.With("service", "EvidenceService"),
		evidence: evidence,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *evidenceService) Upload(ctx context.Context, in UploadEvidenceInput) (*types.EvidenceFile, error) {
	const op = "Evidence.Upload"
	periodID := strings.TrimSpace(in.PeriodID)
	categoryID := strings.TrimSpace(in.CategoryID)
	fileName := strings.TrimSpace(in.FileName)
	switch {
	case in.OrganizationID == uuid.Nil:
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	case periodID == "":
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing period_id", nil)
	case categoryID == "":
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing category_id", nil)
	case fileName == "":
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing file name", nil)
	case in.Body == nil:
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing file body", nil)
	case in.SizeBytes > MaxEvidenceBytes:
		return nil, domainagg.NewError(domainagg.CodeValidation, op,
			fmt.Sprintf("file exceeds %d bytes", MaxEvidenceBytes), nil)
	}

	id := uuid.New()
	key := objectstore.EvidenceKey(in.OrganizationID.String(), periodID, categoryID, id.String(), fileName)
	if err := s.store.Put(ctx, key, in.Body, in.SizeBytes, in.MimeType); err != nil {
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "object store put failed", err)
	}

	at := s.now()
	row := &types.EvidenceFile{
		ID:             id,
		OrganizationID: in.OrganizationID,
		PeriodID:       periodID,
		CategoryID:     categoryID,
		FileName:       fileName,
		MimeType:       strings.TrimSpace(in.MimeType),
		SizeBytes:      in.SizeBytes,
		StorageKey:     key,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if in.UploadedBy != uuid.Nil {
		u := in.UploadedBy
		row.UploadedBy = &u
	}
	created, err := s.evidence.Create(dbctx.Context{Ctx: ctx}, []*types.EvidenceFile{row})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil && !errors.Is(derr, objectstore.ErrNotFound) {
			s.log.Warn("orphaned evidence object", "storage_key", key, "error", derr)
		}
		return nil, aggregates.MapError(op, err)
	}
	s.log.Info("evidence uploaded",
		"evidence_id", id,
		"organization_id", in.OrganizationID,
		"period_id", periodID,
		"category_id", categoryID,
		"size_bytes", in.SizeBytes,
	)
	return created[0], nil
}

func (s *evidenceService) ListLive(dbc dbctx.Context, orgID uuid.UUID, periodID, categoryID string) ([]*types.EvidenceFile, error) {
	const op = "Evidence.ListLive"
	if orgID == uuid.Nil || strings.TrimSpace(periodID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id or period_id", nil)
	}
	rows, err := s.evidence.ListLive(dbc, orgID, strings.TrimSpace(periodID), categoryID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *evidenceService) DeleteLive(ctx context.Context, id uuid.UUID) error {
	const op = "Evidence.DeleteLive"
	if id == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing evidence id", nil)
	}

	var (
		storageKey string
		shared     int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.evidence.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NotFound(op, fmt.Sprintf("evidence not found: %s", id))
		}
		if !row.IsLive() {
			return domainagg.NewError(domainagg.CodeInvariantViolation, op, "snapshot evidence cannot be deleted", nil)
		}
		n, err := s.evidence.SoftDeleteLiveByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if n != 1 {
			return domainagg.NotFound(op, fmt.Sprintf("evidence not found: %s", id))
		}
		shared, err = s.evidence.CountByStorageKeyExcluding(dbc, row.StorageKey, row.ID)
		if err != nil {
			return err
		}
		storageKey = row.StorageKey
		return nil
	})
	if err != nil {
		return aggregates.MapError(op, err)
	}

	if shared > 0 {
		return nil
	}
	if err := s.store.Delete(ctx, storageKey); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		s.log.Warn("evidence object delete failed", "storage_key", storageKey, "error", err)
	}
	return nil
}

func (s *evidenceService) ListSnapshots(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.EvidenceFile, error) {
	const op = "Evidence.ListSnapshots"
	if submissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	rows, err := s.evidence.ListBySubmissionID(dbc, submissionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}
