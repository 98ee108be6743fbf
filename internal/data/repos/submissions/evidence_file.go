package submissions

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type EvidenceFileRepo interface {
	Create(dbc dbctx.Context, files []*types.EvidenceFile) ([]*types.EvidenceFile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.EvidenceFile, error)

	// ListLive returns editable rows (not snapshots, not assigned to a submission).
	// An empty categoryID matches every category.
	ListLive(dbc dbctx.Context, orgID uuid.UUID, periodID, categoryID string) ([]*types.EvidenceFile, error)
	// ListLiveForUpdate row-locks the live set until dbc.Tx ends, so a concurrent
	// delete waits for the snapshot rows to commit.
	ListLiveForUpdate(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.EvidenceFile, error)
	ListBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.EvidenceFile, error)
	CountByStorageKeyExcluding(dbc dbctx.Context, storageKey string, excludeID uuid.UUID) (int64, error)

	SoftDeleteLiveByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type evidenceFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceFileRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceFileRepo {
	return &evidenceFileRepo{db: db, log: baseLog.With("repo", "EvidenceFileRepo")}
}

func (r *evidenceFileRepo) Create(dbc dbctx.Context, files []*types.EvidenceFile) ([]*types.EvidenceFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(files) == 0 {
		return []*types.EvidenceFile{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *evidenceFileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.EvidenceFile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.EvidenceFile
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *evidenceFileRepo) ListLive(dbc dbctx.Context, orgID uuid.UUID, periodID, categoryID string) ([]*types.EvidenceFile, error) {
	return r.listLive(dbc, orgID, periodID, categoryID, false)
}

func (r *evidenceFileRepo) ListLiveForUpdate(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.EvidenceFile, error) {
	return r.listLive(dbc, orgID, periodID, "", true)
}

func (r *evidenceFileRepo) listLive(dbc dbctx.Context, orgID uuid.UUID, periodID, categoryID string, forUpdate bool) ([]*types.EvidenceFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ? AND is_snapshot = ? AND submission_id IS NULL", orgID, periodID, false)
	if c := strings.TrimSpace(categoryID); c != "" {
		q = q.Where("category_id = ?", c)
	}
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var results []*types.EvidenceFile
	if err := q.Order("created_at ASC").Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evidenceFileRepo) ListBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.EvidenceFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EvidenceFile
	if submissionID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("submission_id = ? AND is_snapshot = ?", submissionID, true).
		Order("category_id ASC").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evidenceFileRepo) CountByStorageKeyExcluding(dbc dbctx.Context, storageKey string, excludeID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.EvidenceFile{}).
		Where("storage_key = ? AND id <> ?", storageKey, excludeID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// SoftDeleteLiveByIDs never touches snapshot rows.
func (r *evidenceFileRepo) SoftDeleteLiveByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("id IN ? AND is_snapshot = ? AND submission_id IS NULL", ids, false).
		Delete(&types.EvidenceFile{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
