package submissions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type SubmissionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Submission) ([]*types.Submission, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)
	GetByVersion(dbc dbctx.Context, orgID uuid.UUID, periodID string, version int) (*types.Submission, error)
	GetLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error)
	GetLatestDraft(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error)
	GetMaxVersion(dbc dbctx.Context, orgID uuid.UUID, periodID string) (int, error)
	ListHistory(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.Submission, error)
	ListLatestDraftsByPeriod(dbc dbctx.Context, periodID string) ([]*types.Submission, error)

	// LockLatest reads the chain head with a row lock held until the transaction ends.
	LockLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error)

	ClearLatest(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(dbc dbctx.Context, rows []*types.Submission) ([]*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Submission{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Submission
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *submissionRepo) GetByVersion(dbc dbctx.Context, orgID uuid.UUID, periodID string, version int) (*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Submission
	if err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ? AND version = ?", orgID, periodID, version).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *submissionRepo) GetLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Submission
	if err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ? AND is_latest = ?", orgID, periodID, true).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *submissionRepo) GetLatestDraft(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Submission
	if err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ? AND is_latest = ? AND status = ?", orgID, periodID, true, types.SubmissionStatusDraft).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *submissionRepo) GetMaxVersion(dbc dbctx.Context, orgID uuid.UUID, periodID string) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxVersion int
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Submission{}).
		Where("organization_id = ? AND period_id = ?", orgID, periodID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion, nil
}

func (r *submissionRepo) ListHistory(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Submission
	if err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ?", orgID, periodID).
		Order("version DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) ListLatestDraftsByPeriod(dbc dbctx.Context, periodID string) ([]*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Submission
	if err := t.WithContext(dbc.Ctx).
		Where("period_id = ? AND is_latest = ? AND status = ?", periodID, true, types.SubmissionStatusDraft).
		Order("organization_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) LockLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Submission
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND period_id = ? AND is_latest = ?", orgID, periodID, true).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *submissionRepo) ClearLatest(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Submission{}).
		Where("id = ? AND is_latest = ?", id, true).
		Update("is_latest", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
