package scores

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

// PerformanceCalculationRepo is append-only: there is no update path.
type PerformanceCalculationRepo interface {
	Create(dbc dbctx.Context, row *types.PerformanceCalculation) (*types.PerformanceCalculation, error)
	GetBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error)
	GetByOrganizationPeriod(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.PerformanceCalculation, error)
	ListByPeriod(dbc dbctx.Context, periodID string) ([]*types.PerformanceCalculation, error)
}

type performanceCalculationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPerformanceCalculationRepo(db *gorm.DB, baseLog *logger.Logger) PerformanceCalculationRepo {
	return &performanceCalculationRepo{db: db, log: baseLog.With("repo", "PerformanceCalculationRepo")}
}

func (r *performanceCalculationRepo) Create(dbc dbctx.Context, row *types.PerformanceCalculation) (*types.PerformanceCalculation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *performanceCalculationRepo) GetBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error) {
	if submissionID == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.PerformanceCalculation
	if err := t.WithContext(dbc.Ctx).Where("submission_id = ?", submissionID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *performanceCalculationRepo) GetByOrganizationPeriod(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.PerformanceCalculation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.PerformanceCalculation
	if err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND period_id = ?", orgID, periodID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *performanceCalculationRepo) ListByPeriod(dbc dbctx.Context, periodID string) ([]*types.PerformanceCalculation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PerformanceCalculation
	if err := t.WithContext(dbc.Ctx).
		Where("period_id = ?", periodID).
		Order("percentage_score DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
