package materials

import (
	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type LearningMaterialRepo interface {
	Create(dbc dbctx.Context, materials []*types.LearningMaterial) ([]*types.LearningMaterial, error)
	GetByIDs(dbc dbctx.Context, materialIDs []int64) ([]*types.LearningMaterial, error)
	GetByOwnerAndIDs(dbc dbctx.Context, ownerID int64, materialIDs []int64) ([]*types.LearningMaterial, error)
	ListByOwner(dbc dbctx.Context, ownerID int64) ([]*types.LearningMaterial, error)
	UpdateStatus(dbc dbctx.Context, materialID int64, status string) error
}

type learningMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningMaterialRepo(db *gorm.DB, baseLog *logger.Logger) LearningMaterialRepo {
	repoLog := baseLog.With("repo", "LearningMaterialRepo")
	return &learningMaterialRepo{db: db, log: repoLog}
}

func (r *learningMaterialRepo) Create(dbc dbctx.Context, materials []*types.LearningMaterial) ([]*types.LearningMaterial, error) {
	if len(materials) == 0 {
		return []*types.LearningMaterial{}, nil
	}
	if err := dbc.DB(r.db).Create(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *learningMaterialRepo) GetByIDs(dbc dbctx.Context, materialIDs []int64) ([]*types.LearningMaterial, error) {
	var results []*types.LearningMaterial
	if len(materialIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", materialIDs).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByOwnerAndIDs returns only the materials among materialIDs owned by
// ownerID. Missing and foreign ids are both simply absent from the result.
func (r *learningMaterialRepo) GetByOwnerAndIDs(dbc dbctx.Context, ownerID int64, materialIDs []int64) ([]*types.LearningMaterial, error) {
	var results []*types.LearningMaterial
	if len(materialIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("owner_id = ? AND id IN ?", ownerID, materialIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningMaterialRepo) ListByOwner(dbc dbctx.Context, ownerID int64) ([]*types.LearningMaterial, error) {
	var results []*types.LearningMaterial
	if err := dbc.DB(r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningMaterialRepo) UpdateStatus(dbc dbctx.Context, materialID int64, status string) error {
	return dbc.DB(r.db).
		Model(&types.LearningMaterial{}).
		Where("id = ?", materialID).
		Update("status", status).Error
}
