package learning

import (
	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type PrerequisiteNodeRepo interface {
	Create(dbc dbctx.Context, nodes []*types.PrerequisiteNode) ([]*types.PrerequisiteNode, error)
	SetParent(dbc dbctx.Context, nodeID, parentID int64) error
	GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.PrerequisiteNode, error)
	CountBySessionIDs(dbc dbctx.Context, sessionIDs []int64) (map[int64]int64, error)
	DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error
}

type prerequisiteNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrerequisiteNodeRepo(db *gorm.DB, baseLog *logger.Logger) PrerequisiteNodeRepo {
	repoLog := baseLog.With("repo", "PrerequisiteNodeRepo")
	return &prerequisiteNodeRepo{db: db, log: repoLog}
}

// Create inserts nodes one by one in slice order so ids follow that order.
func (r *prerequisiteNodeRepo) Create(dbc dbctx.Context, nodes []*types.PrerequisiteNode) ([]*types.PrerequisiteNode, error) {
	if len(nodes) == 0 {
		return []*types.PrerequisiteNode{}, nil
	}
	db := dbc.DB(r.db)
	for _, n := range nodes {
		if err := db.Create(n).Error; err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (r *prerequisiteNodeRepo) SetParent(dbc dbctx.Context, nodeID, parentID int64) error {
	return dbc.DB(r.db).
		Model(&types.PrerequisiteNode{}).
		Where("id = ?", nodeID).
		Update("parent_id", parentID).Error
}

func (r *prerequisiteNodeRepo) GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.PrerequisiteNode, error) {
	var results []*types.PrerequisiteNode
	if len(sessionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *prerequisiteNodeRepo) CountBySessionIDs(dbc dbctx.Context, sessionIDs []int64) (map[int64]int64, error) {
	return countBySession(dbc.DB(r.db), &types.PrerequisiteNode{}, sessionIDs)
}

func (r *prerequisiteNodeRepo) DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Delete(&types.PrerequisiteNode{}).Error
}
