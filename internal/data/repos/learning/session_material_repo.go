package learning

import (
	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type SessionMaterialRepo interface {
	Create(dbc dbctx.Context, links []*types.SessionMaterial) ([]*types.SessionMaterial, error)
	GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.SessionMaterial, error)
	CountBySessionIDs(dbc dbctx.Context, sessionIDs []int64) (map[int64]int64, error)
	DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error
}

type sessionMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionMaterialRepo(db *gorm.DB, baseLog *logger.Logger) SessionMaterialRepo {
	repoLog := baseLog.With("repo", "SessionMaterialRepo")
	return &sessionMaterialRepo{db: db, log: repoLog}
}

func (r *sessionMaterialRepo) Create(dbc dbctx.Context, links []*types.SessionMaterial) ([]*types.SessionMaterial, error) {
	if len(links) == 0 {
		return []*types.SessionMaterial{}, nil
	}
	if err := dbc.DB(r.db).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *sessionMaterialRepo) GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.SessionMaterial, error) {
	var results []*types.SessionMaterial
	if len(sessionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Order("material_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionMaterialRepo) CountBySessionIDs(dbc dbctx.Context, sessionIDs []int64) (map[int64]int64, error) {
	return countBySession(dbc.DB(r.db), &types.SessionMaterial{}, sessionIDs)
}

func (r *sessionMaterialRepo) DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Delete(&types.SessionMaterial{}).Error
}

type sessionCount struct {
	SessionID int64
	N         int64
}

func countBySession(db *gorm.DB, model any, sessionIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	var rows []sessionCount
	if err := db.Model(model).
		Select("session_id, COUNT(*) AS n").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SessionID] = row.N
	}
	return out, nil
}
