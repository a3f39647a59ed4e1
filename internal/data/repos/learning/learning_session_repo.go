package learning

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type LearningSessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.LearningSession) ([]*types.LearningSession, error)
	GetByOwnerAndID(dbc dbctx.Context, ownerID, sessionID int64) (*types.LearningSession, error)
	ListByOwner(dbc dbctx.Context, ownerID int64) ([]*types.LearningSession, error)
	DeleteByIDs(dbc dbctx.Context, sessionIDs []int64) error
}

type learningSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningSessionRepo(db *gorm.DB, baseLog *logger.Logger) LearningSessionRepo {
	repoLog := baseLog.With("repo", "LearningSessionRepo")
	return &learningSessionRepo{db: db, log: repoLog}
}

func (r *learningSessionRepo) Create(dbc dbctx.Context, sessions []*types.LearningSession) ([]*types.LearningSession, error) {
	if len(sessions) == 0 {
		return []*types.LearningSession{}, nil
	}
	if err := dbc.DB(r.db).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByOwnerAndID returns nil, nil when the session does not exist or belongs
// to someone else.
func (r *learningSessionRepo) GetByOwnerAndID(dbc dbctx.Context, ownerID, sessionID int64) (*types.LearningSession, error) {
	if sessionID <= 0 {
		return nil, nil
	}
	var row types.LearningSession
	err := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", sessionID, ownerID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByOwner returns the owner's sessions newest first.
func (r *learningSessionRepo) ListByOwner(dbc dbctx.Context, ownerID int64) ([]*types.LearningSession, error) {
	var results []*types.LearningSession
	if err := dbc.DB(r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningSessionRepo) DeleteByIDs(dbc dbctx.Context, sessionIDs []int64) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("id IN ?", sessionIDs).
		Delete(&types.LearningSession{}).Error
}
