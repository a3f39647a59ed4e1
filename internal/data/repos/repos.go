package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/data/repos/auth"
	"github.com/yungbote/openlearn-backend/internal/data/repos/learning"
	"github.com/yungbote/openlearn-backend/internal/data/repos/materials"
	"github.com/yungbote/openlearn-backend/internal/data/repos/user"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type RefreshTokenRepo = auth.RefreshTokenRepo

type LearningMaterialRepo = materials.LearningMaterialRepo

type LearningSessionRepo = learning.LearningSessionRepo
type SessionMaterialRepo = learning.SessionMaterialRepo
type PrerequisiteNodeRepo = learning.PrerequisiteNodeRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewRefreshTokenRepo(db *gorm.DB, log *logger.Logger) RefreshTokenRepo {
	return auth.NewRefreshTokenRepo(db, log)
}

func NewLearningMaterialRepo(db *gorm.DB, log *logger.Logger) LearningMaterialRepo {
	return materials.NewLearningMaterialRepo(db, log)
}

func NewLearningSessionRepo(db *gorm.DB, log *logger.Logger) LearningSessionRepo {
	return learning.NewLearningSessionRepo(db, log)
}
func NewSessionMaterialRepo(db *gorm.DB, log *logger.Logger) SessionMaterialRepo {
	return learning.NewSessionMaterialRepo(db, log)
}
func NewPrerequisiteNodeRepo(db *gorm.DB, log *logger.Logger) PrerequisiteNodeRepo {
	return learning.NewPrerequisiteNodeRepo(db, log)
}
