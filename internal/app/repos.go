package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	RefreshToken     repos.RefreshTokenRepo
	LearningMaterial repos.LearningMaterialRepo
	LearningSession  repos.LearningSessionRepo
	SessionMaterial  repos.SessionMaterialRepo
	PrerequisiteNode repos.PrerequisiteNodeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		RefreshToken:     repos.NewRefreshTokenRepo(db, log),
		LearningMaterial: repos.NewLearningMaterialRepo(db, log),
		LearningSession:  repos.NewLearningSessionRepo(db, log),
		SessionMaterial:  repos.NewSessionMaterialRepo(db, log),
		PrerequisiteNode: repos.NewPrerequisiteNodeRepo(db, log),
	}
}
