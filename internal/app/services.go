package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Materials services.MaterialService
	Sessions  services.SessionService
	Answers   services.AnswerService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	codec, err := services.NewTokenCodec(services.TokenConfig{
		AccessSecret:     cfg.Auth.SecretKey,
		AccessAlgorithm:  cfg.Auth.Algorithm,
		RefreshSecret:    cfg.Auth.RefreshSecretKey,
		RefreshAlgorithm: cfg.Auth.RefreshAlgorithm,
		AccessMaxAge:     cfg.Auth.AccessMaxAge,
		RefreshTTL:       cfg.Auth.RefreshTTL,
		Leeway:           30 * time.Second,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init token codec: %w", err)
	}

	synth := services.NewPrerequisiteSynthesizer(log, c.LLM)
	return Services{
		Auth:      services.NewAuthService(db, log, r.User, r.RefreshToken, codec, 0),
		Materials: services.NewMaterialService(log, r.LearningMaterial, c.Store, c.Publisher),
		Sessions:  services.NewSessionService(db, log, r.LearningMaterial, r.LearningSession, r.SessionMaterial, r.PrerequisiteNode, synth, c.Enricher),
		Answers:   services.NewAnswerService(log, r.LearningMaterial, c.Retriever, c.LLM),
	}, nil
}
