package domain

import (
	"github.com/yungbote/openlearn-backend/internal/domain/auth"
	"github.com/yungbote/openlearn-backend/internal/domain/learning"
	"github.com/yungbote/openlearn-backend/internal/domain/materials"
	"github.com/yungbote/openlearn-backend/internal/domain/user"
)

type (
	User = user.User

	RefreshToken = auth.RefreshToken

	LearningMaterial = materials.LearningMaterial
	MaterialMetadata = materials.MaterialMetadata

	LearningSession  = learning.LearningSession
	SessionMaterial  = learning.SessionMaterial
	PrerequisiteNode = learning.PrerequisiteNode
)

const (
	MaterialStatusPending = materials.MaterialStatusPending
	MaterialStatusReady   = materials.MaterialStatusReady
)

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&LearningMaterial{},
		&LearningSession{},
		&SessionMaterial{},
		&PrerequisiteNode{},
	}
}
