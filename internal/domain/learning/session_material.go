package learning

import "github.com/yungbote/openlearn-backend/internal/domain/materials"

// SessionMaterial links a session to one of its owner's materials.
type SessionMaterial struct {
	SessionID  int64                       `gorm:"primaryKey;autoIncrement:false" json:"session_id"`
	Session    *LearningSession            `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	MaterialID int64                       `gorm:"primaryKey;autoIncrement:false;index" json:"material_id"`
	Material   *materials.LearningMaterial `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialID;references:ID" json:"-"`
}

func (SessionMaterial) TableName() string { return "session_material" }
