package materials

import (
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/openlearn-backend/internal/domain/user"
)

const (
	MaterialStatusPending = "PENDING"
	MaterialStatusReady   = "READY"
)

type LearningMaterial struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     int64          `gorm:"index;not null" json:"owner_id"`
	Owner       *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	Filename    string         `gorm:"not null" json:"filename"`
	StoragePath string         `gorm:"not null;column:storage_path" json:"storage_path"`
	Status      string         `gorm:"not null;default:PENDING;index" json:"status"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (LearningMaterial) TableName() string { return "learning_material" }

// MaterialMetadata is the shape stored in LearningMaterial.Metadata.
type MaterialMetadata struct {
	ContentType    string `json:"content_type,omitempty"`
	SizeBytes      int64  `json:"size_bytes"`
	StorageBackend string `json:"storage_backend"`
}
