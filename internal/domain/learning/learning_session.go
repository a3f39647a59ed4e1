package learning

import (
	"time"

	"github.com/yungbote/openlearn-backend/internal/domain/user"
)

type LearningSession struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   int64      `gorm:"index;not null" json:"owner_id"`
	Owner     *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	Title     string     `gorm:"not null" json:"title"`
	Objective *string    `gorm:"column:objective" json:"objective"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (LearningSession) TableName() string { return "learning_session" }
