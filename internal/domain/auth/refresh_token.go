package auth

import (
	"time"

	"github.com/yungbote/openlearn-backend/internal/domain/user"
)

// RefreshToken is the persisted record behind one issued refresh JWT.
// Records are never deleted: a rotated record keeps revoked=true and points
// at its successor through ReplacedByJTI.
type RefreshToken struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	JTI           string     `gorm:"uniqueIndex;not null;column:jti" json:"jti"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	User          *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null;column:expires_at" json:"expires_at"`
	Revoked       bool       `gorm:"not null;default:false" json:"revoked"`
	ParentJTI     *string    `gorm:"column:parent_jti" json:"parent_jti,omitempty"`
	ReplacedByJTI *string    `gorm:"column:replaced_by_jti" json:"replaced_by_jti,omitempty"`
}

func (RefreshToken) TableName() string { return "refresh_token" }
