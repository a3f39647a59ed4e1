package user

import "time"

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	HashedPassword string    `gorm:"not null;column:hashed_password" json:"-"`
	Name           *string   `gorm:"column:name" json:"name"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "user" }
