package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Email:          email,
		HashedPassword: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID int64, filename string) *types.LearningMaterial {
	tb.Helper()
	m := &types.LearningMaterial{
		OwnerID:     ownerID,
		Filename:    filename,
		StoragePath: "/tmp/" + filename,
		Status:      types.MaterialStatusPending,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID int64, title string) *types.LearningSession {
	tb.Helper()
	s := &types.LearningSession{
		OwnerID: ownerID,
		Title:   title,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}
