package auth

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type RefreshTokenRepo interface {
	Create(dbc dbctx.Context, tokens []*types.RefreshToken) ([]*types.RefreshToken, error)
	GetByJTI(dbc dbctx.Context, jti string) (*types.RefreshToken, error)
	RevokeIfActive(dbc dbctx.Context, jti string, replacedByJTI *string) (bool, error)
}

type refreshTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefreshTokenRepo(db *gorm.DB, baseLog *logger.Logger) RefreshTokenRepo {
	repoLog := baseLog.With("repo", "RefreshTokenRepo")
	return &refreshTokenRepo{db: db, log: repoLog}
}

func (r *refreshTokenRepo) Create(dbc dbctx.Context, tokens []*types.RefreshToken) ([]*types.RefreshToken, error) {
	if len(tokens) == 0 {
		return []*types.RefreshToken{}, nil
	}
	if err := dbc.DB(r.db).Create(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetByJTI returns nil, nil when no record carries jti.
func (r *refreshTokenRepo) GetByJTI(dbc dbctx.Context, jti string) (*types.RefreshToken, error) {
	if jti == "" {
		return nil, nil
	}
	var row types.RefreshToken
	err := dbc.DB(r.db).Where("jti = ?", jti).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// RevokeIfActive flips revoked for jti only while it is still false and
// reports whether this call made the change. Two callers racing on the same
// jti cannot both observe true.
func (r *refreshTokenRepo) RevokeIfActive(dbc dbctx.Context, jti string, replacedByJTI *string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	updates := map[string]any{"revoked": true}
	if replacedByJTI != nil {
		updates["replaced_by_jti"] = *replacedByJTI
	}
	res := dbc.DB(r.db).
		Model(&types.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
