package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AuthService interface {
	CreateUser(ctx context.Context, email, password string, name *string) (*types.User, error)
	// Authenticate returns nil, nil for an unknown email or a wrong password.
	Authenticate(ctx context.Context, email, password string) (*types.User, error)
	GetUser(ctx context.Context, userID int64) (*types.User, error)
	IssueTokenPair(ctx context.Context, userID int64) (TokenPair, error)
	RotateRefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
	// RevokeRefreshToken never fails; unusable tokens are ignored.
	RevokeRefreshToken(ctx context.Context, refreshToken string)
	VerifyAccessToken(accessToken string) (int64, error)
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	tokenRepo  repos.RefreshTokenRepo
	codec      *TokenCodec
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	tokenRepo repos.RefreshTokenRepo,
	codec *TokenCodec,
	bcryptCost int,
) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		db:         db,
		log:        log.With("service", "AuthService"),
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		codec:      codec,
		bcryptCost: bcryptCost,
	}
}

func (as *authService) CreateUser(ctx context.Context, email, password string, name *string) (*types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalidInput("email required")
	}
	if password == "" {
		return nil, invalidInput("password required")
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrDuplicateUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalidInput("password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &types.User{Email: email, HashedPassword: string(hashed), Name: trimmedOrNil(name)}
	if _, err := as.userRepo.Create(dbc, []*types.User{u}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("user created", "user_id", u.ID)
	return u, nil
}

func (as *authService) Authenticate(ctx context.Context, email, password string) (*types.User, error) {
	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{strings.TrimSpace(email)})
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if len(users) == 0 {
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(as.dummyPasswordHash(), []byte(password))
		return nil, nil
	}
	u := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, nil
	}
	return u, nil
}

func (as *authService) dummyPasswordHash() []byte {
	as.dummyOnce.Do(func() {
		as.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("openlearn-dummy-password"), as.bcryptCost)
	})
	return as.dummyHash
}

func (as *authService) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	users, err := as.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []int64{userID})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrInvalidToken
	}
	return users[0], nil
}

func (as *authService) IssueTokenPair(ctx context.Context, userID int64) (TokenPair, error) {
	return as.issuePair(dbctx.Context{Ctx: ctx}, userID, nil)
}

func (as *authService) issuePair(dbc dbctx.Context, userID int64, parentJTI *string) (TokenPair, error) {
	refresh, jti, expiresAt, err := as.codec.SignRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return as.persistPair(dbc, userID, refresh, jti, expiresAt, parentJTI)
}

func (as *authService) RotateRefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	pair, err := as.rotate(ctx, refreshToken)
	observability.Current().IncTokenRotation(rotationOutcome(err))
	return pair, err
}

func (as *authService) rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := as.codec.Parse(TokenTypeRefresh, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	subject, _ := claims.UserID()

	var pair TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		rec, err := as.tokenRepo.GetByJTI(dbc, claims.ID)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if rec == nil {
			return ErrTokenNotFound
		}
		if rec.UserID != subject {
			return ErrInvalidToken
		}
		if rec.Revoked {
			return ErrTokenRevoked
		}
		if as.codec.RefreshExpired(claims, rec.ExpiresAt) {
			return ErrTokenExpired
		}

		refresh, newJTI, expiresAt, err := as.codec.SignRefresh(rec.UserID)
		if err != nil {
			return err
		}
		won, err := as.tokenRepo.RevokeIfActive(dbc, rec.JTI, &newJTI)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if !won {
			return ErrTokenRevoked
		}
		parent := rec.JTI
		pair, err = as.persistPair(dbc, rec.UserID, refresh, newJTI, expiresAt, &parent)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// persistPair stores the refresh record, child of parentJTI when set, and only
// then signs the access half of the pair.
func (as *authService) persistPair(dbc dbctx.Context, userID int64, refresh, jti string, expiresAt time.Time, parentJTI *string) (TokenPair, error) {
	rec := &types.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		ParentJTI: parentJTI,
	}
	if _, err := as.tokenRepo.Create(dbc, []*types.RefreshToken{rec}); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	access, _, err := as.codec.SignAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (as *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) {
	claims, err := as.codec.Parse(TokenTypeRefresh, refreshToken)
	if err != nil {
		as.log.Debug("ignoring revoke of unusable token")
		return
	}
	if _, err := as.tokenRepo.RevokeIfActive(dbctx.Context{Ctx: ctx}, claims.ID, nil); err != nil {
		as.log.Warn("refresh token revoke failed", "jti", claims.ID, "error", err)
	}
}

func (as *authService) VerifyAccessToken(accessToken string) (int64, error) {
	return as.codec.VerifyAccess(accessToken)
}

func rotationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "error"
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
