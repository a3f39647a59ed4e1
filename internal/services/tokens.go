package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the signed payload of both token kinds. Access tokens carry
// sub, type, iat and jti; refresh tokens add exp.
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *TokenClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("subject %q is not a user id", c.Subject)
	}
	return id, nil
}

type TokenConfig struct {
	AccessSecret     string
	AccessAlgorithm  string
	RefreshSecret    string
	RefreshAlgorithm string
	// AccessMaxAge bounds access token age from iat. Zero accepts any age.
	AccessMaxAge time.Duration
	RefreshTTL   time.Duration
	Leeway       time.Duration
}

// TokenCodec signs and verifies access and refresh JWTs, each kind with its
// own secret and HMAC algorithm.
type TokenCodec struct {
	cfg           TokenConfig
	accessMethod  jwt.SigningMethod
	refreshMethod jwt.SigningMethod
	now           func() time.Time
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.RefreshAlgorithm == "" {
		cfg.RefreshAlgorithm = cfg.AccessAlgorithm
	}
	if cfg.AccessSecret == "" {
		return nil, errors.New("access token secret required")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("refresh token ttl must be positive")
	}
	accessMethod, err := hmacMethod(cfg.AccessAlgorithm)
	if err != nil {
		return nil, err
	}
	refreshMethod, err := hmacMethod(cfg.RefreshAlgorithm)
	if err != nil {
		return nil, err
	}
	return &TokenCodec{
		cfg:           cfg,
		accessMethod:  accessMethod,
		refreshMethod: refreshMethod,
		now:           time.Now,
	}, nil
}

func hmacMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", alg)
	}
}

// SignAccess returns a signed access token and its jti.
func (c *TokenCodec) SignAccess(userID int64) (string, string, error) {
	jti := uuid.NewString()
	claims := TokenClaims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(c.now()),
			ID:       jti,
		},
	}
	signed, err := jwt.NewWithClaims(c.accessMethod, claims).SignedString([]byte(c.cfg.AccessSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, jti, nil
}

// SignRefresh returns a signed refresh token, its jti and its expiry.
func (c *TokenCodec) SignRefresh(userID int64) (string, string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.cfg.RefreshTTL)
	jti := uuid.NewString()
	claims := TokenClaims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(c.refreshMethod, claims).SignedString([]byte(c.cfg.RefreshSecret))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, jti, expiresAt, nil
}

// Parse verifies signature and algorithm for the given kind and checks the
// claim structure. Time-based claims are left to the caller so that refresh
// expiry can be judged against the stored record.
func (c *TokenCodec) Parse(kind, token string) (*TokenClaims, error) {
	method, secret := c.accessMethod, c.cfg.AccessSecret
	if kind == TokenTypeRefresh {
		method, secret = c.refreshMethod, c.cfg.RefreshSecret
	}
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(
		strings.TrimSpace(token),
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess returns the user id carried by a valid access token.
func (c *TokenCodec) VerifyAccess(token string) (int64, error) {
	claims, err := c.Parse(TokenTypeAccess, token)
	if err != nil {
		return 0, err
	}
	if c.cfg.AccessMaxAge > 0 {
		if claims.IssuedAt == nil {
			return 0, ErrInvalidToken
		}
		deadline := claims.IssuedAt.Add(c.cfg.AccessMaxAge + c.cfg.Leeway)
		if c.now().After(deadline) {
			return 0, ErrAccessTokenExpired
		}
	}
	return claims.UserID()
}

// RefreshExpired reports whether a refresh token is past its expiry, taking
// the earlier of the stored expiry and the exp claim.
func (c *TokenCodec) RefreshExpired(claims *TokenClaims, storedExpiry time.Time) bool {
	now := c.now()
	if !now.Before(storedExpiry) {
		return true
	}
	return claims != nil && claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}
