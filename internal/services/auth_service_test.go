package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	"github.com/yungbote/openlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessMaxAge:  time.Hour,
		RefreshTTL:    30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec
}

func newTestAuth(t *testing.T) (AuthService, *TokenCodec, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	codec := newTestCodec(t)
	svc := NewAuthService(db, log, repos.NewUserRepo(db, log), repos.NewRefreshTokenRepo(db, log), codec, bcrypt.MinCost)
	return svc, codec, db
}

func signUp(t *testing.T, svc AuthService, email string) (*types.User, TokenPair) {
	t.Helper()
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, email, "hunter22", nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	pair, err := svc.IssueTokenPair(ctx, u.ID)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	return u, pair
}

func loadRecord(t *testing.T, db *gorm.DB, codec *TokenCodec, refresh string) *types.RefreshToken {
	t.Helper()
	claims, err := codec.Parse(TokenTypeRefresh, refresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	rec, err := repos.NewRefreshTokenRepo(db, testutil.Logger(t)).GetByJTI(dbctx.Context{Ctx: context.Background()}, claims.ID)
	if err != nil || rec == nil {
		t.Fatalf("GetByJTI(%s): rec=%v err=%v", claims.ID, rec, err)
	}
	return rec
}

func TestSignupPairClaims(t *testing.T) {
	svc, codec, _ := newTestAuth(t)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		u, pair := signUp(t, svc, email)
		if pair.AccessToken == pair.RefreshToken {
			t.Fatalf("%s: access and refresh must differ", email)
		}
		if pair.TokenType != "bearer" {
			t.Fatalf("token_type: want=%q got=%q", "bearer", pair.TokenType)
		}
		access, err := codec.Parse(TokenTypeAccess, pair.AccessToken)
		if err != nil {
			t.Fatalf("Parse access: %v", err)
		}
		if access.ExpiresAt != nil {
			t.Fatalf("access exp: want none got=%v", access.ExpiresAt)
		}
		refresh, err := codec.Parse(TokenTypeRefresh, pair.RefreshToken)
		if err != nil {
			t.Fatalf("Parse refresh: %v", err)
		}
		if refresh.ExpiresAt == nil {
			t.Fatalf("refresh exp: want set")
		}
		for name, c := range map[string]*TokenClaims{"access": access, "refresh": refresh} {
			sub, err := c.UserID()
			if err != nil || sub != u.ID {
				t.Fatalf("%s sub: want=%d got=%d err=%v", name, u.ID, sub, err)
			}
		}
	}
}

func TestRotateTwiceChainsRecords(t *testing.T) {
	svc, codec, db := newTestAuth(t)
	ctx := context.Background()
	_, first := signUp(t, svc, "rotate@example.com")

	second, err := svc.RotateRefreshToken(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("first rotation: %v", err)
	}
	third, err := svc.RotateRefreshToken(ctx, second.RefreshToken)
	if err != nil {
		t.Fatalf("second rotation: %v", err)
	}
	if second.RefreshToken == third.RefreshToken || first.RefreshToken == second.RefreshToken {
		t.Fatalf("rotated refresh tokens must be distinct")
	}

	r1 := loadRecord(t, db, codec, first.RefreshToken)
	r2 := loadRecord(t, db, codec, second.RefreshToken)
	r3 := loadRecord(t, db, codec, third.RefreshToken)
	if !r1.Revoked || !r2.Revoked || r3.Revoked {
		t.Fatalf("revoked flags: want true,true,false got=%v,%v,%v", r1.Revoked, r2.Revoked, r3.Revoked)
	}
	if r1.ReplacedByJTI == nil || *r1.ReplacedByJTI != r2.JTI {
		t.Fatalf("r1.replaced_by: want=%s got=%v", r2.JTI, r1.ReplacedByJTI)
	}
	if r2.ReplacedByJTI == nil || *r2.ReplacedByJTI != r3.JTI {
		t.Fatalf("r2.replaced_by: want=%s got=%v", r3.JTI, r2.ReplacedByJTI)
	}
	if r2.ParentJTI == nil || *r2.ParentJTI != r1.JTI {
		t.Fatalf("r2.parent: want=%s got=%v", r1.JTI, r2.ParentJTI)
	}
	if r3.ParentJTI == nil || *r3.ParentJTI != r2.JTI {
		t.Fatalf("r3.parent: want=%s got=%v", r2.JTI, r3.ParentJTI)
	}
}

func TestRotateRevokedAndRevokeIsBestEffort(t *testing.T) {
	svc, codec, db := newTestAuth(t)
	ctx := context.Background()
	_, pair := signUp(t, svc, "revoke@example.com")

	if _, err := svc.RotateRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := svc.RotateRefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("reuse: want=%v got=%v", ErrTokenRevoked, err)
	}

	svc.RevokeRefreshToken(ctx, "not-a-jwt")
	svc.RevokeRefreshToken(ctx, "")
	svc.RevokeRefreshToken(ctx, pair.AccessToken)

	_, other := signUp(t, svc, "logout@example.com")
	svc.RevokeRefreshToken(ctx, other.RefreshToken)
	svc.RevokeRefreshToken(ctx, other.RefreshToken)
	rec := loadRecord(t, db, codec, other.RefreshToken)
	if !rec.Revoked || rec.ReplacedByJTI != nil {
		t.Fatalf("logout record: revoked=%v replaced_by=%v", rec.Revoked, rec.ReplacedByJTI)
	}
	if _, err := svc.RotateRefreshToken(ctx, other.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("rotate after logout: want=%v got=%v", ErrTokenRevoked, err)
	}
}

func TestRotateRejections(t *testing.T) {
	svc, codec, _ := newTestAuth(t)
	ctx := context.Background()
	u, pair := signUp(t, svc, "reject@example.com")

	if _, err := svc.RotateRefreshToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: want=%v got=%v", ErrInvalidToken, err)
	}
	if _, err := svc.RotateRefreshToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access as refresh: want=%v got=%v", ErrInvalidToken, err)
	}

	unstored, _, _, err := codec.SignRefresh(u.ID)
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}
	if _, err := svc.RotateRefreshToken(ctx, unstored); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("unstored: want=%v got=%v", ErrTokenNotFound, err)
	}

	codec.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	defer func() { codec.now = time.Now }()
	if _, err := svc.RotateRefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired: want=%v got=%v", ErrTokenExpired, err)
	}
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	_, pair := signUp(t, svc, "race@example.com")

	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RotateRefreshToken(context.Background(), pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTokenRevoked), errors.Is(err, ErrTokenNotFound):
		default:
			t.Fatalf("unexpected rotation error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners: want=1 got=%d", wins)
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()
	name := "  Ada "
	u, err := svc.CreateUser(ctx, "ada@example.com", "s3cret", &name)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.HashedPassword == "s3cret" || u.Name == nil || *u.Name != "Ada" {
		t.Fatalf("stored user: hash=%q name=%v", u.HashedPassword, u.Name)
	}
	if _, err := svc.CreateUser(ctx, "ada@example.com", "other", nil); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate: want=%v got=%v", ErrDuplicateUser, err)
	}
	if _, err := svc.CreateUser(ctx, "  ", "pw", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank email: want=%v got=%v", ErrInvalidInput, err)
	}

	got, err := svc.Authenticate(ctx, "ada@example.com", "s3cret")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("Authenticate ok: user=%v err=%v", got, err)
	}
	for _, tc := range []struct{ email, pw string }{
		{"ada@example.com", "wrong"},
		{"nobody@example.com", "s3cret"},
	} {
		got, err := svc.Authenticate(ctx, tc.email, tc.pw)
		if err != nil || got != nil {
			t.Fatalf("Authenticate(%s): want nil,nil got=%v,%v", tc.email, got, err)
		}
	}
}

func TestVerifyAccessToken(t *testing.T) {
	svc, codec, _ := newTestAuth(t)
	u, pair := signUp(t, svc, "verify@example.com")

	id, err := svc.VerifyAccessToken(pair.AccessToken)
	if err != nil || id != u.ID {
		t.Fatalf("VerifyAccessToken: want=%d got=%d err=%v", u.ID, id, err)
	}
	if _, err := svc.VerifyAccessToken(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh as access: want=%v got=%v", ErrInvalidToken, err)
	}

	codec.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	defer func() { codec.now = time.Now }()
	if _, err := svc.VerifyAccessToken(pair.AccessToken); !errors.Is(err, ErrAccessTokenExpired) {
		t.Fatalf("stale access: want=%v got=%v", ErrAccessTokenExpired, err)
	}
}

func TestReplayLeavesOtherTokensUsable(t *testing.T) {
	svc, codec, db := newTestAuth(t)
	ctx := context.Background()
	u, first := signUp(t, svc, "replay@example.com")
	second, err := svc.IssueTokenPair(ctx, u.ID)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	child, err := svc.RotateRefreshToken(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := svc.RotateRefreshToken(ctx, first.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay: want=%v got=%v", ErrTokenRevoked, err)
	}

	for name, refresh := range map[string]string{"child": child.RefreshToken, "sibling": second.RefreshToken} {
		if rec := loadRecord(t, db, codec, refresh); rec.Revoked {
			t.Fatalf("%s revoked after replay", name)
		}
		if _, err := svc.RotateRefreshToken(ctx, refresh); err != nil {
			t.Fatalf("rotate %s after replay: %v", name, err)
		}
	}
}
