package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/openlearn-backend/internal/http/response"
	"github.com/yungbote/openlearn-backend/internal/platform/apierr"
	"github.com/yungbote/openlearn-backend/internal/platform/ctxutil"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/services"
)

// AccessVerifier resolves an access token to its user id.
type AccessVerifier interface {
	VerifyAccessToken(accessToken string) (int64, error)
}

type AuthMiddleware struct {
	log      *logger.Logger
	verifier AccessVerifier
}

func NewAuthMiddleware(log *logger.Logger, verifier AccessVerifier) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), verifier: verifier}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.RespondAPIError(c, apierr.Wrap(services.ErrInvalidToken, errors.New("missing bearer token")))
			c.Abort()
			return
		}
		userID, err := am.verifier.VerifyAccessToken(token)
		if err != nil {
			am.log.Debug("access token rejected", "error", err.Error())
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
