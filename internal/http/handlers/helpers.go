package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/openlearn-backend/internal/http/response"
	"github.com/yungbote/openlearn-backend/internal/platform/apierr"
	"github.com/yungbote/openlearn-backend/internal/platform/ctxutil"
	"github.com/yungbote/openlearn-backend/internal/services"
)

// currentUserID writes a 401 and returns false when the request has no
// authenticated caller.
func currentUserID(c *gin.Context) (int64, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == 0 {
		response.RespondAPIError(c, services.ErrInvalidToken)
		return 0, false
	}
	return rd.UserID, true
}

func badRequest(c *gin.Context, err error) {
	response.RespondAPIError(c, apierr.Wrap(services.ErrInvalidInput, err))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
