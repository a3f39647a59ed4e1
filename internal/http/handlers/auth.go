package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/openlearn-backend/internal/http/response"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /auth/signup
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string  `json:"email" binding:"required,email"`
		Password string  `json:"password" binding:"required"`
		Name     *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	user, err := ah.authService.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	pair, err := ah.authService.IssueTokenPair(ctx, user.ID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, pair)
}

// POST /auth/login accepts JSON {email,password} or an OAuth2 password form
// (username, password).
func (ah *AuthHandler) Login(c *gin.Context) {
	var email, password string
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		email, password = c.PostForm("username"), c.PostForm("password")
	default:
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		email, password = req.Email, req.Password
	}
	if strings.TrimSpace(email) == "" || password == "" {
		response.RespondAPIError(c, services.ErrInvalidCredentials)
		return
	}

	ctx := c.Request.Context()
	user, err := ah.authService.Authenticate(ctx, email, password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if user == nil {
		response.RespondAPIError(c, services.ErrInvalidCredentials)
		return
	}
	pair, err := ah.authService.IssueTokenPair(ctx, user.ID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// POST /auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := ah.authService.RotateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, pair)
}

// POST /auth/logout always answers 204.
func (ah *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		ah.authService.RevokeRefreshToken(c.Request.Context(), req.RefreshToken)
	}
	c.Status(http.StatusNoContent)
}

// GET /auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := ah.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if user == nil {
		response.RespondAPIError(c, services.ErrInvalidToken)
		return
	}
	response.RespondOK(c, gin.H{"id": user.ID, "email": user.Email, "name": user.Name})
}
