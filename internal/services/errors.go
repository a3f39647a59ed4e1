package services

import (
	"errors"
	"net/http"

	"github.com/yungbote/openlearn-backend/internal/platform/apierr"
)

var (
	ErrInvalidInput       = apierr.New(http.StatusBadRequest, "invalid_input", errors.New("invalid input"))
	ErrDuplicateUser      = apierr.New(http.StatusBadRequest, "duplicate_user", errors.New("email already registered"))
	ErrInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("incorrect email or password"))

	ErrInvalidToken  = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("invalid token"))
	ErrTokenNotFound = apierr.New(http.StatusUnauthorized, "token_not_found", errors.New("refresh token not found"))
	ErrTokenRevoked  = apierr.New(http.StatusUnauthorized, "token_revoked", errors.New("refresh token revoked"))
	ErrTokenExpired  = apierr.New(http.StatusUnauthorized, "token_expired", errors.New("refresh token expired"))

	ErrAccessTokenExpired = apierr.New(http.StatusUnauthorized, "access_token_expired", errors.New("access token expired"))

	ErrMaterialsNotFound = apierr.New(http.StatusNotFound, "materials_not_found", errors.New("one or more materials not found"))
	ErrSessionNotFound   = apierr.New(http.StatusNotFound, "session_not_found", errors.New("session not found"))

	ErrSynthesisFailure = apierr.New(http.StatusInternalServerError, "synthesis_failed", errors.New("prerequisite synthesis failed"))
)

func invalidInput(msg string) error {
	return apierr.Wrap(ErrInvalidInput, errors.New(msg))
}
