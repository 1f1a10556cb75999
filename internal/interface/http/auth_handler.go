package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/helpers"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

type OAuthFlow interface {
	LoginURL(ctx context.Context, provider string) (string, error)
	Callback(ctx context.Context, provider, state, code string) (*entity.User, application.TokenPair, error)
}

type RefreshFlow interface {
	Rotate(ctx context.Context, refreshToken string) (application.TokenPair, error)
	ReissueAccess(ctx context.Context, refreshToken string) (string, time.Time, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, refreshToken string) error
}

type AuthHandler struct {
	OAuth           OAuthFlow
	Tokens          RefreshFlow
	Cookies         *helpers.Manager
	Logger          *logrus.Logger
	LoginSuccessURL string
}

func NewAuthHandler(oauth OAuthFlow, tokens RefreshFlow, logger *logrus.Logger, cookieDomain string, cookieSecure bool, loginSuccessURL string) *AuthHandler {
	return &AuthHandler{
		OAuth:           oauth,
		Tokens:          tokens,
		Cookies:         helpers.NewCookie(cookieDomain, cookieSecure),
		Logger:          logger,
		LoginSuccessURL: loginSuccessURL,
	}
}

// Authorize GET /oauth2/authorization/:provider redirects to the provider consent page.
func (h *AuthHandler) Authorize(c *gin.Context) {
	url, err := h.OAuth.LoginURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback GET /login/oauth2/code/:provider finishes the login and hands out the token pair.
func (h *AuthHandler) Callback(c *gin.Context) {
	u, pair, err := h.OAuth.Callback(c.Request.Context(), c.Param("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.RefreshToken, pair.RefreshTokenExpiry)
	if h.LoginSuccessURL != "" {
		c.Redirect(http.StatusFound, h.LoginSuccessURL)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// tokenError answers refresh failures with the plain-text bodies clients already parse.
func (h *AuthHandler) tokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrExpiredToken), errors.Is(err, apperror.ErrInvalidToken):
		code := apperror.From(err)
		c.String(code.Status, code.Message)
	default:
		fail(c, h.Logger, err)
	}
}

// Reissue POST /reissue rotates the refresh cookie and returns a new access header.
func (h *AuthHandler) Reissue(c *gin.Context) {
	refresh := h.Cookies.Refresh(c)
	if refresh == "" {
		h.tokenError(c, apperror.ErrInvalidToken)
		return
	}
	pair, err := h.Tokens.Rotate(c.Request.Context(), refresh)
	if err != nil {
		h.tokenError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.Status(http.StatusOK)
}

// ReissueAccess POST /reissue/access returns a new access header and leaves the refresh cookie alone.
func (h *AuthHandler) ReissueAccess(c *gin.Context) {
	refresh := h.Cookies.Refresh(c)
	if refresh == "" {
		h.tokenError(c, apperror.ErrInvalidToken)
		return
	}
	access, _, err := h.Tokens.ReissueAccess(c.Request.Context(), refresh)
	if err != nil {
		h.tokenError(c, err)
		return
	}
	c.Header(helpers.AccessHeader, access)
	c.Status(http.StatusOK)
}

// Logout POST /logout revokes the refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if refresh := h.Cookies.Refresh(c); refresh != "" {
		if err := h.Tokens.Revoke(c.Request.Context(), refresh); err != nil {
			fail(c, h.Logger, err)
			return
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// LogoutAll POST /logout/all revokes every refresh token of the cookie's owner.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	refresh := h.Cookies.Refresh(c)
	if refresh == "" {
		h.tokenError(c, apperror.ErrInvalidToken)
		return
	}
	if err := h.Tokens.RevokeAll(c.Request.Context(), refresh); err != nil {
		h.tokenError(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out of all sessions", nil)
}
