package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/response"
	"github.com/trade-ham/marketplace-api/pkg/validation"
)

type Profiles interface {
	Profile(ctx context.Context, userID int64) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID int64, in application.UpdateProfileInput) (*entity.User, error)
}

type UserHandler struct {
	Svc    Profiles
	Logger *logrus.Logger
}

func NewUserHandler(svc Profiles, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Nickname string `json:"nickname" binding:"omitempty,nickname"`
	Account  string `json:"account" binding:"omitempty,account"`
	RealName string `json:"real_name" binding:"omitempty,max=30"`
}

// GetProfile GET /mypage/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Profile(c.Request.Context(), uid)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile", nil)
}

// UpdateProfile PUT /mypage/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		Nickname: req.Nickname,
		Account:  req.Account,
		RealName: req.RealName,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile updated", nil)
}
