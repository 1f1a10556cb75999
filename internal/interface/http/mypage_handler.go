package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

type History interface {
	Sells(ctx context.Context, userID int64) ([]*entity.Product, error)
	Purchases(ctx context.Context, userID int64) ([]*entity.Product, error)
}

type MypageHandler struct {
	Svc    History
	Logger *logrus.Logger
}

func NewMypageHandler(svc History, logger *logrus.Logger) *MypageHandler {
	return &MypageHandler{Svc: svc, Logger: logger}
}

func (h *MypageHandler) list(c *gin.Context, load func(context.Context, int64) ([]*entity.Product, error), msg string) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	ps, err := load(c.Request.Context(), uid)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductViews(ps), msg, map[string]any{"count": len(ps)})
}

// Sells GET /mypage/sells
func (h *MypageHandler) Sells(c *gin.Context) { h.list(c, h.Svc.Sells, "sold products") }

// Purchases GET /mypage/purchases
func (h *MypageHandler) Purchases(c *gin.Context) { h.list(c, h.Svc.Purchases, "purchased products") }
