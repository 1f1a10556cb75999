package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

type Liker interface {
	Toggle(ctx context.Context, userID, productID int64) (*application.LikeState, error)
	LikedProducts(ctx context.Context, userID int64) ([]*entity.Product, error)
}

type LikeHandler struct {
	Svc    Liker
	Logger *logrus.Logger
}

func NewLikeHandler(svc Liker, logger *logrus.Logger) *LikeHandler {
	return &LikeHandler{Svc: svc, Logger: logger}
}

// Toggle POST /product/:productId/like
func (h *LikeHandler) Toggle(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	st, err := h.Svc.Toggle(c.Request.Context(), uid, id)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	msg := "unliked"
	if st.Liked {
		msg = "liked"
	}
	response.Success(c, http.StatusOK, gin.H{
		"product_id": st.ProductID,
		"liked":      st.Liked,
		"like_count": st.Count,
	}, msg, nil)
}

// Liked GET /mypage/likes
func (h *LikeHandler) Liked(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	ps, err := h.Svc.LikedProducts(c.Request.Context(), uid)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductViews(ps), "liked products", map[string]any{"count": len(ps)})
}
