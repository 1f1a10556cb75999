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

type Purchaser interface {
	CheckPurchasable(ctx context.Context, productID, buyerID int64) (*entity.Product, error)
	Purchase(ctx context.Context, productID, buyerID int64) (*application.PurchaseResult, error)
}

type PurchaseHandler struct {
	Svc    Purchaser
	Logger *logrus.Logger
	// LegacyGETPurchases keeps the old page route completing the purchase.
	LegacyGETPurchases bool
}

func NewPurchaseHandler(svc Purchaser, logger *logrus.Logger, legacyGETPurchases bool) *PurchaseHandler {
	return &PurchaseHandler{Svc: svc, Logger: logger, LegacyGETPurchases: legacyGETPurchases}
}

// Purchase POST /product/:productId/purchase
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	buyerID, ok := callerID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	res, err := h.Svc.Purchase(c.Request.Context(), productID, buyerID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductView(res.Product), "purchase complete", nil)
}

// PurchasePage GET /product/purchase-page/:productId
// Old clients complete the purchase through this route. With the legacy
// behaviour switched off it only reports whether the product can be bought.
func (h *PurchaseHandler) PurchasePage(c *gin.Context) {
	buyerID, ok := callerID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if !h.LegacyGETPurchases {
		p, err := h.Svc.CheckPurchasable(c.Request.Context(), productID, buyerID)
		if err != nil {
			fail(c, h.Logger, err)
			return
		}
		response.Success(c, http.StatusOK, toProductView(p), "purchase page available", nil)
		return
	}
	if _, err := h.Svc.Purchase(c.Request.Context(), productID, buyerID); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "purchase page available", "purchase page available", nil)
}
