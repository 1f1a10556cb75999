package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

type mockPurchaser struct{ mock.Mock }

func (m *mockPurchaser) CheckPurchasable(ctx context.Context, productID, buyerID int64) (*entity.Product, error) {
	args := m.Called(productID, buyerID)
	p, _ := args.Get(0).(*entity.Product)
	return p, args.Error(1)
}

func (m *mockPurchaser) Purchase(ctx context.Context, productID, buyerID int64) (*application.PurchaseResult, error) {
	args := m.Called(productID, buyerID)
	r, _ := args.Get(0).(*application.PurchaseResult)
	return r, args.Error(1)
}

func purchaseRouter(h *PurchaseHandler, uid int64) *gin.Engine {
	r := gin.New()
	r.Use(as(uid))
	r.GET("/product/purchase-page/:productId", h.PurchasePage)
	r.POST("/product/:productId/purchase", h.Purchase)
	return r
}

func soldProduct(id, buyer int64) *entity.Product {
	return &entity.Product{ID: id, Name: "Product 1", Price: 1000, Status: entity.ProductStatusSoldOut, SellerID: 1, BuyerID: &buyer}
}

func TestPurchaseSucceeds(t *testing.T) {
	svc := new(mockPurchaser)
	svc.On("Purchase", int64(5), int64(2)).Return(&application.PurchaseResult{Product: soldProduct(5, 2)}, nil)
	r := purchaseRouter(NewPurchaseHandler(svc, nil, true), 2)

	w := do(t, r, http.MethodPost, "/product/5/purchase", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"status":"SOLD_OUT"`)
}

func TestPurchaseRejected(t *testing.T) {
	svc := new(mockPurchaser)
	svc.On("Purchase", int64(5), int64(2)).Return(nil, apperror.ErrAccessDenied)
	r := purchaseRouter(NewPurchaseHandler(svc, nil, true), 2)

	w := do(t, r, http.MethodPost, "/product/5/purchase", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", decode(t, w).Error["code"])
}

func TestPurchaseRequiresCaller(t *testing.T) {
	svc := new(mockPurchaser)
	r := purchaseRouter(NewPurchaseHandler(svc, nil, true), 0)

	w := do(t, r, http.MethodPost, "/product/5/purchase", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
}

func TestPurchaseBadID(t *testing.T) {
	r := purchaseRouter(NewPurchaseHandler(new(mockPurchaser), nil, true), 2)
	w := do(t, r, http.MethodPost, "/product/abc/purchase", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLegacyPurchasePageBuys(t *testing.T) {
	svc := new(mockPurchaser)
	svc.On("Purchase", int64(5), int64(2)).Return(&application.PurchaseResult{Product: soldProduct(5, 2)}, nil)
	r := purchaseRouter(NewPurchaseHandler(svc, nil, true), 2)

	w := do(t, r, http.MethodGet, "/product/purchase-page/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestPurchasePageReadOnlyWhenLegacyDisabled(t *testing.T) {
	svc := new(mockPurchaser)
	svc.On("CheckPurchasable", int64(5), int64(2)).Return(&entity.Product{ID: 5, Status: entity.ProductStatusSell}, nil)
	r := purchaseRouter(NewPurchaseHandler(svc, nil, false), 2)

	w := do(t, r, http.MethodGet, "/product/purchase-page/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
}
