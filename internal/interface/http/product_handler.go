package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
	"github.com/trade-ham/marketplace-api/pkg/response"
	"github.com/trade-ham/marketplace-api/pkg/validation"
)

const maxImageBytes = 10 << 20

type ProductCatalog interface {
	ListSelling(ctx context.Context) ([]*entity.Product, error)
	Search(ctx context.Context, keyword string) ([]*entity.Product, error)
	Suggest(ctx context.Context, prefix string, size int) ([]string, error)
	Detail(ctx context.Context, productID, viewerID int64) (*application.ProductDetail, error)
	Create(ctx context.Context, sellerID int64, in application.ProductInput) (*entity.Product, error)
	Update(ctx context.Context, sellerID, productID int64, in application.ProductInput) (*entity.Product, error)
	Delete(ctx context.Context, sellerID, productID int64) error
	UploadImage(ctx context.Context, sellerID, productID int64, r io.Reader, filename, contentType string) (*entity.Product, error)
}

type ProductHandler struct {
	Svc    ProductCatalog
	Logger *logrus.Logger
}

func NewProductHandler(svc ProductCatalog, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Svc: svc, Logger: logger}
}

type productRequest struct {
	Name        string `json:"name" binding:"required,productname"`
	Description string `json:"description" binding:"max=2000"`
	Price       int64  `json:"price" binding:"price"`
}

func (r productRequest) input() application.ProductInput {
	return application.ProductInput{Name: r.Name, Description: r.Description, Price: r.Price}
}

// List GET /products
func (h *ProductHandler) List(c *gin.Context) {
	ps, err := h.Svc.ListSelling(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductViews(ps), "products", map[string]any{"count": len(ps)})
}

// Search GET /products/search?keyword=
func (h *ProductHandler) Search(c *gin.Context) {
	ps, err := h.Svc.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductViews(ps), "products", map[string]any{"count": len(ps)})
}

// Suggest GET /products/suggest?prefix=&size=
func (h *ProductHandler) Suggest(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	names, err := h.Svc.Suggest(c.Request.Context(), c.Query("prefix"), size)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, names, "suggestions", nil)
}

// Detail GET /product/:productId; the like flag is filled for signed-in viewers.
func (h *ProductHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var viewer int64
	if p, ok := middleware.PrincipalFrom(c); ok {
		viewer = p.UserID
	}
	d, err := h.Svc.Detail(c.Request.Context(), id, viewer)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductDetailView(d), "product", nil)
}

// Create POST /product
func (h *ProductHandler) Create(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), uid, req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toProductView(p), "product created", nil)
}

// Update PUT /product/:productId
func (h *ProductHandler) Update(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), uid, id, req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductView(p), "product updated", nil)
}

// Delete DELETE /product/:productId
func (h *ProductHandler) Delete(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), uid, id); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "product deleted", nil)
}

// UploadImage POST /product/:productId/image (multipart field "image")
func (h *ProductHandler) UploadImage(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	if fh.Size > maxImageBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	p, err := h.Svc.UploadImage(c.Request.Context(), uid, id, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProductView(p), "image uploaded", nil)
}
