package application

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

type ProductService struct {
	Store     repo.Repositories
	UoW       repo.UnitOfWork
	Likes     repo.LikeRepository
	Index     ProductIndexer
	Suggester ProductSuggester
	Images    ImageStore
	Logger    *logrus.Logger
}

func NewProductService(store repo.Repositories, uow repo.UnitOfWork, likes repo.LikeRepository, index ProductIndexer, suggester ProductSuggester, images ImageStore, logger *logrus.Logger) *ProductService {
	return &ProductService{Store: store, UoW: uow, Likes: likes, Index: index, Suggester: suggester, Images: images, Logger: logger}
}

type ProductInput struct {
	Name        string
	Description string
	Price       int64
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.New(apperror.CodeInvalidInput, "name is required")
	}
	if in.Price < 0 {
		return apperror.New(apperror.CodeInvalidInput, "price must not be negative")
	}
	return nil
}

// ProductDetail is a product with its resolved users and like state.
type ProductDetail struct {
	Product   *entity.Product
	LikeCount int64
	Liked     bool
}

// ListSelling returns every product still for sale, newest first.
func (s *ProductService) ListSelling(ctx context.Context) ([]*entity.Product, error) {
	return s.Store.Products().ListByStatus(ctx, entity.ProductStatusSell)
}

// Search matches keyword against name or description of products for sale.
// An empty keyword lists everything for sale.
func (s *ProductService) Search(ctx context.Context, keyword string) ([]*entity.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.ListSelling(ctx)
	}
	return s.Store.Products().Search(ctx, keyword)
}

// Suggest returns name completions from the search index. Without an index
// configured it returns nothing.
func (s *ProductService) Suggest(ctx context.Context, prefix string, size int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if s.Suggester == nil || prefix == "" {
		return []string{}, nil
	}
	if size <= 0 || size > 20 {
		size = 10
	}
	return s.Suggester.Suggest(ctx, prefix, size)
}

// Detail loads one product with seller, buyer and like information. viewerID
// may be zero for anonymous callers.
func (s *ProductService) Detail(ctx context.Context, productID, viewerID int64) (*ProductDetail, error) {
	p, err := s.Store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	ids := []int64{p.SellerID}
	if p.BuyerID != nil {
		ids = append(ids, *p.BuyerID)
	}
	users, err := s.Store.Users().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == p.SellerID {
			p.Seller = u
		}
		if p.BuyerID != nil && u.ID == *p.BuyerID {
			p.Buyer = u
		}
	}

	d := &ProductDetail{Product: p}
	if s.Likes != nil {
		if d.LikeCount, err = s.Likes.Count(ctx, p.ID); err != nil {
			s.warn(err, p.ID, "like count failed")
		}
		if viewerID != 0 {
			if d.Liked, err = s.Likes.IsLiked(ctx, viewerID, p.ID); err != nil {
				s.warn(err, p.ID, "like lookup failed")
			}
		}
	}
	return d, nil
}

// Create lists a new product for sale by sellerID.
func (s *ProductService) Create(ctx context.Context, sellerID int64, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &entity.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      entity.ProductStatusSell,
		SellerID:    sellerID,
	}
	if err := s.Store.Products().Create(ctx, p); err != nil {
		return nil, err
	}
	s.reindex(ctx, p)
	return p, nil
}

// Update edits a product the caller owns. Sold products are frozen.
func (s *ProductService) Update(ctx context.Context, sellerID, productID int64, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *entity.Product
	err := s.UoW.Do(ctx, func(tx repo.Repositories) error {
		p, err := ownedForSale(ctx, tx, sellerID, productID)
		if err != nil {
			return err
		}
		p.Name = strings.TrimSpace(in.Name)
		p.Description = in.Description
		p.Price = in.Price
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// Delete removes a product the caller owns that has not been sold.
func (s *ProductService) Delete(ctx context.Context, sellerID, productID int64) error {
	err := s.UoW.Do(ctx, func(tx repo.Repositories) error {
		if _, err := ownedForSale(ctx, tx, sellerID, productID); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, productID)
	})
	if err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, productID); err != nil {
			s.warn(err, productID, "es remove failed")
		}
	}
	return nil
}

// UploadImage stores a product picture and records its URL on the product.
func (s *ProductService) UploadImage(ctx context.Context, sellerID, productID int64, r io.Reader, filename, contentType string) (*entity.Product, error) {
	if s.Images == nil {
		return nil, apperror.New(apperror.CodeInternal, "image storage not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.New(apperror.CodeInvalidInput, "content type %q is not an image", contentType)
	}
	// Ownership is checked before the upload so strangers cannot fill the bucket.
	p, err := s.Store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(sellerID) {
		return nil, apperror.ErrAccessDenied
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("products", strconv.FormatInt(productID, 10), uuid.NewString()+ext))
	url, err := s.Images.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}

	var updated *entity.Product
	err = s.UoW.Do(ctx, func(tx repo.Repositories) error {
		p, err := ownedForSale(ctx, tx, sellerID, productID)
		if err != nil {
			return err
		}
		p.ImageURL = url
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// ownedForSale locks the product and checks the caller may still modify it.
func ownedForSale(ctx context.Context, tx repo.Repositories, sellerID, productID int64) (*entity.Product, error) {
	p, err := tx.Products().GetByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(sellerID) {
		return nil, apperror.New(apperror.CodeAccessDenied, "user %d does not own product %d", sellerID, productID)
	}
	if !p.CanPurchase() {
		return nil, apperror.New(apperror.CodeAccessDenied, "product %d is %s", productID, p.Status)
	}
	return p, nil
}

func (s *ProductService) reindex(ctx context.Context, p *entity.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		s.warn(err, p.ID, "es index failed")
	}
}

func (s *ProductService) warn(err error, productID int64, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("product_id", productID).Warn(msg)
	}
}
