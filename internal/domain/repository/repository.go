package repository

import (
	"context"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByProviderUsername(ctx context.Context, provider entity.Provider, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.User, error)
}

// ProductRepository covers product persistence. List methods return products
// with Seller and Buyer resolved using a fixed number of round trips.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetByIDForUpdate reads the row under an exclusive lock held until the
	// surrounding transaction ends. Only valid inside UnitOfWork.Do.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	MarkSold(ctx context.Context, id, buyerID int64) error
	// Delete removes a product that is still for sale.
	Delete(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status entity.ProductStatus) ([]*entity.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]*entity.Product, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Product, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error)
	Search(ctx context.Context, keyword string) ([]*entity.Product, error)
}

type RefreshTokenRepository interface {
	Save(ctx context.Context, t *entity.RefreshToken) error
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteByToken removes the exact token value and reports how many rows went away.
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error)
	// MarkRead flags the given notifications of userID as read. Rows created
	// after they were listed are left untouched.
	MarkRead(ctx context.Context, userID int64, ids []int64) error
}

// LikeRepository stores per-user liked product ids in a key-set store.
type LikeRepository interface {
	// Toggle flips the like in one atomic step and returns the new state with
	// the product's like count.
	Toggle(ctx context.Context, userID, productID int64) (liked bool, count int64, err error)
	IsLiked(ctx context.Context, userID, productID int64) (bool, error)
	LikedProductIDs(ctx context.Context, userID int64) ([]int64, error)
	Count(ctx context.Context, productID int64) (int64, error)
}

// Repositories is the set of stores bound to one transaction.
type Repositories interface {
	Users() UserRepository
	Products() ProductRepository
	RefreshTokens() RefreshTokenRepository
	Notifications() NotificationRepository
}

// UnitOfWork runs fn inside a single transaction. fn's writes commit together
// when it returns nil and roll back together otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Repositories) error) error
}
