package entity

import "time"

type ProductStatus string

const (
	ProductStatusSell    ProductStatus = "SELL"
	ProductStatusSoldOut ProductStatus = "SOLD_OUT"
)

// Product is a listing owned by its seller. BuyerID is non-nil exactly when
// Status is not SELL; only a purchase sets it.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Status      ProductStatus
	SellerID    int64
	BuyerID     *int64
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved references; nil unless the query loaded them.
	Seller *User
	Buyer  *User
}

func (p *Product) CanPurchase() bool {
	return p.Status == ProductStatusSell
}

func (p *Product) OwnedBy(userID int64) bool {
	return p.SellerID == userID
}
