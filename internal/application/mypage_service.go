package application

import (
	"context"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
)

// MypageService backs the signed-in user's own listings.
type MypageService struct {
	Store repo.Repositories
}

func NewMypageService(store repo.Repositories) *MypageService {
	return &MypageService{Store: store}
}

// Sells lists products userID put up for sale, with buyers resolved.
func (s *MypageService) Sells(ctx context.Context, userID int64) ([]*entity.Product, error) {
	return s.Store.Products().ListBySeller(ctx, userID)
}

// Purchases lists products userID bought, with sellers resolved.
func (s *MypageService) Purchases(ctx context.Context, userID int64) ([]*entity.Product, error) {
	return s.Store.Products().ListByBuyer(ctx, userID)
}
