package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/internal/metrics"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

type LikeService struct {
	Store   repo.Repositories
	Likes   repo.LikeRepository
	Logger  *logrus.Logger
	Metrics metrics.Recorder
}

func NewLikeService(store repo.Repositories, likes repo.LikeRepository, logger *logrus.Logger, rec metrics.Recorder) *LikeService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &LikeService{Store: store, Likes: likes, Logger: logger, Metrics: rec}
}

type LikeState struct {
	ProductID int64
	Liked     bool
	Count     int64
}

// Toggle flips userID's like on productID. A new like notifies the seller.
func (s *LikeService) Toggle(ctx context.Context, userID, productID int64) (*LikeState, error) {
	p, err := s.Store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.OwnedBy(userID) {
		return nil, apperror.New(apperror.CodeAccessDenied, "cannot like own product %d", productID)
	}

	liked, count, err := s.Likes.Toggle(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordLike(liked)

	if liked {
		n := &entity.Notification{
			UserID:  p.SellerID,
			Type:    entity.NotificationProductLiked,
			Message: fmt.Sprintf("someone liked %s", p.Name),
		}
		if err := s.Store.Notifications().Create(ctx, n); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("product_id", productID).Warn("like notification failed")
		}
	}

	return &LikeState{ProductID: productID, Liked: liked, Count: count}, nil
}

// LikedProducts resolves the caller's liked set with one product query and
// one batched users query. Ids whose products no longer exist are skipped.
func (s *LikeService) LikedProducts(ctx context.Context, userID int64) ([]*entity.Product, error) {
	ids, err := s.Likes.LikedProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Product{}, nil
	}
	return s.Store.Products().ListByIDs(ctx, ids)
}
