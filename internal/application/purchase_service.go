package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/internal/metrics"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/mailer"
	mailtpl "github.com/trade-ham/marketplace-api/pkg/mailer/templates"
)

// PurchaseService moves a product from SELL to SOLD_OUT for exactly one buyer.
type PurchaseService struct {
	Store   repo.Repositories
	UoW     repo.UnitOfWork
	Index   ProductIndexer
	Jobs    JobPublisher
	Logger  *logrus.Logger
	Metrics metrics.Recorder

	AppName     string
	CompanyName string
	SupportURL  string
}

func NewPurchaseService(store repo.Repositories, uow repo.UnitOfWork, index ProductIndexer, jobs JobPublisher, logger *logrus.Logger, rec metrics.Recorder) *PurchaseService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &PurchaseService{Store: store, UoW: uow, Index: index, Jobs: jobs, Logger: logger, Metrics: rec}
}

// PurchaseResult is what the buyer gets back after a successful purchase.
type PurchaseResult struct {
	Product *entity.Product
	Buyer   *entity.User
}

// CheckPurchasable reports whether productID can currently be bought by buyerID.
// It takes no lock; Purchase re-checks under the row lock.
func (s *PurchaseService) CheckPurchasable(ctx context.Context, productID, buyerID int64) (*entity.Product, error) {
	p, err := s.Store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := purchasable(p, buyerID); err != nil {
		return nil, err
	}
	return p, nil
}

func purchasable(p *entity.Product, buyerID int64) error {
	if !p.CanPurchase() {
		return apperror.New(apperror.CodeAccessDenied, "product %d is %s", p.ID, p.Status)
	}
	if p.OwnedBy(buyerID) {
		return apperror.New(apperror.CodeAccessDenied, "seller cannot buy own product %d", p.ID)
	}
	return nil
}

// Purchase locks the product row, re-checks its status under the lock, marks it
// sold and notifies the seller, all in one transaction. Of any number of
// concurrent calls for the same product at most one succeeds.
func (s *PurchaseService) Purchase(ctx context.Context, productID, buyerID int64) (*PurchaseResult, error) {
	var (
		product *entity.Product
		buyer   *entity.User
	)
	err := s.UoW.Do(ctx, func(tx repo.Repositories) error {
		p, err := tx.Products().GetByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := purchasable(p, buyerID); err != nil {
			return err
		}
		b, err := tx.Users().GetByID(ctx, buyerID)
		if err != nil {
			return err
		}
		seller, err := tx.Users().GetByID(ctx, p.SellerID)
		if err != nil {
			return err
		}
		if err := tx.Products().MarkSold(ctx, productID, buyerID); err != nil {
			return err
		}
		p.Seller = seller
		p.Status = entity.ProductStatusSoldOut
		p.BuyerID = &b.ID
		p.Buyer = b

		n := &entity.Notification{
			UserID:  p.SellerID,
			Type:    entity.NotificationPurchaseComplete,
			Message: fmt.Sprintf("%s was purchased by %s", p.Name, b.DisplayName()),
		}
		if err := tx.Notifications().Create(ctx, n); err != nil {
			return err
		}
		product, buyer = p, b
		return nil
	})
	if err != nil {
		s.recordPurchase(err)
		return nil, err
	}
	s.Metrics.RecordPurchase(metrics.OutcomeSuccess)

	s.afterPurchase(ctx, product, buyer)
	return &PurchaseResult{Product: product, Buyer: buyer}, nil
}

// afterPurchase runs the post-commit steps. Failures are logged and counted
// but never change the outcome of the purchase.
func (s *PurchaseService) afterPurchase(ctx context.Context, p *entity.Product, buyer *entity.User) {
	if s.Jobs != nil && buyer.Email != "" {
		sellerName := ""
		if p.Seller != nil {
			sellerName = p.Seller.DisplayName()
		}
		job := mailer.EmailJob{
			To:       buyer.Email,
			Template: mailtpl.PurchaseComplete,
			Data: mailtpl.NewPurchaseCompleteData(buyer.DisplayName(), buyer.Email,
				mailtpl.WithProduct(p.ID, p.Name, p.Price, sellerName),
				mailtpl.WithCompany(s.CompanyName, s.AppName, s.SupportURL),
				mailtpl.WithTime(time.Now()),
			),
		}
		c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		if err := s.Jobs.PublishJSON(c, job); err != nil {
			s.sideEffectFailed("email", p.ID, err)
		}
		cancel()
	}
	if s.Index != nil {
		if err := s.Index.Index(context.WithoutCancel(ctx), p); err != nil {
			s.sideEffectFailed("index", p.ID, err)
		}
	}
}

func (s *PurchaseService) sideEffectFailed(kind string, productID int64, err error) {
	s.Metrics.RecordSideEffectFailure(kind)
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"product_id": productID, "kind": kind}).Warn("post-purchase step failed")
	}
}

func (s *PurchaseService) recordPurchase(err error) {
	if errors.Is(err, apperror.ErrAccessDenied) || errors.Is(err, apperror.ErrNotFound) {
		s.Metrics.RecordPurchase(metrics.OutcomeRejected)
		return
	}
	s.Metrics.RecordPurchase(metrics.OutcomeError)
	if s.Logger != nil {
		s.Logger.WithError(err).Error("purchase failed")
	}
}
