package application

import (
	"context"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

type NotificationService struct {
	Store repo.Repositories
	UoW   repo.UnitOfWork
}

func NewNotificationService(store repo.Repositories, uow repo.UnitOfWork) *NotificationService {
	return &NotificationService{Store: store, UoW: uow}
}

func (s *NotificationService) Notify(ctx context.Context, userID int64, typ entity.NotificationType, message string) (*entity.Notification, error) {
	if message == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, "message is required")
	}
	n := &entity.Notification{UserID: userID, Type: typ, Message: message}
	if err := s.Store.Notifications().Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListForUser returns notifications newest first and marks exactly those read.
// The returned items keep the read flag they had before this call.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	var list []*entity.Notification
	err := s.UoW.Do(ctx, func(tx repo.Repositories) error {
		var err error
		list, err = tx.Notifications().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		unread := make([]int64, 0, len(list))
		for _, n := range list {
			if !n.IsRead {
				unread = append(unread, n.ID)
			}
		}
		return tx.Notifications().MarkRead(ctx, userID, unread)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.Notification{}
	}
	return list, nil
}
