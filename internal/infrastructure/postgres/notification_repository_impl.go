package postgres

import (
	"context"
	"fmt"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, message, type, is_read)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, n.UserID, n.Message, string(n.Type), n.IsRead)
	return row.Scan(&n.ID, &n.CreatedAt)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		n := &entity.Notification{}
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &typ, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = entity.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE user_id = $1 AND id = ANY($2) AND is_read = false
	`, userID, ids)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
