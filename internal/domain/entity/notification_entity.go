package entity

import "time"

type NotificationType string

const (
	NotificationPurchaseComplete NotificationType = "PURCHASE_COMPLETE"
	NotificationProductLiked     NotificationType = "PRODUCT_LIKED"
)

type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
