package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

type Inbox interface {
	ListForUser(ctx context.Context, userID int64) ([]*entity.Notification, error)
}

type NotificationHandler struct {
	Svc    Inbox
	Logger *logrus.Logger
}

func NewNotificationHandler(svc Inbox, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Logger: logger}
}

// List GET /notifications returns newest first and marks them read.
func (h *NotificationHandler) List(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	ns, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	unread := 0
	for _, n := range ns {
		if !n.IsRead {
			unread++
		}
	}
	response.Success(c, http.StatusOK, toNotificationViews(ns), "notifications", map[string]any{"count": len(ns), "unread": unread})
}
