package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
)

type NotificationHandler struct {
	*BaseHandler
	notifications repositories.NotificationRepository
}

func NewNotificationHandler(base *BaseHandler, notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:   base,
		notifications: notifications,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:userId/notifications", h.ListNotifications)
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	var (
		records []models.Notification
		err     error
	)

	if c.Query("undelivered") == "true" {
		records, err = h.notifications.FindUndelivered(userID)
	} else {
		records, err = h.notifications.FindByUserID(userID)
	}
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": records,
		"total":         len(records),
	})
}
