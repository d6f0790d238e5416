package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parentpal_backend/internal/repositories"
	"parentpal_backend/pkg/apperrors"
)

type EventHandler struct {
	*BaseHandler
	events repositories.EventRepository
}

func NewEventHandler(base *BaseHandler, events repositories.EventRepository) *EventHandler {
	return &EventHandler{
		BaseHandler: base,
		events:      events,
	}
}

func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:userId/events", h.ListEvents)

	events := r.Group("/events")
	{
		events.GET("/:eventId", h.GetEvent)
		events.PUT("/:eventId/complete", h.MarkCompleted)
	}
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	events, err := h.events.FindByUserID(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := h.ParseParamUint(c, "eventId")
	if !ok {
		return
	}

	event, err := h.events.FindByID(eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) MarkCompleted(c *gin.Context) {
	eventID, ok := h.ParseParamUint(c, "eventId")
	if !ok {
		return
	}

	if err := h.events.MarkCompleted(eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event marked as completed"})
}
