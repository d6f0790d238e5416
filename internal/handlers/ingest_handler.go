package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"
)

// IngestHandler receives forwarded school mail pushed by a mail provider
// webhook, as an alternative to the IMAP poller.
type IngestHandler struct {
	*BaseHandler
	ingestion    services.IngestionService
	notification services.NotificationService
	users        repositories.UserRepository
	rawMessages  repositories.RawMessageRepository
}

func NewIngestHandler(
	base *BaseHandler,
	ingestion services.IngestionService,
	notification services.NotificationService,
	users repositories.UserRepository,
	rawMessages repositories.RawMessageRepository,
) *IngestHandler {
	return &IngestHandler{
		BaseHandler:  base,
		ingestion:    ingestion,
		notification: notification,
		users:        users,
		rawMessages:  rawMessages,
	}
}

func (h *IngestHandler) RegisterRoutes(r *gin.RouterGroup) {
	ingest := r.Group("/ingest")
	{
		ingest.POST("/email", h.IngestEmail)
	}

	r.GET("/users/:userId/messages", h.ListMessages)
	r.POST("/users/:userId/briefing", h.RunBriefing)
}

func (h *IngestHandler) IngestEmail(c *gin.Context) {
	var msg dto.IncomingMessage
	if !h.BindAndValidateJSON(c, &msg) {
		return
	}

	result, err := h.ingestion.ProcessIncoming(c.Request.Context(), msg)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}

	c.JSON(status, result)
}

func (h *IngestHandler) ListMessages(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	messages, err := h.rawMessages.FindByUserID(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"total":    len(messages),
	})
}

// RunBriefing triggers the user's daily briefing on demand instead of waiting
// for the evening schedule.
func (h *IngestHandler) RunBriefing(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	user, err := h.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	notification, err := h.notification.PlanDailyBriefing(c.Request.Context(), user)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No events tomorrow, briefing skipped"})
		return
	}

	c.JSON(http.StatusCreated, notification)
}
