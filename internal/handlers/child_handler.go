package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"
)

type ChildHandler struct {
	*BaseHandler
	children repositories.ChildRepository
	custody  repositories.CustodyRepository
}

func NewChildHandler(base *BaseHandler, children repositories.ChildRepository, custody repositories.CustodyRepository) *ChildHandler {
	return &ChildHandler{
		BaseHandler: base,
		children:    children,
		custody:     custody,
	}
}

func (h *ChildHandler) RegisterRoutes(r *gin.RouterGroup) {
	children := r.Group("/users/:userId/children")
	{
		children.POST("", h.CreateChild)
		children.GET("", h.ListChildren)
		children.PUT("/:childId", h.UpdateChild)
		children.DELETE("/:childId", h.DeleteChild)
		children.GET("/:childId/custody", h.GetCustodySchedule)
		children.PUT("/:childId/custody", h.SetCustodySchedule)
	}
}

func (h *ChildHandler) CreateChild(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	var req dto.CreateChildRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	child := &models.Child{
		UserID: userID,
		Name:   req.Name,
		School: req.School,
		Grade:  req.Grade,
	}

	if err := h.children.Create(child); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, child)
}

func (h *ChildHandler) ListChildren(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	children, err := h.children.FindByUserID(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"children": children,
		"total":    len(children),
	})
}

func (h *ChildHandler) UpdateChild(c *gin.Context) {
	child, ok := h.loadChild(c)
	if !ok {
		return
	}

	var req dto.UpdateChildRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if req.Name != nil {
		child.Name = *req.Name
	}
	if req.School != nil {
		child.School = *req.School
	}
	if req.Grade != nil {
		child.Grade = *req.Grade
	}

	if err := h.children.Update(child); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, child)
}

func (h *ChildHandler) DeleteChild(c *gin.Context) {
	child, ok := h.loadChild(c)
	if !ok {
		return
	}

	if err := h.children.Delete(child.ID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Child deleted successfully"})
}

func (h *ChildHandler) GetCustodySchedule(c *gin.Context) {
	child, ok := h.loadChild(c)
	if !ok {
		return
	}

	entries, err := h.custody.FindByChild(child.UserID, child.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"child_id": child.ID,
		"days":     entries,
	})
}

// SetCustodySchedule upserts a weekday-by-weekday schedule for the child.
// Days not included in the request keep their current value.
func (h *ChildHandler) SetCustodySchedule(c *gin.Context) {
	child, ok := h.loadChild(c)
	if !ok {
		return
	}

	var req dto.SetCustodyScheduleRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	for _, day := range req.Days {
		entry := &models.CustodyEntry{
			UserID:    child.UserID,
			ChildID:   child.ID,
			DayOfWeek: day.DayOfWeek,
			HasChild:  day.HasChild,
		}
		if err := h.custody.Upsert(entry); err != nil {
			h.HandleServiceError(c, err)
			return
		}
	}

	entries, err := h.custody.FindByChild(child.UserID, child.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"child_id": child.ID,
		"days":     entries,
	})
}

// loadChild resolves the :userId/:childId pair and verifies ownership.
func (h *ChildHandler) loadChild(c *gin.Context) (*models.Child, bool) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return nil, false
	}
	childID, ok := h.ParseParamUint(c, "childId")
	if !ok {
		return nil, false
	}

	child, err := h.children.FindByID(childID)
	if err != nil {
		if errors.Is(err, repositories.ErrChildNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return nil, false
		}
		h.HandleServiceError(c, err)
		return nil, false
	}

	if child.UserID != userID {
		apperrors.HandleError(c, apperrors.ErrNotFound(repositories.ErrChildNotFound))
		return nil, false
	}

	return child, true
}
