package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parentpal_backend/internal/models"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/internal/sms"
	"parentpal_backend/pkg/apperrors"
)

type UserHandler struct {
	*BaseHandler
	users repositories.UserRepository
}

func NewUserHandler(base *BaseHandler, users repositories.UserRepository) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		users:       users,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:userId", h.GetUser)
		users.PUT("/:userId", h.UpdateUser)
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	phone := req.SMSPhone
	if phone != "" {
		normalized, err := sms.ValidatePhone(phone)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError(err.Error()))
			return
		}
		phone = normalized
	}

	user := &models.User{
		Email:              req.Email,
		Name:               req.Name,
		CustomEmailAddress: req.CustomEmailAddress,
		SMSPhone:           phone,
		SMSEnabled:         req.SMSEnabled,
	}

	if err := h.users.Create(user); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.FindAll()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
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

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.ParseParamUint(c, "userId")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindAndValidateJSON(c, &req) {
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

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.CustomEmailAddress != nil {
		user.CustomEmailAddress = *req.CustomEmailAddress
	}
	if req.SMSPhone != nil {
		phone := *req.SMSPhone
		if phone != "" {
			normalized, err := sms.ValidatePhone(phone)
			if err != nil {
				apperrors.HandleError(c, apperrors.NewBadRequestError(err.Error()))
				return
			}
			phone = normalized
		}
		user.SMSPhone = phone
	}
	if req.SMSEnabled != nil {
		user.SMSEnabled = *req.SMSEnabled
	}

	if err := h.users.Update(user); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
