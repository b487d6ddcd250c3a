package handler

import (
	"errors"
	"net/http"

	"experience_booking/internal/domain/user/service"
	"experience_booking/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginInput 登录输入：username 和 email 二选一
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Register 发起注册，发送验证邮件
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "All fields are required")
		return
	}

	if err := h.service.Register(c.Request.Context(), input.Username, input.Email, input.Password); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Error(c, http.StatusBadRequest, response.ErrUserExists, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	response.SuccessWithMessage(c, "Registration initiated! Please check your email to verify your account.", nil)
}

// VerifyEmail 验证邮箱并正式创建用户
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Token is required")
		return
	}

	user, err := h.service.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerifyToken):
			response.Error(c, http.StatusBadRequest, response.ErrVerifyFailed, err.Error())
		case errors.Is(err, service.ErrUserExists):
			response.Error(c, http.StatusBadRequest, response.ErrUserExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		}
		return
	}

	response.SuccessWithMessage(c, "Email verified successfully! You can now login.", gin.H{
		"user": gin.H{"id": user.ID, "username": user.Username, "email": user.Email},
	})
}

// Login 登录
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Email/Username and password are required")
		return
	}

	identifier := input.Username
	if identifier == "" {
		identifier = input.Email
	}
	if identifier == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Email/Username and password are required")
		return
	}

	token, user, err := h.service.Login(identifier, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusBadRequest, response.ErrAuthFailed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		}
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}
