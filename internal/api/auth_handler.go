package api

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/middleware"
	"github.com/wfunc/monopoly-game/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// NicknameRequest 修改昵称请求
type NicknameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户并签发令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "注册信息"
// @Success 201 {object} Response{data=service.AuthResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, resp)
}

// Login 用户登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "登录信息"
// @Success 200 {object} Response{data=service.AuthResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// RefreshToken 刷新访问令牌
// @Summary 刷新访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "刷新令牌"
// @Success 200 {object} Response{data=service.AuthResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// GetProfile 当前用户信息
// @Summary 获取个人信息
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User}
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, user)
}

// UpdateProfile 修改昵称
// @Summary 修改昵称
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NicknameRequest true "新昵称"
// @Success 200 {object} Response{data=models.User}
// @Router /api/v1/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	var req NicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.UpdateNickname(c.Request.Context(), userID, req.Nickname)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, user)
}

// Logout 注销当前会话
// @Summary 注销
// @Description 当前会话的访问令牌与刷新令牌全部失效
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		fail(c, apperrors.New(apperrors.ErrTokenInvalid, "令牌缺少会话ID"))
		return
	}
	if err := h.authService.Logout(c.Request.Context(), userID, sessionID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChangePasswordRequest true "旧密码与新密码"
// @Success 200 {object} Response
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
