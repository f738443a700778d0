package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/utils"
)

// 上下文键
const (
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextSessionID = "sessionID"
	ContextToken     = "token"
)

// TokenValidator 校验访问令牌
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			Abort(c, apperrors.New(apperrors.ErrAuthentication, "缺少认证令牌"))
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			Abort(c, err)
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

// OptionalAuth 可选认证，令牌无效时按匿名处理
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c); token != "" {
			if claims, err := m.validator.ValidateToken(c.Request.Context(), token); err == nil {
				setClaims(c, claims, token)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *utils.JWTClaims, token string) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextSessionID, claims.SessionID)
	c.Set(ContextToken, token)
}

// ExtractToken 依次从 Authorization、X-Access-Token、Cookie 和 query 中取令牌。
// WebSocket 握手无法自定义请求头，只能走 query。
func ExtractToken(c *gin.Context) string {
	if bearer := c.GetHeader("Authorization"); bearer != "" {
		parts := strings.SplitN(bearer, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	return c.Query("token")
}

// Abort 以统一错误格式终止请求
func Abort(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	// 调用栈只写日志，不下发给客户端
	public := *appErr
	public.Stack = nil
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(&public, GetRequestID(c)))
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	if userID, exists := c.Get(ContextUserID); exists {
		if id, ok := userID.(uint); ok {
			return id, true
		}
	}
	return 0, false
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	if username, exists := c.Get(ContextUsername); exists {
		if name, ok := username.(string); ok {
			return name, true
		}
	}
	return "", false
}

// GetSessionID 从上下文获取会话ID
func GetSessionID(c *gin.Context) (string, bool) {
	if sessionID, exists := c.Get(ContextSessionID); exists {
		if id, ok := sessionID.(string); ok {
			return id, true
		}
	}
	return "", false
}

// IsAuthenticated 检查是否已认证
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ContextUserID)
	return exists
}
