package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌签发方与类型
const (
	TokenIssuer  = "monopoly-game"
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// JWTClaims 玩家令牌声明
type JWTClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey          string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:          secretKey,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

func (j *JWTManager) sign(claims *JWTClaims, expiry time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    TokenIssuer,
		Subject:   claims.Username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// GenerateAccessToken 生成访问令牌
func (j *JWTManager) GenerateAccessToken(userID uint, username, sessionID string) (string, error) {
	return j.sign(&JWTClaims{
		UserID:    userID,
		Username:  username,
		SessionID: sessionID,
		TokenType: TokenAccess,
	}, j.accessTokenExpiry)
}

// GenerateRefreshToken 生成刷新令牌
func (j *JWTManager) GenerateRefreshToken(userID uint, sessionID string) (string, error) {
	return j.sign(&JWTClaims{
		UserID:    userID,
		SessionID: sessionID,
		TokenType: TokenRefresh,
	}, j.refreshTokenExpiry)
}

// ValidateToken 校验签名与有效期
func (j *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.secretKey), nil
	}, jwt.WithIssuer(TokenIssuer))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken 只接受访问令牌
func (j *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// RefreshAccessToken 使用刷新令牌生成新的访问令牌
func (j *JWTManager) RefreshAccessToken(refreshToken, username string) (string, *JWTClaims, error) {
	claims, err := j.ValidateToken(refreshToken)
	if err != nil {
		return "", nil, err
	}
	if claims.TokenType != TokenRefresh {
		return "", nil, ErrWrongTokenType
	}
	token, err := j.GenerateAccessToken(claims.UserID, username, claims.SessionID)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// GetTokenExpiry 获取令牌有效期
func (j *JWTManager) GetTokenExpiry(tokenType string) time.Duration {
	if tokenType == TokenRefresh {
		return j.refreshTokenExpiry
	}
	return j.accessTokenExpiry
}
