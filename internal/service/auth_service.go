package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"github.com/wfunc/monopoly-game/internal/utils"
	"go.uber.org/zap"
)

// authService 认证服务实现
type authService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 用户注册
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "用户名长度需在 3-50 之间")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidParam, err.Error())
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "用户名已存在")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "密码加密失败")
	}

	user := &models.User{
		Username:     username,
		Nickname:     strings.TrimSpace(req.Nickname),
		PasswordHash: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.log.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建用户失败")
	}

	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("登录失败：用户不存在", zap.String("username", req.Username))
			return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		s.log.Warn("登录失败：密码错误", zap.Uint("user_id", user.ID))
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}
	if !user.CanLogin() {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "用户已被封禁")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("更新登录时间失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.UpdateLoginInfo()

	s.log.Info("用户登录成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// issue 为新会话签发令牌对
func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成会话ID失败")
	}
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成访问令牌失败")
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成刷新令牌失败")
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenAccess).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// RefreshToken 用刷新令牌换取新的访问令牌，刷新令牌本身不变
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if claims.TokenType != utils.TokenRefresh {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是刷新令牌")
	}

	if err := s.checkSession(ctx, claims.SessionID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "用户不存在")
	}
	if err != nil {
		return nil, err
	}
	if !user.CanLogin() {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "用户已被封禁")
	}

	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, claims.SessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成访问令牌失败")
	}

	s.log.Info("令牌已刷新", zap.Uint("user_id", user.ID))
	return &AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenAccess).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 校验访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkSession(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkSession 拒绝已注销会话的令牌
func (s *authService) checkSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	revoked, err := s.userRepo.IsSessionRevoked(ctx, sessionID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询会话状态失败")
	}
	if revoked {
		return apperrors.New(apperrors.ErrTokenInvalid, "会话已注销")
	}
	return nil
}

// Logout 注销会话
func (s *authService) Logout(ctx context.Context, userID uint, sessionID string) error {
	if sessionID == "" {
		return apperrors.New(apperrors.ErrTokenInvalid, "令牌缺少会话ID")
	}
	if err := s.userRepo.RevokeSession(ctx, userID, sessionID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "注销会话失败")
	}
	s.log.Info("用户已注销", zap.Uint("user_id", userID), zap.String("session_id", sessionID))
	return nil
}

// ChangePassword 校验旧密码后更新
func (s *authService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := utils.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil || !ok {
		s.log.Warn("修改密码失败：旧密码错误", zap.Uint("user_id", userID))
		return apperrors.New(apperrors.ErrAuthentication, "旧密码错误")
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidParam, err.Error())
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrEncryption, "密码加密失败")
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新密码失败")
	}
	s.log.Info("密码已修改", zap.Uint("user_id", userID))
	return nil
}

func tokenError(err error) error {
	if errors.Is(err, utils.ErrExpiredToken) {
		return apperrors.New(apperrors.ErrTokenExpired)
	}
	return apperrors.Wrap(err, apperrors.ErrTokenInvalid)
}
