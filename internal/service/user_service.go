package service

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"go.uber.org/zap"
)

// userService 用户服务实现
type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

// GetUserByID 根据ID获取用户
func (s *userService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateNickname 修改昵称
func (s *userService) UpdateNickname(ctx context.Context, userID uint, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > 100 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "昵称长度需在 1-100 之间")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Nickname = nickname
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("更新昵称失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新昵称失败")
	}
	return user, nil
}
