package service

import (
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/utils"
)

func (s *ServiceTestSuite) TestRegisterAndLogin() {
	resp, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: " lucia ", Password: "secreto1", Nickname: "Lu"})
	s.Require().NoError(err)
	s.Equal("lucia", resp.User.Username)
	s.Equal("Bearer", resp.TokenType)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal(int64(24*time.Hour/time.Second), resp.ExpiresIn)
	s.NotEqual("secreto1", resp.User.PasswordHash)

	_, err = s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "otraclave"})
	s.assertCode(err, apperrors.ErrAlreadyExists)

	login, err := s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)
	s.NotNil(login.User.LastLoginAt)

	claims, err := s.svc.Auth.ValidateToken(s.ctx, login.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)
	s.Equal("lucia", claims.Username)
	s.Equal(utils.TokenAccess, claims.TokenType)
}

func (s *ServiceTestSuite) TestRegisterValidation() {
	_, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "ab", Password: "secreto1"})
	s.assertCode(err, apperrors.ErrInvalidParam)

	_, err = s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "123"})
	s.assertCode(err, apperrors.ErrInvalidParam)
}

func (s *ServiceTestSuite) TestLoginFailures() {
	_, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)

	_, err = s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "incorrecto"})
	s.assertCode(err, apperrors.ErrAuthentication)
	_, err = s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "nadie", Password: "secreto1"})
	s.assertCode(err, apperrors.ErrAuthentication)

	s.Require().NoError(s.db.Model(&models.User{}).Where("username = ?", "lucia").Update("status", "banned").Error)
	_, err = s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "secreto1"})
	s.assertCode(err, apperrors.ErrPermissionDenied)
}

func (s *ServiceTestSuite) TestRefreshToken() {
	resp, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)

	refreshed, err := s.svc.Auth.RefreshToken(s.ctx, resp.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.RefreshToken, refreshed.RefreshToken)

	claims, err := s.svc.Auth.ValidateToken(s.ctx, refreshed.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)

	// 访问令牌不能用来刷新，刷新令牌也不能当访问令牌
	_, err = s.svc.Auth.RefreshToken(s.ctx, resp.AccessToken)
	s.assertCode(err, apperrors.ErrTokenInvalid)
	_, err = s.svc.Auth.ValidateToken(s.ctx, resp.RefreshToken)
	s.assertCode(err, apperrors.ErrTokenInvalid)
	_, err = s.svc.Auth.ValidateToken(s.ctx, "not-a-token")
	s.assertCode(err, apperrors.ErrTokenInvalid)
}

func (s *ServiceTestSuite) TestExpiredToken() {
	expired := utils.NewJWTManager(DefaultConfig().JWTSecret, -time.Minute, time.Hour)
	token, err := expired.GenerateAccessToken(1, "lucia", "sess")
	s.Require().NoError(err)

	_, err = s.svc.Auth.ValidateToken(s.ctx, token)
	s.assertCode(err, apperrors.ErrTokenExpired)
}

func (s *ServiceTestSuite) TestUpdateNickname() {
	user := s.newTable("lucia").users[0]

	updated, err := s.svc.User.UpdateNickname(s.ctx, user.ID, "  Lu  ")
	s.Require().NoError(err)
	s.Equal("Lu", updated.Nickname)

	got, err := s.svc.User.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Lu", got.Nickname)

	_, err = s.svc.User.UpdateNickname(s.ctx, user.ID, " ")
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.User.GetUserByID(s.ctx, 9999)
	s.assertCode(err, apperrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestLogoutRevokesSession() {
	resp, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)
	other, err := s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)

	claims, err := s.svc.Auth.ValidateToken(s.ctx, resp.AccessToken)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Auth.Logout(s.ctx, resp.User.ID, claims.SessionID))
	// 重复注销视为成功
	s.Require().NoError(s.svc.Auth.Logout(s.ctx, resp.User.ID, claims.SessionID))

	_, err = s.svc.Auth.ValidateToken(s.ctx, resp.AccessToken)
	s.assertCode(err, apperrors.ErrTokenInvalid)
	_, err = s.svc.Auth.RefreshToken(s.ctx, resp.RefreshToken)
	s.assertCode(err, apperrors.ErrTokenInvalid)

	// 其他会话不受影响
	_, err = s.svc.Auth.ValidateToken(s.ctx, other.AccessToken)
	s.NoError(err)

	user, err := s.svc.User.GetUserByID(s.ctx, resp.User.ID)
	s.Require().NoError(err)
	s.NotNil(user.LastLogoutAt)

	err = s.svc.Auth.Logout(s.ctx, resp.User.ID, "")
	s.assertCode(err, apperrors.ErrTokenInvalid)
}

func (s *ServiceTestSuite) TestChangePassword() {
	resp, err := s.svc.Auth.Register(s.ctx, &RegisterRequest{Username: "lucia", Password: "secreto1"})
	s.Require().NoError(err)
	userID := resp.User.ID

	err = s.svc.Auth.ChangePassword(s.ctx, userID, &ChangePasswordRequest{OldPassword: "incorrecto", NewPassword: "nuevaclave"})
	s.assertCode(err, apperrors.ErrAuthentication)
	err = s.svc.Auth.ChangePassword(s.ctx, userID, &ChangePasswordRequest{OldPassword: "secreto1", NewPassword: "123"})
	s.assertCode(err, apperrors.ErrInvalidParam)

	s.Require().NoError(s.svc.Auth.ChangePassword(s.ctx, userID, &ChangePasswordRequest{OldPassword: "secreto1", NewPassword: "nuevaclave"}))

	_, err = s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "secreto1"})
	s.assertCode(err, apperrors.ErrAuthentication)
	_, err = s.svc.Auth.Login(s.ctx, &LoginRequest{Username: "lucia", Password: "nuevaclave"})
	s.NoError(err)

	err = s.svc.Auth.ChangePassword(s.ctx, 9999, &ChangePasswordRequest{OldPassword: "x", NewPassword: "nuevaclave"})
	s.assertCode(err, apperrors.ErrNotFound)
}
