package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager("test-secret-key", time.Hour, 7*24*time.Hour)
}

func (suite *JWTTestSuite) TestAccessTokenRoundTrip() {
	token, err := suite.manager.GenerateAccessToken(7, "banquero", "session-7")
	suite.Require().NoError(err)

	claims, err := suite.manager.ValidateAccessToken(token)
	suite.Require().NoError(err)
	suite.Equal(uint(7), claims.UserID)
	suite.Equal("banquero", claims.Username)
	suite.Equal("session-7", claims.SessionID)
	suite.Equal(TokenAccess, claims.TokenType)
	suite.Equal(TokenIssuer, claims.Issuer)
	suite.Greater(claims.ExpiresAt.Unix(), claims.IssuedAt.Unix())
}

func (suite *JWTTestSuite) TestWrongSecret() {
	other := NewJWTManager("wrong-secret", time.Hour, time.Hour)
	token, _ := other.GenerateAccessToken(1, "user", "session")

	claims, err := suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)

	_, err = suite.manager.ValidateToken("invalid.token.format")
	suite.Error(err)
}

func (suite *JWTTestSuite) TestExpiredToken() {
	expired := NewJWTManager("test-secret-key", -time.Hour, -time.Hour)
	token, _ := expired.GenerateAccessToken(1, "user", "session")

	_, err := suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

func (suite *JWTTestSuite) TestRefreshTokenIsNotAccess() {
	refresh, err := suite.manager.GenerateRefreshToken(3, "session-3")
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateAccessToken(refresh)
	suite.ErrorIs(err, ErrWrongTokenType)
}

func (suite *JWTTestSuite) TestRefreshAccessToken() {
	refresh, _ := suite.manager.GenerateRefreshToken(222, "session-222")

	access, claims, err := suite.manager.RefreshAccessToken(refresh, "refreshuser")
	suite.Require().NoError(err)
	suite.Equal(uint(222), claims.UserID)

	parsed, err := suite.manager.ValidateAccessToken(access)
	suite.Require().NoError(err)
	suite.Equal("refreshuser", parsed.Username)
	suite.Equal("session-222", parsed.SessionID)

	// 访问令牌不能用来刷新
	_, _, err = suite.manager.RefreshAccessToken(access, "refreshuser")
	suite.ErrorIs(err, ErrWrongTokenType)
}

func (suite *JWTTestSuite) TestGetTokenExpiry() {
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry(TokenAccess))
	suite.Equal(7*24*time.Hour, suite.manager.GetTokenExpiry(TokenRefresh))
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry("unknown"))
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
