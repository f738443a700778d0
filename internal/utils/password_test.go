package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// PasswordTestSuite 密码工具测试套件
type PasswordTestSuite struct {
	suite.Suite
}

func (suite *PasswordTestSuite) TestHashAndVerify() {
	hash, err := HashPassword("CorrectPassword456")
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("CorrectPassword456", hash)
	suite.NoError(err)
	suite.True(ok)

	ok, err = VerifyPassword("WrongPassword", hash)
	suite.NoError(err)
	suite.False(ok)
}

func (suite *PasswordTestSuite) TestSaltMakesHashesUnique() {
	h1, _ := HashPassword("SamePassword123")
	h2, _ := HashPassword("SamePassword123")
	suite.NotEqual(h1, h2)
}

func (suite *PasswordTestSuite) TestCustomConfig() {
	cfg := &PasswordConfig{Time: 2, Memory: 32 * 1024, Threads: 2, KeyLen: 16}
	hash, err := HashPasswordWithConfig("señor-monopoly", cfg)
	suite.Require().NoError(err)
	suite.Contains(hash, "m=32768,t=2,p=2")

	ok, err := VerifyPassword("señor-monopoly", hash)
	suite.NoError(err)
	suite.True(ok)
}

func (suite *PasswordTestSuite) TestMalformedHash() {
	for _, encoded := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b"} {
		ok, err := VerifyPassword("anything", encoded)
		suite.ErrorIs(err, ErrMalformedHash, encoded)
		suite.False(ok)
	}
}

func (suite *PasswordTestSuite) TestValidatePassword() {
	suite.Error(ValidatePassword("12345"))
	suite.NoError(ValidatePassword("123456"))
	suite.Error(ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)))
}

func (suite *PasswordTestSuite) TestGenerateSessionID() {
	a, err := GenerateSessionID()
	suite.Require().NoError(err)
	b, _ := GenerateSessionID()
	suite.Len(a, 32)
	suite.NotEqual(a, b)
}

func TestPasswordSuite(t *testing.T) {
	suite.Run(t, new(PasswordTestSuite))
}
