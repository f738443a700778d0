package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// TransactionTestSuite 事务管理器测试套件
type TransactionTestSuite struct {
	suite.Suite
	db      *gorm.DB
	manager *Manager
	game    *models.GameSession
	alice   *models.Participant
	bob     *models.Participant
}

func (suite *TransactionTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.manager = NewManager(suite.db)
	host := CreateTestUser(suite.T(), suite.db, "alice")
	guest := CreateTestUser(suite.T(), suite.db, "bob")
	suite.game = CreateTestGame(suite.T(), suite.db, host)
	suite.alice = CreateTestParticipant(suite.T(), suite.db, suite.game.ID, host.ID, 1500)
	suite.bob = CreateTestParticipant(suite.T(), suite.db, suite.game.ID, guest.ID, 1500)
}

func (suite *TransactionTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *TransactionTestSuite) balance(id uint) decimal.Decimal {
	p, err := suite.manager.Participant().FindByID(context.Background(), id)
	suite.Require().NoError(err)
	return p.Balance
}

// TestTransaction_Commit 测试提交
func (suite *TransactionTestSuite) TestTransaction_Commit() {
	ctx := context.Background()

	err := suite.manager.NewUnitOfWork().Execute(ctx, func(tx *Transaction) error {
		locked, err := tx.Participant().LockByIDs(ctx, suite.bob.ID, suite.alice.ID, suite.bob.ID)
		if err != nil {
			return err
		}
		assert.Len(suite.T(), locked, 2)
		if err := tx.Participant().AddBalance(ctx, suite.alice.ID, decimal.NewFromInt(-200)); err != nil {
			return err
		}
		return tx.Participant().AddBalance(ctx, suite.bob.ID, decimal.NewFromInt(200))
	})
	suite.Require().NoError(err)

	assert.True(suite.T(), suite.balance(suite.alice.ID).Equal(decimal.NewFromInt(1300)))
	assert.True(suite.T(), suite.balance(suite.bob.ID).Equal(decimal.NewFromInt(1700)))
}

// TestTransaction_Rollback 测试出错回滚
func (suite *TransactionTestSuite) TestTransaction_Rollback() {
	ctx := context.Background()
	boom := errors.New("boom")

	err := suite.manager.NewUnitOfWork().Execute(ctx, func(tx *Transaction) error {
		if err := tx.Participant().AddBalance(ctx, suite.alice.ID, decimal.NewFromInt(-500)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(suite.T(), err, boom)
	assert.True(suite.T(), suite.balance(suite.alice.ID).Equal(decimal.NewFromInt(1500)))
}

// TestTransaction_NegativeBalance 测试允许负余额
func (suite *TransactionTestSuite) TestTransaction_NegativeBalance() {
	ctx := context.Background()
	suite.Require().NoError(suite.manager.Participant().AddBalance(ctx, suite.alice.ID, decimal.NewFromInt(-2000)))
	assert.True(suite.T(), suite.balance(suite.alice.ID).Equal(decimal.NewFromInt(-500)))
}

// TestTransaction_RetryOnConflict 测试冲突重试一次
func (suite *TransactionTestSuite) TestTransaction_RetryOnConflict() {
	ctx := context.Background()
	attempts := 0

	err := suite.manager.NewUnitOfWork().ExecuteWithRetry(ctx, func(tx *Transaction) error {
		attempts++
		if attempts == 1 {
			return apperrors.New(apperrors.ErrCardClaimed)
		}
		return nil
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 2, attempts)

	attempts = 0
	err = suite.manager.NewUnitOfWork().ExecuteWithRetry(ctx, func(tx *Transaction) error {
		attempts++
		return apperrors.New(apperrors.ErrNotYourTurn)
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrNotYourTurn))
	assert.Equal(suite.T(), 1, attempts)
}

// TestTransaction_ClaimMarketSlot 测试槽位冲突回滚到保存点后事务可继续
func (suite *TransactionTestSuite) TestTransaction_ClaimMarketSlot() {
	ctx := context.Background()
	vault := FindCardByTitle(suite.T(), suite.db, models.DeckBoveda, "La Bóveda")
	dice := FindCardByTitle(suite.T(), suite.db, models.DeckBoveda, "Dado de Compra")

	err := suite.manager.NewUnitOfWork().Execute(ctx, func(tx *Transaction) error {
		if err := tx.Card().FillSlot(ctx, &models.GameBovedaMarket{GameID: suite.game.ID, SlotIndex: 0, CardID: vault.ID}); err != nil {
			return err
		}

		ok, err := tx.ClaimMarketSlot(&models.GameBovedaMarket{GameID: suite.game.ID, SlotIndex: 1, CardID: vault.ID})
		suite.Require().NoError(err)
		assert.False(suite.T(), ok)

		ok, err = tx.ClaimMarketSlot(&models.GameBovedaMarket{GameID: suite.game.ID, SlotIndex: 0, CardID: dice.ID})
		suite.Require().NoError(err)
		assert.False(suite.T(), ok)

		ok, err = tx.ClaimMarketSlot(&models.GameBovedaMarket{GameID: suite.game.ID, SlotIndex: 1, CardID: dice.ID})
		suite.Require().NoError(err)
		assert.True(suite.T(), ok)
		return nil
	})
	suite.Require().NoError(err)

	slots, err := suite.manager.Card().MarketSlots(ctx, suite.game.ID)
	suite.Require().NoError(err)
	suite.Require().Len(slots, 2)
	byIndex := map[int]uint{}
	for _, s := range slots {
		byIndex[s.SlotIndex] = s.CardID
	}
	assert.Equal(suite.T(), vault.ID, byIndex[0])
	assert.Equal(suite.T(), dice.ID, byIndex[1])
}

// TestUnitOfWork_Read 测试只读事务内的多次查询
func (suite *TransactionTestSuite) TestUnitOfWork_Read() {
	ctx := context.Background()
	var players []*models.Participant
	err := suite.manager.NewUnitOfWork().Read(ctx, func(tx *Transaction) error {
		if _, err := tx.GameSession().FindByID(tx.Context(), suite.game.ID); err != nil {
			return err
		}
		var err error
		players, err = tx.Participant().FindByGame(tx.Context(), suite.game.ID)
		return err
	})
	suite.Require().NoError(err)
	assert.Len(suite.T(), players, 2)

	err = suite.manager.NewUnitOfWork().Read(ctx, func(tx *Transaction) error {
		_, err := tx.GameSession().FindByID(tx.Context(), 9999)
		return err
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrNotFound))
}

// TestIsConflictError 测试冲突识别
func TestIsConflictError(t *testing.T) {
	assert.True(t, IsConflictError(errors.New("UNIQUE constraint failed: drawn_cards.game_id")))
	assert.True(t, IsConflictError(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.True(t, IsConflictError(apperrors.New(apperrors.ErrConflict)))
	assert.False(t, IsConflictError(errors.New("no such table: foo")))
	assert.False(t, IsConflictError(nil))
}

func TestTransactionSuite(t *testing.T) {
	suite.Run(t, new(TransactionTestSuite))
}
