package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 事务管理器
	txManager TransactionManager

	// 仓储实例（使用懒加载）
	userOnce sync.Once
	user     UserRepository

	gameSessionOnce sync.Once
	gameSession     GameSessionRepository

	participantOnce sync.Once
	participant     ParticipantRepository

	ledgerOnce sync.Once
	ledger     LedgerRepository

	jackpotOnce sync.Once
	jackpot     JackpotRepository

	cardOnce sync.Once
	card     CardRepository

	propertyOnce sync.Once
	property     PropertyRepository

	auctionOnce sync.Once
	auction     AuctionRepository

	tradeOnce sync.Once
	trade     TradeRepository

	diceOnce sync.Once
	dice     DiceRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Transaction 获取事务管理器
func (m *Manager) Transaction() TransactionManager {
	return m.txManager
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// GameSession 获取游戏会话仓储
func (m *Manager) GameSession() GameSessionRepository {
	m.gameSessionOnce.Do(func() {
		m.gameSession = NewGameSessionRepository(m.db)
	})
	return m.gameSession
}

// Participant 获取玩家仓储
func (m *Manager) Participant() ParticipantRepository {
	m.participantOnce.Do(func() {
		m.participant = NewParticipantRepository(m.db)
	})
	return m.participant
}

// Ledger 获取账本仓储
func (m *Manager) Ledger() LedgerRepository {
	m.ledgerOnce.Do(func() {
		m.ledger = NewLedgerRepository(m.db)
	})
	return m.ledger
}

// Jackpot 获取奖池流水仓储
func (m *Manager) Jackpot() JackpotRepository {
	m.jackpotOnce.Do(func() {
		m.jackpot = NewJackpotRepository(m.db)
	})
	return m.jackpot
}

// Card 获取卡牌仓储
func (m *Manager) Card() CardRepository {
	m.cardOnce.Do(func() {
		m.card = NewCardRepository(m.db)
	})
	return m.card
}

// Property 获取地产仓储
func (m *Manager) Property() PropertyRepository {
	m.propertyOnce.Do(func() {
		m.property = NewPropertyRepository(m.db)
	})
	return m.property
}

// Auction 获取拍卖仓储
func (m *Manager) Auction() AuctionRepository {
	m.auctionOnce.Do(func() {
		m.auction = NewAuctionRepository(m.db)
	})
	return m.auction
}

// Trade 获取交易仓储
func (m *Manager) Trade() TradeRepository {
	m.tradeOnce.Do(func() {
		m.trade = NewTradeRepository(m.db)
	})
	return m.trade
}

// Dice 获取掷骰仓储
func (m *Manager) Dice() DiceRepository {
	m.diceOnce.Do(func() {
		m.dice = NewDiceRepository(m.db)
	})
	return m.dice
}

// UnitOfWork 工作单元，在同一个事务里完成一组仓储操作
type UnitOfWork struct {
	manager *Manager
	opts    *TxOptions
}

// NewUnitOfWork 创建工作单元，默认使用可重复读
func (m *Manager) NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{manager: m, opts: DefaultTxOptions()}
}

// WithOptions 替换事务选项
func (u *UnitOfWork) WithOptions(opts *TxOptions) *UnitOfWork {
	u.opts = opts
	return u
}

// Execute 执行工作单元
func (u *UnitOfWork) Execute(ctx context.Context, fn func(tx *Transaction) error) error {
	return u.manager.txManager.WithTransactionOptions(ctx, u.opts, fn)
}

// Read 在只读事务中执行，多条查询共享同一快照
func (u *UnitOfWork) Read(ctx context.Context, fn func(tx *Transaction) error) error {
	return NewTransactionHelper(u.manager.txManager).RunInReadOnlyTransaction(ctx, fn)
}

// ExecuteWithRetry 冲突时整体重试一次
func (u *UnitOfWork) ExecuteWithRetry(ctx context.Context, fn func(tx *Transaction) error) error {
	return NewTransactionHelper(u.manager.txManager).RunWithRetry(ctx, u.opts, 1, fn)
}
