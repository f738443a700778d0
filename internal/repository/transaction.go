package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// BeginWithOptions 使用选项开始事务
	BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error)
	// WithTransaction 在事务中执行函数
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
	// WithTransactionOptions 使用选项在事务中执行函数
	WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx *Transaction) error) error
}

// TxOptions 事务选项
type TxOptions struct {
	// IsolationLevel 事务隔离级别
	IsolationLevel string
	// ReadOnly 是否只读事务
	ReadOnly bool
	// Timeout 事务超时时间（秒）
	Timeout int
}

// DefaultTxOptions 账本类操作至少使用可重复读
func DefaultTxOptions() *TxOptions {
	return &TxOptions{IsolationLevel: IsolationLevelRepeatableRead}
}

// Transaction 事务包装器
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	cancel     context.CancelFunc
	committed  bool
	rolledback bool

	// 事务中的仓储实例
	user        UserRepository
	gameSession GameSessionRepository
	participant ParticipantRepository
	ledger      LedgerRepository
	jackpot     JackpotRepository
	card        CardRepository
	property    PropertyRepository
	auction     AuctionRepository
	trade       TradeRepository
	dice        DiceRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	return m.BeginWithOptions(ctx, nil)
}

// BeginWithOptions 使用选项开始事务
func (m *txManager) BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error) {
	var cancel context.CancelFunc
	if opts != nil && opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Second)
	}

	// SQLite 只有一个写者，不接受隔离级别参数
	var sqlOpts []*sql.TxOptions
	if opts != nil && m.db.Dialector.Name() != "sqlite" {
		sqlOpts = append(sqlOpts, &sql.TxOptions{
			Isolation: isolationLevel(opts.IsolationLevel),
			ReadOnly:  opts.ReadOnly,
		})
	}

	tx := m.db.WithContext(ctx).Begin(sqlOpts...)
	if tx.Error != nil {
		if cancel != nil {
			cancel()
		}
		return nil, apperrors.Wrap(tx.Error, apperrors.ErrTransaction, "开启事务失败")
	}

	return &Transaction{
		tx:     tx,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions 使用选项在事务中执行函数
func (m *txManager) WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx *Transaction) error) error {
	tx, err := m.BeginWithOptions(ctx, opts)
	if err != nil {
		return err
	}

	// 确保事务被处理
	defer func() {
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
		if tx.cancel != nil {
			tx.cancel()
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Context 事务绑定的上下文
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction, "提交事务失败")
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// User 获取事务中的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = &userRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.user
}

// GameSession 获取事务中的游戏会话仓储
func (t *Transaction) GameSession() GameSessionRepository {
	if t.gameSession == nil {
		t.gameSession = &gameSessionRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.gameSession
}

// Participant 获取事务中的玩家仓储
func (t *Transaction) Participant() ParticipantRepository {
	if t.participant == nil {
		t.participant = &participantRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.participant
}

// Ledger 获取事务中的账本仓储
func (t *Transaction) Ledger() LedgerRepository {
	if t.ledger == nil {
		t.ledger = &ledgerRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.ledger
}

// Jackpot 获取事务中的奖池流水仓储
func (t *Transaction) Jackpot() JackpotRepository {
	if t.jackpot == nil {
		t.jackpot = &jackpotRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.jackpot
}

// Card 获取事务中的卡牌仓储
func (t *Transaction) Card() CardRepository {
	if t.card == nil {
		t.card = &cardRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.card
}

// Property 获取事务中的地产仓储
func (t *Transaction) Property() PropertyRepository {
	if t.property == nil {
		t.property = &propertyRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.property
}

// Auction 获取事务中的拍卖仓储
func (t *Transaction) Auction() AuctionRepository {
	if t.auction == nil {
		t.auction = &auctionRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.auction
}

// Trade 获取事务中的交易仓储
func (t *Transaction) Trade() TradeRepository {
	if t.trade == nil {
		t.trade = &tradeRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.trade
}

// Dice 获取事务中的掷骰仓储
func (t *Transaction) Dice() DiceRepository {
	if t.dice == nil {
		t.dice = &diceRepo{BaseRepo: &BaseRepo{db: t.tx}}
	}
	return t.dice
}

// SavePoint 创建保存点
func (t *Transaction) SavePoint(name string) error {
	return t.tx.SavePoint(name).Error
}

// RollbackToSavePoint 回滚到保存点
func (t *Transaction) RollbackToSavePoint(name string) error {
	return t.tx.RollbackTo(name).Error
}

// ClaimMarketSlot 在保存点内占用市场槽位。
// 槽位或卡牌已被占用时回滚到保存点并返回 false，事务本身仍可继续使用。
func (t *Transaction) ClaimMarketSlot(entry *models.GameBovedaMarket) (bool, error) {
	const savePoint = "market_slot"
	if err := t.SavePoint(savePoint); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrTransaction, "创建保存点失败")
	}

	err := t.Card().FillSlot(t.ctx, entry)
	if err == nil {
		return true, nil
	}
	if !apperrors.Is(err, apperrors.ErrCardClaimed) {
		return false, err
	}
	if rbErr := t.RollbackToSavePoint(savePoint); rbErr != nil {
		return false, apperrors.Wrap(rbErr, apperrors.ErrTransaction, "回滚保存点失败")
	}
	return false, nil
}

// TransactionHelper 事务辅助函数
type TransactionHelper struct {
	manager TransactionManager
}

// NewTransactionHelper 创建事务辅助器
func NewTransactionHelper(manager TransactionManager) *TransactionHelper {
	return &TransactionHelper{manager: manager}
}

// RunInReadOnlyTransaction 在只读事务中执行
func (h *TransactionHelper) RunInReadOnlyTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return h.manager.WithTransactionOptions(ctx, &TxOptions{ReadOnly: true}, fn)
}

// RunWithRetry 冲突类错误整体重试，maxRetries 为额外尝试次数
func (h *TransactionHelper) RunWithRetry(ctx context.Context, opts *TxOptions, maxRetries int, fn func(tx *Transaction) error) error {
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		err := h.manager.WithTransactionOptions(ctx, opts, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConflictError(err) {
			return err
		}
	}

	if _, ok := apperrors.As(lastErr); ok {
		return lastErr
	}
	return apperrors.Wrapf(lastErr, apperrors.ErrConflict, "事务执行失败，已重试%d次", maxRetries)
}

// IsConflictError 判断是否为并发冲突（唯一约束、死锁、序列化失败）
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.KindOf(err) == apperrors.KindConflict || driverConflict(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range conflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var conflictMarkers = []string{
	"unique constraint",
	"duplicate key",
	"duplicate entry",
	"deadlock",
	"could not serialize",
	"database is locked",
}

func isolationLevel(level string) sql.IsolationLevel {
	switch level {
	case IsolationLevelReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationLevelReadCommitted:
		return sql.LevelReadCommitted
	case IsolationLevelRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationLevelSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// 事务隔离级别常量
const (
	// IsolationLevelReadUncommitted 读未提交
	IsolationLevelReadUncommitted = "READ UNCOMMITTED"
	// IsolationLevelReadCommitted 读已提交
	IsolationLevelReadCommitted = "READ COMMITTED"
	// IsolationLevelRepeatableRead 可重复读
	IsolationLevelRepeatableRead = "REPEATABLE READ"
	// IsolationLevelSerializable 串行化
	IsolationLevelSerializable = "SERIALIZABLE"
)
