package service

import (
	"context"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"go.uber.org/zap"
)

// 账本固定描述
const (
	DescInitialFunding    = "Initial Funding"
	DescBankBonus         = "El Banco Bonus (Inflation)"
	DescBankOwnerPayment  = "El Banco Owner Payment (Inflation)"
	DescJackpotWin        = "Jackpot Win!"
	DescJackpotClaimEntry = "Jackpot claimed"
	DescReversalEntry     = "Transaction reversed"
)

// transfer 一笔待记账的资金移动，From/To 为空表示银行
type transfer struct {
	From        *uint
	To          *uint
	Amount      decimal.Decimal
	Description string
}

// move 记账核心：调用方须已锁定游戏行。
// 向银行付款时按 El Banco 持有者改写资金流向，收款方为空时计入奖池。
func (c *core) move(u *unit, g *models.GameSession, t transfer) (*models.Transaction, error) {
	if !t.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.ErrInvalidAmount, "金额必须大于0")
	}
	if t.From == nil && t.To == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "付款方与收款方不能同时为银行")
	}
	if t.From != nil && t.To != nil && *t.From == *t.To {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "不能转账给自己")
	}

	row := &models.Transaction{
		GameID:            g.ID,
		FromParticipantID: t.From,
		ToParticipantID:   t.To,
		Amount:            t.Amount,
		Description:       t.Description,
	}

	jackpotCredit := decimal.Zero
	jackpotKind := models.JackpotContribution
	jackpotDesc := t.Description

	if t.To == nil {
		holder, err := u.tx.Card().FindHolder(u.ctx, g.ID, models.DeckBoveda, game.CardBank)
		if err != nil {
			return nil, err
		}
		switch {
		case holder == nil:
			jackpotCredit = t.Amount
		case holder.ParticipantID != *t.From:
			row.ToParticipantID = uintPtr(holder.ParticipantID)
			u.inject(JackpotInjection{
				GameID:        g.ID,
				ParticipantID: holder.ParticipantID,
				Amount:        t.Amount,
				Description:   DescBankBonus,
			})
		default:
			// 持有者向银行付款免单，原金额仍计入奖池
			row.Amount = decimal.Zero
			jackpotCredit = t.Amount
			jackpotKind = models.JackpotOwnerPayment
			jackpotDesc = DescBankOwnerPayment
		}
	}

	if err := c.applyDeltas(u, g.ID, row.FromParticipantID, row.ToParticipantID, row.Amount); err != nil {
		return nil, err
	}

	if jackpotCredit.IsPositive() {
		if err := c.adjustJackpot(u, g, jackpotCredit, jackpotKind, row.FromParticipantID, jackpotDesc); err != nil {
			return nil, err
		}
	}

	if err := u.tx.Ledger().Create(u.ctx, row); err != nil {
		return nil, err
	}
	u.emit(event.TransactionCreated, g.ID, row)
	return row, nil
}

// applyDeltas 按 id 升序锁定双方后，from 减少、to 增加 amount，余额允许为负
func (c *core) applyDeltas(u *unit, gameID uint, from, to *uint, amount decimal.Decimal) error {
	ids := make([]uint, 0, 2)
	if from != nil {
		ids = append(ids, *from)
	}
	if to != nil {
		ids = append(ids, *to)
	}
	if len(ids) == 0 {
		return nil
	}

	locked, err := u.tx.Participant().LockByIDs(u.ctx, ids...)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.New(apperrors.ErrNotParticipant, "玩家不存在").WithCause(err)
	}
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, ok := locked[id]
		if !ok || p.GameID != gameID {
			return apperrors.Newf(apperrors.ErrNotParticipant, "玩家 %d 不在该游戏中", id)
		}
	}

	if amount.IsZero() {
		return nil
	}
	if from != nil {
		if err := u.tx.Participant().AddBalance(u.ctx, *from, amount.Neg()); err != nil {
			return err
		}
	}
	if to != nil {
		if err := u.tx.Participant().AddBalance(u.ctx, *to, amount); err != nil {
			return err
		}
	}
	return nil
}

// adjustJackpot 变更奖池余额并写入奖池流水，delta 可为负
func (c *core) adjustJackpot(u *unit, g *models.GameSession, delta decimal.Decimal, kind models.JackpotEntryKind, participantID *uint, description string) error {
	g.JackpotBalance = g.JackpotBalance.Add(delta)
	if err := u.tx.GameSession().UpdateJackpot(u.ctx, g.ID, g.JackpotBalance); err != nil {
		return err
	}
	return u.tx.Jackpot().Record(u.ctx, &models.JackpotEntry{
		GameID:        g.ID,
		ParticipantID: participantID,
		Kind:          kind,
		Amount:        delta,
		BalanceAfter:  g.JackpotBalance,
		Description:   description,
	})
}

// ledgerService 账本服务实现
type ledgerService struct {
	*core
}

// Transfer 付款方总是调用者本人，房主可以代表银行付款
func (s *ledgerService) Transfer(ctx context.Context, userID uint, req *TransferRequest) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, req.GameID)
		if err != nil {
			return err
		}

		var from *uint
		if req.FromBank {
			if !g.IsHost(userID) {
				return apperrors.New(apperrors.ErrNotHost, "只有房主可以代表银行付款")
			}
			if req.ToParticipantID == nil {
				return apperrors.New(apperrors.ErrInvalidParam, "银行付款必须指定收款玩家")
			}
		} else {
			p, err := s.participant(u, g.ID, userID)
			if err != nil {
				return err
			}
			from = uintPtr(p.ID)
		}

		result, err = s.move(u, g, transfer{
			From:        from,
			To:          req.ToParticipantID,
			Amount:      req.Amount,
			Description: req.Description,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("转账完成",
		zap.Uint("game_id", req.GameID),
		zap.Uint("transaction_id", result.ID),
		zap.String("amount", result.Amount.String()))
	return result, nil
}

// Execute 不做身份推导的原始记账
func (s *ledgerService) Execute(ctx context.Context, gameID uint, from, to *uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		result, err = s.move(u, g, transfer{From: from, To: to, Amount: amount, Description: description})
		return err
	})
	return result, err
}

// Get 查询单笔流水
func (s *ledgerService) Get(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	row, err := s.repos.Ledger().FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperrors.New(apperrors.ErrNotFound, "流水不存在")
	}
	return row, nil
}

// Delete 反向应用流水后物理删除，不存在的流水视为成功
func (s *ledgerService) Delete(ctx context.Context, transactionID uint) error {
	return s.run(ctx, func(u *unit) error {
		row, err := u.tx.Ledger().FindByID(u.ctx, transactionID)
		if err != nil || row == nil {
			return err
		}

		g, err := s.lockMutableGame(u, row.GameID)
		if err != nil {
			return err
		}

		// 反向：原收款方付出，原付款方收回；已离开的玩家不再记账
		to, err := s.remaining(u, row.ToParticipantID)
		if err != nil {
			return err
		}
		from, err := s.remaining(u, row.FromParticipantID)
		if err != nil {
			return err
		}
		if err := s.applyDeltas(u, g.ID, to, from, row.Amount); err != nil {
			return err
		}

		if row.ToParticipantID == nil && row.Amount.IsPositive() {
			debit := decimal.Min(row.Amount, g.JackpotBalance)
			if debit.IsPositive() {
				if err := s.adjustJackpot(u, g, debit.Neg(), models.JackpotReversal, row.FromParticipantID, DescReversalEntry); err != nil {
					return err
				}
			}
		}

		if err := u.tx.Ledger().Delete(u.ctx, row.ID); err != nil {
			return err
		}
		u.emit(event.TransactionDeleted, g.ID, row)
		return nil
	})
}

// remaining 玩家仍在游戏中时原样返回，已离开返回 nil
func (s *ledgerService) remaining(u *unit, participantID *uint) (*uint, error) {
	if participantID == nil {
		return nil, nil
	}
	_, err := u.tx.Participant().FindByID(u.ctx, *participantID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return participantID, nil
}

// ClaimJackpot 玩家领取全部奖池
func (s *ledgerService) ClaimJackpot(ctx context.Context, gameID, userID uint) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if !g.JackpotBalance.IsPositive() {
			return apperrors.New(apperrors.ErrJackpotEmpty)
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}

		amount := g.JackpotBalance
		to := uintPtr(p.ID)
		if err := s.applyDeltas(u, g.ID, nil, to, amount); err != nil {
			return err
		}
		if err := s.adjustJackpot(u, g, amount.Neg(), models.JackpotClaim, to, DescJackpotClaimEntry); err != nil {
			return err
		}

		result = &models.Transaction{
			GameID:          g.ID,
			ToParticipantID: to,
			Amount:          amount,
			Description:     DescJackpotWin,
		}
		if err := u.tx.Ledger().Create(u.ctx, result); err != nil {
			return err
		}
		u.emit(event.TransactionCreated, g.ID, result)
		u.emit(event.GameUpdated, g.ID, g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("奖池已领取",
		zap.Uint("game_id", gameID),
		zap.Uint("user_id", userID),
		zap.String("amount", result.Amount.String()))
	return result, nil
}

// List 分页查询流水，总数与当前页在同一个只读事务中读取
func (s *ledgerService) List(ctx context.Context, gameID uint, page, pageSize int) ([]*models.Transaction, *repository.Pagination, error) {
	p := repository.NewPagination(page, pageSize)
	var rows []*models.Transaction
	err := s.repos.NewUnitOfWork().Read(ctx, func(tx *repository.Transaction) error {
		if _, err := tx.GameSession().FindByID(tx.Context(), gameID); err != nil {
			return err
		}
		var err error
		rows, err = tx.Ledger().FindByGame(tx.Context(), gameID, p)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return rows, p, nil
}

// JackpotHistory 奖池流水
func (s *ledgerService) JackpotHistory(ctx context.Context, gameID uint, limit int) ([]*models.JackpotEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.Jackpot().FindByGame(ctx, gameID, limit)
}
