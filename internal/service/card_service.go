package service

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
)

// 卡牌使用日志的动作
const (
	usageUse     = "use"
	usageDiscard = "discard"
	usageDestroy = "destroy"
	usageSteal   = "steal"
	usageSwap    = "swap"
	usageDraw    = "draw"
)

// cardService 卡牌服务实现
type cardService struct {
	*core
}

// Draw 从 arca/fortuna 牌堆不放回抽卡，抽完后洗牌
func (s *cardService) Draw(ctx context.Context, gameID, userID uint, deck models.DeckType) (*DrawResult, error) {
	if !deck.Drawable() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "牌组 %s 不能抽取", deck)
	}

	var result *DrawResult
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}

		pool, err := u.tx.Card().FindByDeck(u.ctx, deck)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return apperrors.Newf(apperrors.ErrDeckEmpty, "牌组 %s 没有卡牌", deck)
		}

		drawn, err := u.tx.Card().DrawnIDs(u.ctx, g.ID, deck)
		if err != nil {
			return err
		}
		// 仍在手牌中的卡洗牌后也不能再抽出
		held, err := u.tx.Card().HeldCardIDs(u.ctx, g.ID, deck)
		if err != nil {
			return err
		}
		card := game.PickUnclaimed(s.dice, pool, append(drawn, held...))
		if card == nil {
			if err := u.tx.Card().ClearDrawn(u.ctx, g.ID, deck); err != nil {
				return err
			}
			card = game.PickUnclaimed(s.dice, pool, held)
		}
		if card == nil {
			return apperrors.Newf(apperrors.ErrDeckEmpty, "牌组 %s 的卡都在玩家手中", deck)
		}
		if err := u.tx.Card().MarkDrawn(u.ctx, g.ID, card.ID, deck); err != nil {
			return err
		}

		result = &DrawResult{Card: card}
		switch card.ActionType {
		case models.ActionKeep:
			pc := &models.ParticipantCard{GameID: g.ID, ParticipantID: p.ID, CardID: card.ID}
			if err := u.tx.Card().AddToInventory(u.ctx, pc); err != nil {
				return err
			}
			pc.Card = card
			result.Inventory = pc
		case models.ActionReceiveBank, models.ActionPayBank:
			if card.ActionValue == nil || *card.ActionValue <= 0 {
				break
			}
			t := transfer{Amount: decimalFromInt(*card.ActionValue), Description: card.Title}
			if card.ActionType == models.ActionReceiveBank {
				t.To = uintPtr(p.ID)
			} else {
				t.From = uintPtr(p.ID)
			}
			if result.Transaction, err = s.move(u, g, t); err != nil {
				return err
			}
		}

		u.emit(event.CardUsed, g.ID, &CardActivity{ParticipantID: p.ID, CardID: card.ID, Title: card.Title, Action: usageDraw})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("抽卡",
		zap.Uint("game_id", gameID),
		zap.String("deck", string(deck)),
		zap.String("title", result.Card.Title))
	return result, nil
}

// refill 补满空槽位，只从本局市场和手牌之外的 boveda 卡中抽取
func (s *cardService) refill(u *unit, gameID uint, exclude ...uint) ([]*models.GameBovedaMarket, bool, error) {
	slots, err := u.tx.Card().MarketSlots(u.ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	filled := make(map[int]bool, len(slots))
	for _, m := range slots {
		filled[m.SlotIndex] = true
	}
	if len(filled) >= s.cfg.MarketSize {
		return slots, false, nil
	}

	claimed, err := u.tx.Card().ClaimedBovedaIDs(u.ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	claimed = append(claimed, exclude...)
	pool, err := u.tx.Card().FindByDeck(u.ctx, models.DeckBoveda)
	if err != nil {
		return nil, false, err
	}

	changed := false
	exhausted := false
	for slot := 0; slot < s.cfg.MarketSize && !exhausted; slot++ {
		if filled[slot] {
			continue
		}
		for {
			card := game.PickUnclaimed(s.dice, pool, claimed)
			if card == nil {
				// 可用的 boveda 卡用完，剩余槽位保持为空
				exhausted = true
				break
			}
			claimed = append(claimed, card.ID)

			ok, err := u.tx.ClaimMarketSlot(&models.GameBovedaMarket{GameID: gameID, SlotIndex: slot, CardID: card.ID})
			if err != nil {
				return nil, false, err
			}
			if ok {
				changed = true
				break
			}
			// 槽位已被占用就换下一个槽位，否则换一张卡重试
			if _, err := u.tx.Card().FindSlot(u.ctx, gameID, slot); err == nil {
				changed = true
				break
			} else if !apperrors.Is(err, apperrors.ErrMarketSlotEmpty) {
				return nil, false, err
			}
		}
	}
	if !changed {
		return slots, false, nil
	}

	slots, err = u.tx.Card().MarketSlots(u.ctx, gameID)
	return slots, true, err
}

// GetMarket 返回市场，空槽位会被补满
func (s *cardService) GetMarket(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error) {
	return s.market(ctx, gameID, false)
}

// RefreshMarket 补满市场并通知
func (s *cardService) RefreshMarket(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error) {
	return s.market(ctx, gameID, true)
}

func (s *cardService) market(ctx context.Context, gameID uint, notify bool) ([]*models.GameBovedaMarket, error) {
	var slots []*models.GameBovedaMarket
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockGame(u, gameID)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			slots, err = u.tx.Card().MarketSlots(u.ctx, g.ID)
			return err
		}

		var changed bool
		if slots, changed, err = s.refill(u, g.ID); err != nil {
			return err
		}
		if changed || notify {
			u.emit(event.MarketUpdated, g.ID, slots)
		}
		return nil
	})
	return slots, err
}

func (s *cardService) checkSlot(slot int) error {
	if slot < 0 || slot >= s.cfg.MarketSize {
		return apperrors.Newf(apperrors.ErrInvalidParam, "槽位需在 0-%d 之间", s.cfg.MarketSize-1)
	}
	return nil
}

// BuyMarketCard 购买市场槽位中的卡。La Bóveda 持有者收取货款，持有者本人购买免费。
func (s *cardService) BuyMarketCard(ctx context.Context, gameID, userID uint, slot int) (*PurchaseResult, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		entry, err := u.tx.Card().FindSlot(u.ctx, g.ID, slot)
		if err != nil {
			return err
		}

		result = &PurchaseResult{}
		cost := entry.Card.Cost.Decimal
		holder, err := u.tx.Card().FindHolder(u.ctx, g.ID, models.DeckBoveda, game.CardVault)
		if err != nil {
			return err
		}
		waived := holder != nil && holder.ParticipantID == p.ID
		if !waived && cost.IsPositive() {
			t := transfer{
				From:        uintPtr(p.ID),
				Amount:      cost,
				Description: fmt.Sprintf("Bought Boveda Card: %s", entry.Card.Title),
			}
			if holder != nil {
				t.To = uintPtr(holder.ParticipantID)
			}
			if result.Transaction, err = s.move(u, g, t); err != nil {
				return err
			}
		}

		if err := u.tx.Card().ClearSlot(u.ctx, g.ID, slot); err != nil {
			return err
		}
		pc := &models.ParticipantCard{GameID: g.ID, ParticipantID: p.ID, CardID: entry.CardID}
		if err := u.tx.Card().AddToInventory(u.ctx, pc); err != nil {
			return err
		}
		pc.Card = entry.Card
		result.Inventory = pc

		if result.Market, _, err = s.refill(u, g.ID); err != nil {
			return err
		}
		u.emit(event.MarketUpdated, g.ID, result.Market)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("购买 boveda 卡",
		zap.Uint("game_id", gameID),
		zap.Uint("user_id", userID),
		zap.String("title", result.Inventory.Card.Title))
	return result, nil
}

// ExchangeMarketCard 换掉槽位中的卡，不收费
func (s *cardService) ExchangeMarketCard(ctx context.Context, gameID, userID uint, slot int) ([]*models.GameBovedaMarket, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}

	var slots []*models.GameBovedaMarket
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if _, err := s.participant(u, g.ID, userID); err != nil {
			return err
		}

		var exclude []uint
		entry, err := u.tx.Card().FindSlot(u.ctx, g.ID, slot)
		switch {
		case err == nil:
			exclude = append(exclude, entry.CardID)
			if err := u.tx.Card().ClearSlot(u.ctx, g.ID, slot); err != nil {
				return err
			}
		case !apperrors.Is(err, apperrors.ErrMarketSlotEmpty):
			return err
		}

		if slots, _, err = s.refill(u, g.ID, exclude...); err != nil {
			return err
		}
		u.emit(event.MarketUpdated, g.ID, slots)
		return nil
	})
	return slots, err
}

// Inventory 玩家手牌
func (s *cardService) Inventory(ctx context.Context, gameID, userID uint) ([]*models.ParticipantCard, error) {
	p, err := s.repos.Participant().FindByGameAndUser(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	return s.repos.Card().FindInventoryByParticipant(ctx, p.ID)
}

// ownedCard 校验手牌属于调用者
func (s *cardService) ownedCard(u *unit, gameID, participantID, inventoryID uint) (*models.ParticipantCard, error) {
	pc, err := u.tx.Card().FindInventory(u.ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if pc.GameID != gameID || pc.ParticipantID != participantID {
		return nil, apperrors.New(apperrors.ErrNotOwner, "该卡牌不在你的手牌中")
	}
	return pc, nil
}

// UseCard 使用手牌。获胜卡直接结束游戏，被动卡不能手动使用。
func (s *cardService) UseCard(ctx context.Context, gameID, userID, inventoryID uint) (*UseResult, error) {
	var result *UseResult
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		pc, err := s.ownedCard(u, g.ID, p.ID, inventoryID)
		if err != nil {
			return err
		}
		card := pc.Card
		if err := game.CheckUsable(card); err != nil {
			return err
		}

		if err := u.tx.Card().LogUsage(u.ctx, &models.CardUsageLog{
			GameID:        g.ID,
			ParticipantID: p.ID,
			CardID:        card.ID,
			Action:        usageUse,
			Description:   "Used card",
		}); err != nil {
			return err
		}
		u.emit(event.CardUsed, g.ID, &CardActivity{ParticipantID: p.ID, CardID: card.ID, Title: card.Title, Action: usageUse})

		result = &UseResult{Card: card}
		if game.IsInstantWin(card) {
			now := time.Now()
			g.Status = models.GameStatusFinished
			g.FinishedAt = &now
			if err := u.tx.GameSession().Update(u.ctx, g); err != nil {
				return err
			}
			result.Victory = true
			u.emit(event.GameUpdated, g.ID, g)
			return nil
		}

		if game.IsConsumable(card) {
			if err := u.tx.Card().RemoveInventory(u.ctx, pc.ID); err != nil {
				return err
			}
			result.Consumed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Victory {
		s.log.Info("获胜卡结束游戏",
			zap.Uint("game_id", gameID),
			zap.Uint("user_id", userID),
			zap.String("title", result.Card.Title))
	}
	return result, nil
}

// Discard 丢弃手牌
func (s *cardService) Discard(ctx context.Context, gameID, userID, inventoryID uint) error {
	return s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		pc, err := s.ownedCard(u, g.ID, p.ID, inventoryID)
		if err != nil {
			return err
		}
		if err := u.tx.Card().RemoveInventory(u.ctx, pc.ID); err != nil {
			return err
		}
		if err := u.tx.Card().LogUsage(u.ctx, &models.CardUsageLog{
			GameID:        g.ID,
			ParticipantID: p.ID,
			CardID:        pc.CardID,
			Action:        usageDiscard,
			Description:   "Discarded card",
		}); err != nil {
			return err
		}
		u.emit(event.CardUsed, g.ID, &CardActivity{ParticipantID: p.ID, CardID: pc.CardID, Title: pc.Card.Title, Action: usageDiscard})
		return nil
	})
}

// ExecuteSpecialAction 对其他玩家的手牌执行销毁、夺取或交换
func (s *cardService) ExecuteSpecialAction(ctx context.Context, gameID, userID uint, req *SpecialActionRequest) error {
	action, err := game.ParseSpecialAction(req.Action)
	if err != nil {
		return err
	}
	if action == game.ActionExchange && req.MyCardID == nil {
		return apperrors.New(apperrors.ErrInvalidParam, "交换需要指定自己的卡牌")
	}

	return s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		actor, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		target, err := u.tx.Card().FindInventory(u.ctx, req.TargetInventoryID)
		if err != nil {
			return err
		}
		if target.GameID != g.ID {
			return apperrors.New(apperrors.ErrNotFound, "目标卡牌不在该游戏中")
		}
		if target.ParticipantID == actor.ID {
			return apperrors.New(apperrors.ErrInvalidParam, "不能对自己的卡牌执行该操作")
		}

		var usage, desc string
		switch action {
		case game.ActionDestroy:
			if err := u.tx.Card().RemoveInventory(u.ctx, target.ID); err != nil {
				return err
			}
			usage, desc = usageDestroy, fmt.Sprintf("Destroyed %s", target.Card.Title)

		case game.ActionSteal:
			if err := s.moveCard(u, target, actor.ID); err != nil {
				return err
			}
			usage, desc = usageSteal, fmt.Sprintf("Took %s", target.Card.Title)

		case game.ActionExchange:
			mine, err := s.ownedCard(u, g.ID, actor.ID, *req.MyCardID)
			if err != nil {
				return err
			}
			if err := s.moveCard(u, target, actor.ID); err != nil {
				return err
			}
			if err := s.moveCard(u, mine, target.ParticipantID); err != nil {
				return err
			}
			usage, desc = usageSwap, fmt.Sprintf("Swapped %s for %s", mine.Card.Title, target.Card.Title)
		}

		if err := u.tx.Card().LogUsage(u.ctx, &models.CardUsageLog{
			GameID:        g.ID,
			ParticipantID: actor.ID,
			CardID:        target.CardID,
			Action:        usage,
			Description:   desc,
		}); err != nil {
			return err
		}
		u.emit(event.CardUsed, g.ID, &CardActivity{ParticipantID: actor.ID, CardID: target.CardID, Title: target.Card.Title, Action: usage})
		return nil
	})
}

// moveCard 将手牌转给另一位玩家
func (c *core) moveCard(u *unit, pc *models.ParticipantCard, to uint) error {
	if err := u.tx.Card().RemoveInventory(u.ctx, pc.ID); err != nil {
		return err
	}
	return u.tx.Card().AddToInventory(u.ctx, &models.ParticipantCard{
		GameID:        pc.GameID,
		ParticipantID: to,
		CardID:        pc.CardID,
	})
}

// UsageLogs 卡牌使用记录
func (s *cardService) UsageLogs(ctx context.Context, gameID uint, limit int) ([]*models.CardUsageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.Card().FindUsageLogs(ctx, gameID, limit)
}
