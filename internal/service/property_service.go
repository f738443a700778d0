package service

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
)

// propertyService 地产服务实现
type propertyService struct {
	*core
}

// Catalog 地产目录
func (s *propertyService) Catalog(ctx context.Context) ([]*models.Property, error) {
	return s.repos.Property().FindAll(ctx)
}

// Ownerships 本局地产归属
func (s *propertyService) Ownerships(ctx context.Context, gameID uint) ([]*models.ParticipantProperty, error) {
	return s.repos.Property().FindOwnershipsByGame(ctx, gameID)
}

// ownedBy 锁定归属记录并校验调用者为所有者
func (s *propertyService) ownedBy(u *unit, gameID, participantID, propertyID uint) (*models.ParticipantProperty, error) {
	pp, err := u.tx.Property().LockOwnership(u.ctx, gameID, propertyID)
	if err != nil {
		return nil, err
	}
	if pp == nil || pp.ParticipantID != participantID {
		return nil, apperrors.New(apperrors.ErrNotOwner, "你不拥有该地产")
	}
	return pp, nil
}

// mutate 公共流程：锁定游戏、解析调用者，再执行具体操作
func (s *propertyService) mutate(ctx context.Context, gameID, userID uint, fn func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error)) (*models.ParticipantProperty, error) {
	var result *models.ParticipantProperty
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		if result, err = fn(u, g, p); err != nil {
			return err
		}
		u.emit(event.PropertyUpdated, g.ID, result)
		return nil
	})
	return result, err
}

// Buy 按标价从银行购买未被占有的地产
func (s *propertyService) Buy(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error) {
	return s.mutate(ctx, gameID, userID, func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error) {
		prop, err := u.tx.Property().FindProperty(u.ctx, propertyID)
		if err != nil {
			return nil, err
		}
		existing, err := u.tx.Property().LockOwnership(u.ctx, g.ID, prop.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.Newf(apperrors.ErrPropertyOwned, "%s 已有主人", prop.Name)
		}

		if _, err := s.move(u, g, transfer{
			From:        uintPtr(p.ID),
			Amount:      prop.Price,
			Description: fmt.Sprintf("Bought %s", prop.Name),
		}); err != nil {
			return nil, err
		}

		pp := &models.ParticipantProperty{GameID: g.ID, PropertyID: prop.ID, ParticipantID: p.ID}
		if err := u.tx.Property().CreateOwnership(u.ctx, pp); err != nil {
			return nil, err
		}
		pp.Property = prop

		s.log.Info("购买地产",
			zap.Uint("game_id", g.ID),
			zap.Uint("participant_id", p.ID),
			zap.String("property", prop.Name))
		return pp, nil
	})
}

// Mortgage 抵押地产，银行支付抵押价
func (s *propertyService) Mortgage(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error) {
	return s.mutate(ctx, gameID, userID, func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error) {
		pp, err := s.ownedBy(u, g.ID, p.ID, propertyID)
		if err != nil {
			return nil, err
		}
		if pp.IsMortgaged {
			return nil, apperrors.New(apperrors.ErrPropertyMortgaged)
		}
		if pp.HasBuildings() {
			return nil, apperrors.New(apperrors.ErrHasBuildings, "抵押前需先出售建筑")
		}

		if _, err := s.move(u, g, transfer{
			To:          uintPtr(p.ID),
			Amount:      pp.Property.MortgageValue,
			Description: fmt.Sprintf("Mortgaged %s", pp.Property.Name),
		}); err != nil {
			return nil, err
		}
		pp.IsMortgaged = true
		return pp, u.tx.Property().SaveOwnership(u.ctx, pp)
	})
}

// Unmortgage 赎回地产
func (s *propertyService) Unmortgage(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error) {
	return s.mutate(ctx, gameID, userID, func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error) {
		pp, err := s.ownedBy(u, g.ID, p.ID, propertyID)
		if err != nil {
			return nil, err
		}
		if !pp.IsMortgaged {
			return nil, apperrors.New(apperrors.ErrPropertyNotMortgaged)
		}

		if _, err := s.move(u, g, transfer{
			From:        uintPtr(p.ID),
			Amount:      pp.Property.UnmortgageValue,
			Description: fmt.Sprintf("Unmortgaged %s", pp.Property.Name),
		}); err != nil {
			return nil, err
		}
		pp.IsMortgaged = false
		return pp, u.tx.Property().SaveOwnership(u.ctx, pp)
	})
}

// group 锁定色组内全部归属记录
func (s *propertyService) group(u *unit, gameID uint, prop *models.Property) ([]*models.ParticipantProperty, int, error) {
	props, err := u.tx.Property().FindByGroup(u.ctx, prop.ColorGroup)
	if err != nil {
		return nil, 0, err
	}
	owned := make([]*models.ParticipantProperty, 0, len(props))
	for _, gp := range props {
		pp, err := u.tx.Property().LockOwnership(u.ctx, gameID, gp.ID)
		if err != nil {
			return nil, 0, err
		}
		if pp != nil {
			owned = append(owned, pp)
		}
	}
	return owned, len(props), nil
}

// BuyBuilding 建造一栋房屋，第5栋升级为酒店
func (s *propertyService) BuyBuilding(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error) {
	return s.mutate(ctx, gameID, userID, func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error) {
		pp, err := s.ownedBy(u, g.ID, p.ID, propertyID)
		if err != nil {
			return nil, err
		}
		group, size, err := s.group(u, g.ID, pp.Property)
		if err != nil {
			return nil, err
		}
		plan, err := game.PlanBuild(pp, pp.Property, group, size)
		if err != nil {
			return nil, err
		}

		if _, err := s.move(u, g, transfer{
			From:        uintPtr(p.ID),
			Amount:      plan.Amount,
			Description: fmt.Sprintf("Bought Building for %s", pp.Property.Name),
		}); err != nil {
			return nil, err
		}
		pp.HouseCount, pp.HotelCount = plan.HouseCount, plan.HotelCount
		return pp, u.tx.Property().SaveOwnership(u.ctx, pp)
	})
}

// SellBuilding 出售一栋建筑，退还半价
func (s *propertyService) SellBuilding(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error) {
	return s.mutate(ctx, gameID, userID, func(u *unit, g *models.GameSession, p *models.Participant) (*models.ParticipantProperty, error) {
		pp, err := s.ownedBy(u, g.ID, p.ID, propertyID)
		if err != nil {
			return nil, err
		}
		plan, err := game.PlanSell(pp, pp.Property)
		if err != nil {
			return nil, err
		}

		desc := fmt.Sprintf("Sold House on %s", pp.Property.Name)
		if plan.Hotel {
			desc = fmt.Sprintf("Sold Hotel on %s", pp.Property.Name)
		}
		if plan.Amount.IsPositive() {
			if _, err := s.move(u, g, transfer{To: uintPtr(p.ID), Amount: plan.Amount, Description: desc}); err != nil {
				return nil, err
			}
		}
		pp.HouseCount, pp.HotelCount = plan.HouseCount, plan.HotelCount
		return pp, u.tx.Property().SaveOwnership(u.ctx, pp)
	})
}
