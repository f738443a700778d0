package game

import (
	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
)

// MaxHouses 升级酒店前的房屋上限
const MaxHouses = 4

var half = decimal.NewFromFloat(0.5)

// BuildPlan 一次建造或拆除的结果
type BuildPlan struct {
	Amount     decimal.Decimal
	HouseCount int
	HotelCount int
	Hotel      bool // 本次是否涉及酒店
}

// PlanBuild 计算建造一栋建筑的费用与结果。
// group 为该色组全部地产的归属记录，调用方需保证其属于同一局。
func PlanBuild(pp *models.ParticipantProperty, prop *models.Property, group []*models.ParticipantProperty, groupSize int) (*BuildPlan, error) {
	if !prop.Buildable() {
		return nil, apperrors.New(apperrors.ErrNotBuildable)
	}
	if err := CheckMonopoly(pp.ParticipantID, group, groupSize); err != nil {
		return nil, err
	}
	if pp.HotelCount > 0 {
		return nil, apperrors.New(apperrors.ErrBuildingLimit)
	}

	if pp.HouseCount >= MaxHouses {
		return &BuildPlan{
			Amount:     prop.HotelCost.Decimal,
			HouseCount: 0,
			HotelCount: 1,
			Hotel:      true,
		}, nil
	}
	return &BuildPlan{
		Amount:     prop.HouseCost.Decimal,
		HouseCount: pp.HouseCount + 1,
		HotelCount: 0,
	}, nil
}

// PlanSell 计算出售一栋建筑的退款，酒店降级为4栋房屋
func PlanSell(pp *models.ParticipantProperty, prop *models.Property) (*BuildPlan, error) {
	switch {
	case pp.HotelCount > 0:
		return &BuildPlan{
			Amount:     prop.HotelCost.Decimal.Mul(half),
			HouseCount: MaxHouses,
			HotelCount: 0,
			Hotel:      true,
		}, nil
	case pp.HouseCount > 0:
		return &BuildPlan{
			Amount:     prop.HouseCost.Decimal.Mul(half),
			HouseCount: pp.HouseCount - 1,
			HotelCount: 0,
		}, nil
	default:
		return nil, apperrors.New(apperrors.ErrNoBuildings)
	}
}

// CheckMonopoly 玩家必须拥有整个色组且均未抵押
func CheckMonopoly(participantID uint, group []*models.ParticipantProperty, groupSize int) error {
	if groupSize == 0 || len(group) < groupSize {
		return apperrors.New(apperrors.ErrNoMonopoly)
	}
	for _, owned := range group {
		if owned.ParticipantID != participantID {
			return apperrors.New(apperrors.ErrNoMonopoly)
		}
		if owned.IsMortgaged {
			return apperrors.New(apperrors.ErrPropertyMortgaged, "色组内有已抵押地产")
		}
	}
	return nil
}
