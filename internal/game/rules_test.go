package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
)

// sequence 按顺序返回预设值（取模），用于确定性测试
type sequence struct {
	values []int
	i      int
}

func (s *sequence) Intn(n int) int {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v % n
}

func TestRollInitiative(t *testing.T) {
	// 点数依次为 5, 10, 5, 12
	r := &sequence{values: []int{3, 8, 3, 10}}
	rolls := RollInitiative(r, []uint{1, 2, 3, 4})

	require.Len(t, rolls, 4)
	assert.Equal(t, []uint{4, 2, 1, 3}, TurnOrder(rolls))
	assert.Equal(t, 12, rolls[0].Roll)
	assert.Equal(t, 5, rolls[2].Roll)
}

func TestRollInitiativeRange(t *testing.T) {
	d := NewSeededDice(7)
	for i := 0; i < 200; i++ {
		for _, r := range RollInitiative(d, []uint{1, 2}) {
			assert.GreaterOrEqual(t, r.Roll, 2)
			assert.LessOrEqual(t, r.Roll, 12)
		}
	}
}

func TestNextTurn(t *testing.T) {
	order := []uint{7, 3, 9}

	next, err := NextTurn(order, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), next)

	next, err = NextTurn(order, 9)
	require.NoError(t, err)
	assert.Equal(t, uint(7), next)

	_, err = NextTurn(order, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrGameStateError))

	_, err = NextTurn(nil, 1)
	assert.Error(t, err)
}

func TestRemoveFromOrder(t *testing.T) {
	cur := uint(3)
	order, next := RemoveFromOrder([]uint{7, 3, 9}, &cur, 3)
	assert.Equal(t, []uint{7, 9}, order)
	require.NotNil(t, next)
	assert.Equal(t, uint(9), *next)

	cur = 9
	order, next = RemoveFromOrder([]uint{7, 3, 9}, &cur, 9)
	assert.Equal(t, []uint{7, 3}, order)
	assert.Equal(t, uint(7), *next)

	cur = 7
	order, next = RemoveFromOrder([]uint{7, 3}, &cur, 3)
	assert.Equal(t, []uint{7}, order)
	assert.Equal(t, uint(7), *next)

	order, next = RemoveFromOrder([]uint{7}, &cur, 7)
	assert.Empty(t, order)
	assert.Nil(t, next)
}

func TestRollAndValidateDice(t *testing.T) {
	values := Roll(NewSeededDice(1), 6, 2)
	require.Len(t, values, 2)
	for _, v := range values {
		assert.True(t, v >= 1 && v <= 6)
	}

	assert.NoError(t, ValidateDice(6, 2))
	assert.Error(t, ValidateDice(1, 2))
	assert.Error(t, ValidateDice(6, 0))
	assert.Error(t, ValidateDice(6, 11))
}

func buildable(house int64) *models.Property {
	return &models.Property{
		BaseModel: models.BaseModel{ID: 1},
		HouseCost: decimal.NewNullDecimal(decimal.NewFromInt(house)),
		HotelCost: decimal.NewNullDecimal(decimal.NewFromInt(house)),
	}
}

func TestPlanBuild(t *testing.T) {
	prop := buildable(50)
	pp := &models.ParticipantProperty{ParticipantID: 1, PropertyID: 1}
	other := &models.ParticipantProperty{ParticipantID: 1, PropertyID: 2}
	group := []*models.ParticipantProperty{pp, other}

	for i := 1; i <= MaxHouses; i++ {
		plan, err := PlanBuild(pp, prop, group, 2)
		require.NoError(t, err)
		assert.True(t, plan.Amount.Equal(decimal.NewFromInt(50)))
		assert.False(t, plan.Hotel)
		pp.HouseCount, pp.HotelCount = plan.HouseCount, plan.HotelCount
	}
	assert.Equal(t, 4, pp.HouseCount)

	plan, err := PlanBuild(pp, prop, group, 2)
	require.NoError(t, err)
	assert.True(t, plan.Hotel)
	assert.Equal(t, 0, plan.HouseCount)
	assert.Equal(t, 1, plan.HotelCount)
	pp.HouseCount, pp.HotelCount = plan.HouseCount, plan.HotelCount

	_, err = PlanBuild(pp, prop, group, 2)
	assert.True(t, apperrors.Is(err, apperrors.ErrBuildingLimit))
}

func TestPlanBuildRequiresMonopoly(t *testing.T) {
	prop := buildable(100)
	pp := &models.ParticipantProperty{ParticipantID: 1, PropertyID: 1}

	_, err := PlanBuild(pp, prop, []*models.ParticipantProperty{pp}, 3)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoMonopoly))

	rival := &models.ParticipantProperty{ParticipantID: 2, PropertyID: 2}
	_, err = PlanBuild(pp, prop, []*models.ParticipantProperty{pp, rival}, 2)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoMonopoly))

	mortgaged := &models.ParticipantProperty{ParticipantID: 1, PropertyID: 2, IsMortgaged: true}
	_, err = PlanBuild(pp, prop, []*models.ParticipantProperty{pp, mortgaged}, 2)
	assert.True(t, apperrors.Is(err, apperrors.ErrPropertyMortgaged))

	rail := &models.Property{Price: decimal.NewFromInt(200)}
	_, err = PlanBuild(pp, rail, []*models.ParticipantProperty{pp}, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotBuildable))
}

func TestPlanSell(t *testing.T) {
	prop := buildable(150)

	plan, err := PlanSell(&models.ParticipantProperty{HotelCount: 1}, prop)
	require.NoError(t, err)
	assert.True(t, plan.Hotel)
	assert.Equal(t, 4, plan.HouseCount)
	assert.Equal(t, "75", plan.Amount.String())

	plan, err = PlanSell(&models.ParticipantProperty{HouseCount: 2}, prop)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.HouseCount)
	assert.Equal(t, "75", plan.Amount.String())

	_, err = PlanSell(&models.ParticipantProperty{}, prop)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoBuildings))
}

func TestCardRules(t *testing.T) {
	win := &models.Card{Type: models.DeckBoveda, Title: "Dobles", Color: models.CardColorGreen}
	passive := &models.Card{Type: models.DeckBoveda, Title: CardBank, Color: models.CardColorYellow}
	die := &models.Card{Type: models.DeckBoveda, Title: CardPurchaseDie, Color: models.CardColorYellow}
	red := &models.Card{Type: models.DeckBoveda, Title: "Propulsor", Color: models.CardColorRed}
	jail := &models.Card{Type: models.DeckArca, Title: "Sal de la Cárcel"}

	assert.True(t, IsInstantWin(win))
	assert.False(t, IsInstantWin(red))
	assert.Len(t, InstantWinTitles(), 7)

	assert.True(t, apperrors.Is(CheckUsable(passive), apperrors.ErrPassiveCard))
	assert.NoError(t, CheckUsable(die))
	assert.NoError(t, CheckUsable(red))

	assert.True(t, IsConsumable(red))
	assert.True(t, IsConsumable(jail))
	assert.False(t, IsConsumable(die))
	assert.False(t, IsConsumable(win))
}

func TestParseSpecialAction(t *testing.T) {
	a, err := ParseSpecialAction("buy")
	require.NoError(t, err)
	assert.Equal(t, ActionSteal, a)

	_, err = ParseSpecialAction("burn")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
}

func TestPickUnclaimed(t *testing.T) {
	pool := []*models.Card{
		{BaseModel: models.BaseModel{ID: 1}},
		{BaseModel: models.BaseModel{ID: 2}},
		{BaseModel: models.BaseModel{ID: 3}},
	}

	picked := PickUnclaimed(&sequence{values: []int{0}}, pool, []uint{1, 3})
	require.NotNil(t, picked)
	assert.Equal(t, uint(2), picked.ID)

	assert.Nil(t, PickUnclaimed(NewSeededDice(1), pool, []uint{1, 2, 3}))
}
