package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"go.uber.org/zap"
)

// 文件库多连接并发转账，资金总量守恒且无丢失更新
func TestConcurrentTransfersConserveMoney(t *testing.T) {
	db := repository.SetupFileTestDB(t)
	svc := NewServices(db, DefaultConfig(), event.NewRecorder(), zap.NewNop())
	defer svc.Close()
	ctx := context.Background()

	ana := repository.CreateTestUser(t, db, "ana")
	beto := repository.CreateTestUser(t, db, "beto")
	g, err := svc.Game.Create(ctx, ana.ID, "Mesa concurrente")
	require.NoError(t, err)
	_, err = svc.Game.Join(ctx, g.ID, beto.ID)
	require.NoError(t, err)

	players, err := svc.Game.Participants(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	anaID, betoID := players[0].ID, players[1].ID

	type op struct {
		userID uint
		to     *uint
		amount int64
	}
	var ops []op
	for i := 0; i < 10; i++ {
		ops = append(ops,
			op{userID: ana.ID, to: &betoID, amount: 7},
			op{userID: beto.ID, to: &anaID, amount: 3},
			op{userID: beto.ID, amount: 5},
		)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ops))
	for _, o := range ops {
		wg.Add(1)
		go func(o op) {
			defer wg.Done()
			_, err := svc.Ledger.Transfer(ctx, o.userID, &TransferRequest{
				GameID:          g.ID,
				ToParticipantID: o.to,
				Amount:          decimal.NewFromInt(o.amount),
			})
			errs <- err
		}(o)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	balanceOf := func(id uint) decimal.Decimal {
		var p models.Participant
		require.NoError(t, db.First(&p, id).Error)
		return p.Balance
	}
	anaBalance, betoBalance := balanceOf(anaID), balanceOf(betoID)
	after, err := svc.Game.Get(ctx, g.ID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1460).Equal(anaBalance), anaBalance.String())
	assert.True(t, decimal.NewFromInt(1490).Equal(betoBalance), betoBalance.String())
	assert.True(t, decimal.NewFromInt(50).Equal(after.JackpotBalance), after.JackpotBalance.String())
	assert.True(t, decimal.NewFromInt(3000).Equal(anaBalance.Add(betoBalance).Add(after.JackpotBalance)))

	var rows int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("game_id = ?", g.ID).Count(&rows).Error)
	assert.EqualValues(t, 32, rows)
}
