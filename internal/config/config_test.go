package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, float64(1500), c.Game.StartingBalance)
	assert.Equal(t, float64(10), c.Game.AuctionFloor)
	assert.Equal(t, 4, c.Game.JoinCodeLength)
	assert.Equal(t, "New Monopoly Game", c.Game.DefaultName)
	assert.Equal(t, 24*time.Hour, c.Scheduler.LobbyTTL)
	assert.Equal(t, "@every 10m", c.Scheduler.LobbySweep)
	assert.False(t, c.Broker.Enabled)
	assert.Equal(t, "monopoly.game", c.Broker.SubjectPrefix)
	assert.Equal(t, 10*time.Second, c.WebSocket.WriteTimeout)
}
