package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/monopoly-game/internal/event"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	hub := NewHub(zap.NewNop(), 0)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

// join 注册客户端并消费连接成功消息，确保注册已完成
func join(t *testing.T, hub *Hub, userID, gameID uint) *Client {
	c := NewClient(hub, nil, userID, gameID, DefaultOptions())
	hub.Register(c)
	msg := receive(t, c)
	require.Equal(t, MessageTypeConnected, msg["type"])
	return c
}

func receive(t *testing.T, c *Client) map[string]interface{} {
	select {
	case data := <-c.Send:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("未收到消息")
		return nil
	}
}

func TestPublishFansOutPerGame(t *testing.T) {
	hub := startHub(t)
	a := join(t, hub, 1, 10)
	b := join(t, hub, 2, 10)
	other := join(t, hub, 3, 20)

	assert.Equal(t, 2, hub.GameClientCount(10))
	assert.Equal(t, 3, hub.GetOnlineCount())

	evt := event.New(event.TransactionCreated, 10, map[string]int{"amount": 50})
	require.NoError(t, hub.Publish(context.Background(), evt))

	for _, c := range []*Client{a, b} {
		m := receive(t, c)
		assert.Equal(t, "transaction_created", m["type"])
		assert.EqualValues(t, 10, m["game_id"])
	}
	assert.Len(t, other.Send, 0)
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	c := join(t, hub, 1, 10)

	hub.Unregister(c)
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return hub.GameClientCount(10) == 0 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, hub.SendToGame(10, "noop", []byte(`{}`)))
}

func TestPublishCancelledContext(t *testing.T) {
	hub := startHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, hub.Publish(ctx, event.New(event.GameUpdated, 1, nil)))
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	o := DefaultOptions()
	assert.Less(t, int64(o.PingPeriod), int64(o.PongWait))
	assert.Equal(t, sendBufferSize, o.SendBufferSize)
}
