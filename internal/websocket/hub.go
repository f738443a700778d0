package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/logger"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心，按游戏分组推送事件
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 游戏ID到客户端的映射
	gameClients map[uint]map[string]*Client
	gameMu      sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	heartbeat time.Duration
	done      chan struct{}
	stopOnce  sync.Once

	logger *zap.Logger
}

// Message WebSocket消息，与 event.Event 的线上格式一致
type Message struct {
	Type      string          `json:"type"`
	GameID    uint            `json:"game_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// 系统消息类型
const (
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"
)

// NewHub 创建Hub，heartbeat 为0时不发送应用层心跳
func NewHub(log *zap.Logger, heartbeat time.Duration) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:     make(map[string]*Client),
		gameClients: make(map[uint]map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		heartbeat:   heartbeat,
		done:        make(chan struct{}),
		logger:      log,
	}
}

// Run 运行Hub，直到 Stop 被调用
func (h *Hub) Run() {
	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-tick:
			h.ping()

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop 停止Hub并关闭全部连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.gameMu.Lock()
	if h.gameClients[client.GameID] == nil {
		h.gameClients[client.GameID] = make(map[string]*Client)
	}
	h.gameClients[client.GameID][client.ID] = client
	h.gameMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Uint("game_id", client.GameID))

	h.SendToClient(client.ID, &Message{
		Type:      MessageTypeConnected,
		GameID:    client.GameID,
		Timestamp: time.Now().Unix(),
		Data:      json.RawMessage(`{"message":"连接成功"}`),
	})
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.gameMu.Lock()
	if group, ok := h.gameClients[client.GameID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(h.gameClients, client.GameID)
		}
	}
	h.gameMu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Uint("game_id", client.GameID))
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.clientsMu.Unlock()

	h.gameMu.Lock()
	h.gameClients = make(map[uint]map[string]*Client)
	h.gameMu.Unlock()
}

func (h *Hub) ping() {
	data, _ := json.Marshal(&Message{Type: MessageTypePing, Timestamp: time.Now().Unix()})

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Publish 实现 event.Publisher，将事件推送给订阅该游戏的全部客户端
func (h *Hub) Publish(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := evt.Marshal()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}
	h.SendToGame(evt.GameID, string(evt.Type), data)
	return nil
}

// SendToGame 推送给指定游戏的全部客户端，返回成功入队的客户端数
func (h *Hub) SendToGame(gameID uint, msgType string, data []byte) int {
	// 持有 clientsMu 读锁，避免与注销时关闭通道并发
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	h.gameMu.RLock()
	group := h.gameClients[gameID]
	targets := make([]*Client, 0, len(group))
	for _, c := range group {
		targets = append(targets, c)
	}
	h.gameMu.RUnlock()

	sent := 0
	for _, client := range targets {
		if _, ok := h.clients[client.ID]; !ok {
			continue
		}
		select {
		case client.Send <- data:
			sent++
			logger.LogWebSocketMessage("send", msgType, gameID)
		default:
			h.logger.Warn("游戏客户端发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.Uint("game_id", gameID))
		}
	}
	return sent
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// GameClientCount 指定游戏的在线连接数
func (h *Hub) GameClientCount(gameID uint) int {
	h.gameMu.RLock()
	defer h.gameMu.RUnlock()
	return len(h.gameClients[gameID])
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
