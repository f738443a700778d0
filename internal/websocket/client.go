package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/monopoly-game/internal/config"
	"github.com/wfunc/monopoly-game/internal/logger"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// 默认连接参数
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 256
)

// Options 连接参数
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		WriteWait:      writeWait,
		PongWait:       pongWait,
		PingPeriod:     pingPeriod,
		MaxMessageSize: maxMessageSize,
		SendBufferSize: sendBufferSize,
	}
}

// OptionsFromConfig 从配置构造连接参数，未设置的项使用默认值
func OptionsFromConfig(cfg config.WebSocketConfig) Options {
	o := DefaultOptions()
	if cfg.WriteTimeout > 0 {
		o.WriteWait = cfg.WriteTimeout
	}
	if cfg.PongTimeout > 0 {
		o.PongWait = cfg.PongTimeout
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < o.PongWait {
		o.PingPeriod = cfg.PingInterval
	} else {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if cfg.MaxMessageSize > 0 {
		o.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.SendBufferSize > 0 {
		o.SendBufferSize = cfg.SendBufferSize
	}
	return o
}

// Client 订阅单个游戏的WebSocket客户端
type Client struct {
	ID     string
	UserID uint
	GameID uint
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	opts   Options
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, userID, gameID uint, opts Options) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		GameID: gameID,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, opts.SendBufferSize),
		opts:   opts,
	}
}

// ReadPump 读取消息，连接断开时注销
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 每条事件单独成帧，客户端按 JSON 对象解析
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 连接只用于接收推送，客户端仅可发送心跳
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.Hub.logger.Warn("无效的WebSocket消息",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError("消息格式错误")
		return
	}
	logger.LogWebSocketMessage("receive", msg.Type, c.GameID)

	switch msg.Type {
	case MessageTypePing:
		c.Hub.SendToClient(c.ID, &Message{Type: MessageTypePong, GameID: c.GameID, Timestamp: time.Now().Unix()})
	case MessageTypePong:
	default:
		c.sendError("不支持的消息类型: " + msg.Type)
	}
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	c.Hub.SendToClient(c.ID, &Message{
		Type:      MessageTypeError,
		GameID:    c.GameID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
