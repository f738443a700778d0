package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/wfunc/monopoly-game/internal/config"
	"github.com/wfunc/monopoly-game/internal/service"
	"github.com/wfunc/monopoly-game/internal/websocket"
	"go.uber.org/zap"
)

// WSHandler 游戏事件订阅
type WSHandler struct {
	hub      *websocket.Hub
	games    service.GameService
	upgrader gws.Upgrader
	opts     websocket.Options
	log      *zap.Logger
}

// NewWSHandler 创建WebSocket处理器
func NewWSHandler(hub *websocket.Hub, games service.GameService, cfg config.WebSocketConfig, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:   hub,
		games: games,
		upgrader: gws.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许跨域，令牌校验已在握手前完成
			},
		},
		opts: websocket.OptionsFromConfig(cfg),
		log:  log,
	}
}

// Subscribe 升级为WebSocket并订阅指定游戏的事件
// @Summary 订阅游戏事件
// @Description 浏览器无法设置请求头，令牌通过 ?token= 传递
// @Tags WebSocket
// @Param id path int true "游戏ID"
// @Param token query string true "访问令牌"
// @Success 101
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /ws/games/{id} [get]
func (h *WSHandler) Subscribe(c *gin.Context) {
	gameID, userID, passed := member(c, h.games)
	if !passed {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket升级失败", zap.Uint("game_id", gameID), zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, userID, gameID, h.opts)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
