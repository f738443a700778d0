package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/service"
)

// TradeHandler 交易处理器
type TradeHandler struct {
	trades service.TradeService
}

// NewTradeHandler 创建交易处理器
func NewTradeHandler(trades service.TradeService) *TradeHandler {
	return &TradeHandler{trades: trades}
}

// Create 发起交易
// @Summary 发起交易
// @Tags Trade
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body service.TradeRequest true "交易内容"
// @Success 201 {object} Response{data=models.Trade}
// @Router /api/v1/games/{id}/trades [post]
func (h *TradeHandler) Create(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req service.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.trades.Create(c.Request.Context(), gameID, userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, t)
}

// Accept 接受交易（仅目标玩家）
// @Summary 接受交易
// @Tags Trade
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param tradeId path int true "交易ID"
// @Success 200 {object} Response{data=models.Trade}
// @Router /api/v1/games/{id}/trades/{tradeId}/accept [post]
func (h *TradeHandler) Accept(c *gin.Context) {
	h.resolve(c, true)
}

// Reject 拒绝或撤回交易
// @Summary 拒绝交易
// @Tags Trade
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param tradeId path int true "交易ID"
// @Success 200 {object} Response{data=models.Trade}
// @Router /api/v1/games/{id}/trades/{tradeId}/reject [post]
func (h *TradeHandler) Reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *TradeHandler) resolve(c *gin.Context, accept bool) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	tradeID, passed := uintParam(c, "tradeId")
	if !passed {
		return
	}

	var (
		t   *models.Trade
		err error
	)
	if accept {
		t, err = h.trades.Accept(c.Request.Context(), tradeID, userID)
	} else {
		t, err = h.trades.Reject(c.Request.Context(), tradeID, userID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, t)
}

// List 交易列表
// @Summary 交易列表
// @Tags Trade
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param status query string false "PENDING/ACCEPTED/REJECTED"
// @Success 200 {object} Response{data=[]models.Trade}
// @Router /api/v1/games/{id}/trades [get]
func (h *TradeHandler) List(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	rows, err := h.trades.List(c.Request.Context(), gameID, models.TradeStatus(c.Query("status")))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}
