package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/service"
)

// CardHandler 卡牌与宝库市场处理器
type CardHandler struct {
	cards service.CardService
	games service.GameService
}

// NewCardHandler 创建卡牌处理器
func NewCardHandler(cards service.CardService, games service.GameService) *CardHandler {
	return &CardHandler{cards: cards, games: games}
}

// DrawRequest 抽卡
type DrawRequest struct {
	Deck models.DeckType `json:"deck" binding:"required,oneof=arca fortuna"`
}

// SlotRequest 市场槽位
type SlotRequest struct {
	Slot *int `json:"slot" binding:"required"`
}

// Draw 从 arca 或 fortuna 抽一张
// @Summary 抽卡
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body DrawRequest true "牌堆"
// @Success 201 {object} Response{data=service.DrawResult}
// @Router /api/v1/games/{id}/cards/draw [post]
func (h *CardHandler) Draw(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req DrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.cards.Draw(c.Request.Context(), gameID, userID, req.Deck)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, res)
}

// Market 当前宝库市场
// @Summary 宝库市场
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.GameBovedaMarket}
// @Router /api/v1/games/{id}/market [get]
func (h *CardHandler) Market(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	slots, err := h.cards.GetMarket(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, slots)
}

// RefreshMarket 补满市场空位
// @Summary 刷新市场
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.GameBovedaMarket}
// @Router /api/v1/games/{id}/market/refresh [post]
func (h *CardHandler) RefreshMarket(c *gin.Context) {
	gameID, _, passed := member(c, h.games)
	if !passed {
		return
	}
	slots, err := h.cards.RefreshMarket(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, slots)
}

// BuyMarketCard 购买市场卡牌
// @Summary 购买市场卡牌
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body SlotRequest true "槽位"
// @Success 201 {object} Response{data=service.PurchaseResult}
// @Router /api/v1/games/{id}/market/buy [post]
func (h *CardHandler) BuyMarketCard(c *gin.Context) {
	h.withSlot(c, func(gameID, userID uint, slot int) (interface{}, error) {
		return h.cards.BuyMarketCard(c.Request.Context(), gameID, userID, slot)
	})
}

// ExchangeMarketCard 以手中宝库卡交换市场卡
// @Summary 交换市场卡牌
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body SlotRequest true "槽位"
// @Success 201 {object} Response{data=[]models.GameBovedaMarket}
// @Router /api/v1/games/{id}/market/exchange [post]
func (h *CardHandler) ExchangeMarketCard(c *gin.Context) {
	h.withSlot(c, func(gameID, userID uint, slot int) (interface{}, error) {
		return h.cards.ExchangeMarketCard(c.Request.Context(), gameID, userID, slot)
	})
}

func (h *CardHandler) withSlot(c *gin.Context, fn func(gameID, userID uint, slot int) (interface{}, error)) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := fn(gameID, userID, *req.Slot)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, res)
}

// Inventory 我的手牌
// @Summary 手牌
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.ParticipantCard}
// @Router /api/v1/games/{id}/inventory [get]
func (h *CardHandler) Inventory(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	cards, err := h.cards.Inventory(c.Request.Context(), gameID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cards)
}

// Use 使用手牌
// @Summary 使用卡牌
// @Description 被动卡不可主动使用；胜利卡直接结束游戏
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param cardId path int true "手牌ID"
// @Success 200 {object} Response{data=service.UseResult}
// @Router /api/v1/games/{id}/inventory/{cardId}/use [post]
func (h *CardHandler) Use(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	cardID, passed := uintParam(c, "cardId")
	if !passed {
		return
	}
	res, err := h.cards.UseCard(c.Request.Context(), gameID, userID, cardID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Discard 弃牌
// @Summary 弃牌
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param cardId path int true "手牌ID"
// @Success 200 {object} Response
// @Router /api/v1/games/{id}/inventory/{cardId} [delete]
func (h *CardHandler) Discard(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	cardID, passed := uintParam(c, "cardId")
	if !passed {
		return
	}
	if err := h.cards.Discard(c.Request.Context(), gameID, userID, cardID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Special 对他人卡牌执行 destroy/buy/exchange
// @Summary 特殊卡牌操作
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body service.SpecialActionRequest true "操作"
// @Success 200 {object} Response
// @Router /api/v1/games/{id}/cards/special [post]
func (h *CardHandler) Special(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req service.SpecialActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.cards.ExecuteSpecialAction(c.Request.Context(), gameID, userID, &req); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// UsageLogs 卡牌使用记录
// @Summary 卡牌使用记录
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param limit query int false "条数"
// @Success 200 {object} Response{data=[]models.CardUsageLog}
// @Router /api/v1/games/{id}/cards/logs [get]
func (h *CardHandler) UsageLogs(c *gin.Context) {
	gameID, _, passed := member(c, h.games)
	if !passed {
		return
	}
	logs, err := h.cards.UsageLogs(c.Request.Context(), gameID, intQuery(c, "limit", 50))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, logs)
}
