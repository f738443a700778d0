package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wfunc/monopoly-game/internal/service"
)

// AuctionHandler 拍卖处理器
type AuctionHandler struct {
	auctions service.AuctionService
}

// NewAuctionHandler 创建拍卖处理器
func NewAuctionHandler(auctions service.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctions: auctions}
}

// StartAuctionRequest 发起拍卖
type StartAuctionRequest struct {
	PropertyID uint `json:"property_id" binding:"required"`
}

// BidRequest 出价
type BidRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// Start 发起拍卖，每局同时只能有一场
// @Summary 发起拍卖
// @Tags Auction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body StartAuctionRequest true "地产"
// @Success 201 {object} Response{data=models.Auction}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/auctions [post]
func (h *AuctionHandler) Start(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req StartAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.auctions.Start(c.Request.Context(), gameID, userID, req.PropertyID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, a)
}

// Bid 出价
// @Summary 出价
// @Description 出价须高于当前最高价与底价
// @Tags Auction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param auctionId path int true "拍卖ID"
// @Param request body BidRequest true "金额"
// @Success 200 {object} Response{data=models.Auction}
// @Router /api/v1/games/{id}/auctions/{auctionId}/bid [post]
func (h *AuctionHandler) Bid(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	auctionID, passed := uintParam(c, "auctionId")
	if !passed {
		return
	}
	var req BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.auctions.PlaceBid(c.Request.Context(), auctionID, userID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

// End 结束拍卖并结算
// @Summary 结束拍卖
// @Tags Auction
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param auctionId path int true "拍卖ID"
// @Success 200 {object} Response{data=models.Auction}
// @Router /api/v1/games/{id}/auctions/{auctionId}/end [post]
func (h *AuctionHandler) End(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	auctionID, passed := uintParam(c, "auctionId")
	if !passed {
		return
	}
	a, err := h.auctions.End(c.Request.Context(), auctionID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

// Active 进行中的拍卖
// @Summary 进行中的拍卖
// @Tags Auction
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=models.Auction}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/auctions/active [get]
func (h *AuctionHandler) Active(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	a, err := h.auctions.Active(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

// List 本局全部拍卖
// @Summary 拍卖列表
// @Tags Auction
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.Auction}
// @Router /api/v1/games/{id}/auctions [get]
func (h *AuctionHandler) List(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	rows, err := h.auctions.List(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}
