package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/service"
)

// PropertyHandler 地产处理器
type PropertyHandler struct {
	properties service.PropertyService
}

// NewPropertyHandler 创建地产处理器
func NewPropertyHandler(properties service.PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

type propertyAction func(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)

// Catalog 地产目录
// @Summary 地产目录
// @Tags Property
// @Produce json
// @Success 200 {object} Response{data=[]models.Property}
// @Router /api/v1/properties [get]
func (h *PropertyHandler) Catalog(c *gin.Context) {
	props, err := h.properties.Catalog(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, props)
}

// Ownerships 本局地产归属
// @Summary 地产归属
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.ParticipantProperty}
// @Router /api/v1/games/{id}/properties [get]
func (h *PropertyHandler) Ownerships(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	rows, err := h.properties.Ownerships(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

// Buy 按标价购买
// @Summary 购买地产
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param propertyId path int true "地产ID"
// @Success 200 {object} Response{data=models.ParticipantProperty}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/properties/{propertyId}/buy [post]
func (h *PropertyHandler) Buy(c *gin.Context) {
	h.act(c, h.properties.Buy)
}

// Mortgage 抵押
// @Summary 抵押地产
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param propertyId path int true "地产ID"
// @Success 200 {object} Response{data=models.ParticipantProperty}
// @Router /api/v1/games/{id}/properties/{propertyId}/mortgage [post]
func (h *PropertyHandler) Mortgage(c *gin.Context) {
	h.act(c, h.properties.Mortgage)
}

// Unmortgage 赎回
// @Summary 赎回地产
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param propertyId path int true "地产ID"
// @Success 200 {object} Response{data=models.ParticipantProperty}
// @Router /api/v1/games/{id}/properties/{propertyId}/unmortgage [post]
func (h *PropertyHandler) Unmortgage(c *gin.Context) {
	h.act(c, h.properties.Unmortgage)
}

// BuyBuilding 加盖一栋房屋或酒店
// @Summary 建造
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param propertyId path int true "地产ID"
// @Success 200 {object} Response{data=models.ParticipantProperty}
// @Router /api/v1/games/{id}/properties/{propertyId}/build [post]
func (h *PropertyHandler) BuyBuilding(c *gin.Context) {
	h.act(c, h.properties.BuyBuilding)
}

// SellBuilding 半价卖出一栋
// @Summary 出售建筑
// @Tags Property
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param propertyId path int true "地产ID"
// @Success 200 {object} Response{data=models.ParticipantProperty}
// @Router /api/v1/games/{id}/properties/{propertyId}/sell-building [post]
func (h *PropertyHandler) SellBuilding(c *gin.Context) {
	h.act(c, h.properties.SellBuilding)
}

func (h *PropertyHandler) act(c *gin.Context, fn propertyAction) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	propertyID, passed := uintParam(c, "propertyId")
	if !passed {
		return
	}
	row, err := fn(c.Request.Context(), gameID, userID, propertyID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, row)
}
