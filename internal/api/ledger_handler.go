package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/service"
)

// LedgerHandler 账本处理器
type LedgerHandler struct {
	ledger service.LedgerService
	games  service.GameService
}

// NewLedgerHandler 创建账本处理器
func NewLedgerHandler(ledger service.LedgerService, games service.GameService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, games: games}
}

// TransferBody 转账请求体，游戏ID取自路径
type TransferBody struct {
	ToParticipantID *uint           `json:"to_participant_id"`
	FromBank        bool            `json:"from_bank"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	Description     string          `json:"description"`
}

// Transfer 转账
// @Summary 转账
// @Description 付款方为调用者本人；收款方为空表示付给银行（受 El Banco 影响）；from_bank 仅房主可用
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body TransferBody true "转账内容"
// @Success 201 {object} Response{data=models.Transaction}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/transactions [post]
func (h *LedgerHandler) Transfer(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var body TransferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	tx, err := h.ledger.Transfer(c.Request.Context(), userID, &service.TransferRequest{
		GameID:          gameID,
		ToParticipantID: body.ToParticipantID,
		FromBank:        body.FromBank,
		Amount:          body.Amount,
		Description:     body.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, tx)
}

// List 分页流水
// @Summary 流水列表
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} Response{data=[]models.Transaction}
// @Router /api/v1/games/{id}/transactions [get]
func (h *LedgerHandler) List(c *gin.Context) {
	gameID, _, passed := member(c, h.games)
	if !passed {
		return
	}
	rows, p, err := h.ledger.List(c.Request.Context(), gameID, intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, rows, p)
}

// Delete 撤销流水
// @Summary 撤销流水
// @Description 反向应用资金变动后删除流水
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param txId path int true "流水ID"
// @Success 200 {object} Response
// @Router /api/v1/games/{id}/transactions/{txId} [delete]
func (h *LedgerHandler) Delete(c *gin.Context) {
	gameID, _, passed := member(c, h.games)
	if !passed {
		return
	}
	txID, passed := uintParam(c, "txId")
	if !passed {
		return
	}

	row, err := h.ledger.Get(c.Request.Context(), txID)
	if err != nil {
		fail(c, err)
		return
	}
	if row.GameID != gameID {
		fail(c, apperrors.New(apperrors.ErrNotFound, "流水不存在"))
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), txID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// ClaimJackpot 领取奖池
// @Summary 领取奖池
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 201 {object} Response{data=models.Transaction}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/jackpot/claim [post]
func (h *LedgerHandler) ClaimJackpot(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	tx, err := h.ledger.ClaimJackpot(c.Request.Context(), gameID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, tx)
}

// JackpotHistory 奖池流水
// @Summary 奖池流水
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param limit query int false "条数，默认50"
// @Success 200 {object} Response{data=[]models.JackpotEntry}
// @Router /api/v1/games/{id}/jackpot [get]
func (h *LedgerHandler) JackpotHistory(c *gin.Context) {
	gameID, _, passed := member(c, h.games)
	if !passed {
		return
	}
	entries, err := h.ledger.JackpotHistory(c.Request.Context(), gameID, intQuery(c, "limit", 50))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entries)
}
