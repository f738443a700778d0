package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/service"
)

// GameHandler 游戏会话处理器
type GameHandler struct {
	games service.GameService
	dice  service.DiceService
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(games service.GameService, dice service.DiceService) *GameHandler {
	return &GameHandler{games: games, dice: dice}
}

// CreateGameRequest 创建游戏
type CreateGameRequest struct {
	Name string `json:"name"`
}

// JoinCodeRequest 邀请码加入
type JoinCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// PositionRequest 更新位置
type PositionRequest struct {
	Position *int `json:"position" binding:"required"`
}

// RollRequest 掷骰参数，缺省为两颗六面骰
type RollRequest struct {
	Sides int `json:"sides"`
	Count int `json:"count"`
}

// Create 创建游戏
// @Summary 创建游戏
// @Description 调用者成为房主并以初始资金入座
// @Tags Game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGameRequest false "游戏名称"
// @Success 201 {object} Response{data=models.GameSession}
// @Router /api/v1/games [post]
func (h *GameHandler) Create(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	var req CreateGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	g, err := h.games.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, g)
}

// Get 游戏详情
// @Summary 游戏详情
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=models.GameSession}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id} [get]
func (h *GameHandler) Get(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	g, err := h.games.Get(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, g)
}

// Update 修改名称或状态（仅房主）
// @Summary 修改游戏
// @Description 状态流转：WAITING→ACTIVE/CANCELLED，ACTIVE↔PAUSED，ACTIVE/PAUSED→FINISHED
// @Tags Game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body service.UpdateGameRequest true "修改内容"
// @Success 200 {object} Response{data=models.GameSession}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id} [patch]
func (h *GameHandler) Update(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req service.UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.games.Update(c.Request.Context(), gameID, userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, g)
}

// Delete 删除游戏（仅房主）
// @Summary 删除游戏
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response
// @Router /api/v1/games/{id} [delete]
func (h *GameHandler) Delete(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	if err := h.games.Delete(c.Request.Context(), gameID, userID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Join 按ID加入
// @Summary 加入游戏
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 201 {object} Response{data=models.Participant}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/join [post]
func (h *GameHandler) Join(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	p, err := h.games.Join(c.Request.Context(), gameID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, p)
}

// JoinWithCode 按邀请码加入
// @Summary 邀请码加入
// @Tags Game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body JoinCodeRequest true "邀请码"
// @Success 201 {object} Response{data=models.Participant}
// @Router /api/v1/lobby/join [post]
func (h *GameHandler) JoinWithCode(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	var req JoinCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.games.JoinWithCode(c.Request.Context(), req.Code, userID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, p)
}

// Leave 离开游戏
// @Summary 离开游戏
// @Description 房主不能离开，只能删除游戏
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response
// @Router /api/v1/games/{id}/leave [post]
func (h *GameHandler) Leave(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	if err := h.games.Leave(c.Request.Context(), gameID, userID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// EndTurn 结束回合
// @Summary 结束回合
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=models.GameSession}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/end-turn [post]
func (h *GameHandler) EndTurn(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	g, err := h.games.EndTurn(c.Request.Context(), gameID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, g)
}

// UpdatePosition 更新棋子位置
// @Summary 更新位置
// @Tags Game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body PositionRequest true "位置 0..39"
// @Success 200 {object} Response{data=models.Participant}
// @Router /api/v1/games/{id}/position [put]
func (h *GameHandler) UpdatePosition(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.games.UpdatePosition(c.Request.Context(), gameID, userID, *req.Position)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// Participants 玩家列表
// @Summary 玩家列表
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.Participant}
// @Router /api/v1/games/{id}/participants [get]
func (h *GameHandler) Participants(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	players, err := h.games.Participants(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, players)
}

// Hosted 我创建的游戏
// @Summary 我创建的游戏
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.GameSession}
// @Router /api/v1/me/games/hosted [get]
func (h *GameHandler) Hosted(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	games, err := h.games.Hosted(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, games)
}

// Played 我参与的游戏
// @Summary 我参与的游戏
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.GameSession}
// @Router /api/v1/me/games/played [get]
func (h *GameHandler) Played(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	games, err := h.games.Played(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, games)
}

// Roll 掷骰
// @Summary 掷骰
// @Description 只记录结果，不移动棋子
// @Tags Dice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body RollRequest false "骰子面数与数量"
// @Success 201 {object} Response{data=models.DiceRoll}
// @Router /api/v1/games/{id}/dice [post]
func (h *GameHandler) Roll(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req RollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	roll, err := h.dice.Roll(c.Request.Context(), gameID, userID, req.Sides, req.Count)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, roll)
}

// DiceHistory 最近的掷骰记录
// @Summary 掷骰记录
// @Tags Dice
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.DiceRoll}
// @Router /api/v1/games/{id}/dice [get]
func (h *GameHandler) DiceHistory(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	rolls, err := h.dice.History(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rolls)
}

// Spin 记录轮盘结果
// @Summary 记录轮盘结果
// @Description 轮盘在客户端转动，服务端只记录结果并广播
// @Tags Dice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body service.SpinRequest true "轮盘结果"
// @Success 201 {object} Response{data=models.RouletteSpin}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/roulette [post]
func (h *GameHandler) Spin(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req service.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	spin, err := h.dice.RecordSpin(c.Request.Context(), gameID, userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, spin)
}

// SpinHistory 最近的轮盘结果
// @Summary 轮盘记录
// @Tags Dice
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.RouletteSpin}
// @Router /api/v1/games/{id}/roulette [get]
func (h *GameHandler) SpinHistory(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	spins, err := h.dice.SpinHistory(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, spins)
}

// RollSpecial 记录特殊骰子结果
// @Summary 记录特殊骰子结果
// @Tags Dice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Param request body service.SpecialRollRequest true "特殊骰子结果"
// @Success 201 {object} Response{data=models.SpecialDiceRoll}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/games/{id}/special-dice [post]
func (h *GameHandler) RollSpecial(c *gin.Context) {
	userID, passed := currentUser(c)
	if !passed {
		return
	}
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	var req service.SpecialRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	roll, err := h.dice.RecordSpecialRoll(c.Request.Context(), gameID, userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, roll)
}

// SpecialHistory 最近的特殊骰子结果
// @Summary 特殊骰子记录
// @Tags Dice
// @Produce json
// @Security BearerAuth
// @Param id path int true "游戏ID"
// @Success 200 {object} Response{data=[]models.SpecialDiceRoll}
// @Router /api/v1/games/{id}/special-dice [get]
func (h *GameHandler) SpecialHistory(c *gin.Context) {
	gameID, passed := uintParam(c, "id")
	if !passed {
		return
	}
	rolls, err := h.dice.SpecialHistory(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rolls)
}
