package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"github.com/wfunc/monopoly-game/internal/utils"
)

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	// Logout 注销当前会话，其访问令牌与刷新令牌随之失效
	Logout(ctx context.Context, userID uint, sessionID string) error
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error
}

// UserService 用户服务接口
type UserService interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	UpdateNickname(ctx context.Context, userID uint, nickname string) (*models.User, error)
}

// LedgerService 账本服务接口
type LedgerService interface {
	// Transfer 以调用者身份发起转账（房主可代表银行付款）
	Transfer(ctx context.Context, userID uint, req *TransferRequest) (*models.Transaction, error)
	// Execute 直接在两个账户之间记账，from/to 为空表示银行
	Execute(ctx context.Context, gameID uint, from, to *uint, amount decimal.Decimal, description string) (*models.Transaction, error)
	Get(ctx context.Context, transactionID uint) (*models.Transaction, error)
	Delete(ctx context.Context, transactionID uint) error
	ClaimJackpot(ctx context.Context, gameID, userID uint) (*models.Transaction, error)
	List(ctx context.Context, gameID uint, page, pageSize int) ([]*models.Transaction, *repository.Pagination, error)
	JackpotHistory(ctx context.Context, gameID uint, limit int) ([]*models.JackpotEntry, error)
}

// CardService 卡牌服务接口
type CardService interface {
	Draw(ctx context.Context, gameID, userID uint, deck models.DeckType) (*DrawResult, error)
	GetMarket(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error)
	RefreshMarket(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error)
	BuyMarketCard(ctx context.Context, gameID, userID uint, slot int) (*PurchaseResult, error)
	ExchangeMarketCard(ctx context.Context, gameID, userID uint, slot int) ([]*models.GameBovedaMarket, error)
	Inventory(ctx context.Context, gameID, userID uint) ([]*models.ParticipantCard, error)
	UseCard(ctx context.Context, gameID, userID, inventoryID uint) (*UseResult, error)
	Discard(ctx context.Context, gameID, userID, inventoryID uint) error
	ExecuteSpecialAction(ctx context.Context, gameID, userID uint, req *SpecialActionRequest) error
	UsageLogs(ctx context.Context, gameID uint, limit int) ([]*models.CardUsageLog, error)
}

// PropertyService 地产服务接口
type PropertyService interface {
	Catalog(ctx context.Context) ([]*models.Property, error)
	Ownerships(ctx context.Context, gameID uint) ([]*models.ParticipantProperty, error)
	Buy(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)
	Mortgage(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)
	Unmortgage(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)
	BuyBuilding(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)
	SellBuilding(ctx context.Context, gameID, userID, propertyID uint) (*models.ParticipantProperty, error)
}

// AuctionService 拍卖服务接口
type AuctionService interface {
	Start(ctx context.Context, gameID, userID, propertyID uint) (*models.Auction, error)
	PlaceBid(ctx context.Context, auctionID, userID uint, amount decimal.Decimal) (*models.Auction, error)
	End(ctx context.Context, auctionID, userID uint) (*models.Auction, error)
	Active(ctx context.Context, gameID uint) (*models.Auction, error)
	List(ctx context.Context, gameID uint) ([]*models.Auction, error)
}

// TradeService 交易服务接口
type TradeService interface {
	Create(ctx context.Context, gameID, userID uint, req *TradeRequest) (*models.Trade, error)
	Accept(ctx context.Context, tradeID, userID uint) (*models.Trade, error)
	Reject(ctx context.Context, tradeID, userID uint) (*models.Trade, error)
	List(ctx context.Context, gameID uint, status models.TradeStatus) ([]*models.Trade, error)
}

// GameService 游戏会话服务接口
type GameService interface {
	Create(ctx context.Context, hostUserID uint, name string) (*models.GameSession, error)
	Join(ctx context.Context, gameID, userID uint) (*models.Participant, error)
	JoinWithCode(ctx context.Context, code string, userID uint) (*models.Participant, error)
	Leave(ctx context.Context, gameID, userID uint) error
	Delete(ctx context.Context, gameID, userID uint) error
	Update(ctx context.Context, gameID, userID uint, req *UpdateGameRequest) (*models.GameSession, error)
	EndTurn(ctx context.Context, gameID, userID uint) (*models.GameSession, error)
	UpdatePosition(ctx context.Context, gameID, userID uint, position int) (*models.Participant, error)
	Get(ctx context.Context, gameID uint) (*models.GameSession, error)
	Participants(ctx context.Context, gameID uint) ([]*models.Participant, error)
	Hosted(ctx context.Context, userID uint) ([]*models.GameSession, error)
	Played(ctx context.Context, userID uint) ([]*models.GameSession, error)
	SweepStaleLobbies(ctx context.Context) (int, error)
}

// DiceService 掷骰服务接口
type DiceService interface {
	Roll(ctx context.Context, gameID, userID uint, sides, count int) (*models.DiceRoll, error)
	History(ctx context.Context, gameID uint) ([]*models.DiceRoll, error)
	// RecordSpin 记录客户端转出的轮盘结果
	RecordSpin(ctx context.Context, gameID, userID uint, req *SpinRequest) (*models.RouletteSpin, error)
	SpinHistory(ctx context.Context, gameID uint) ([]*models.RouletteSpin, error)
	// RecordSpecialRoll 记录客户端掷出的特殊骰子结果
	RecordSpecialRoll(ctx context.Context, gameID, userID uint, req *SpecialRollRequest) (*models.SpecialDiceRoll, error)
	SpecialHistory(ctx context.Context, gameID uint) ([]*models.SpecialDiceRoll, error)
}

// SpinRequest 轮盘结果
type SpinRequest struct {
	ResultLabel string `json:"result_label" binding:"required"`
	ResultValue int    `json:"result_value"`
	ResultType  string `json:"result_type" binding:"required"` // red, green
}

// SpecialRollRequest 特殊骰子结果
type SpecialRollRequest struct {
	DieName    string  `json:"die_name" binding:"required"`
	DieID      string  `json:"die_id" binding:"required"`
	FaceLabel  string  `json:"face_label" binding:"required"`
	FaceValue  *int    `json:"face_value"`
	FaceAction *string `json:"face_action"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// TransferRequest 转账请求
type TransferRequest struct {
	GameID          uint            `json:"game_id" binding:"required"`
	ToParticipantID *uint           `json:"to_participant_id"`
	FromBank        bool            `json:"from_bank"` // 仅房主
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	Description     string          `json:"description"`
}

// DrawResult 抽卡结果
type DrawResult struct {
	Card        *models.Card            `json:"card"`
	Inventory   *models.ParticipantCard `json:"inventory,omitempty"`
	Transaction *models.Transaction     `json:"transaction,omitempty"`
}

// PurchaseResult 市场购卡结果
type PurchaseResult struct {
	Inventory   *models.ParticipantCard    `json:"inventory"`
	Transaction *models.Transaction        `json:"transaction,omitempty"`
	Market      []*models.GameBovedaMarket `json:"market"`
}

// UseResult 用卡结果
type UseResult struct {
	Card     *models.Card `json:"card"`
	Consumed bool         `json:"consumed"`
	Victory  bool         `json:"victory"`
}

// SpecialActionRequest 对其他玩家卡牌的操作
type SpecialActionRequest struct {
	Action            string `json:"action" binding:"required"` // destroy, buy, exchange
	TargetInventoryID uint   `json:"target_inventory_id" binding:"required"`
	MyCardID          *uint  `json:"my_card_id"`
}

// TradeRequest 发起交易
type TradeRequest struct {
	TargetParticipantID uint            `json:"target_participant_id" binding:"required"`
	OfferCash           decimal.Decimal `json:"offer_cash" swaggertype:"string"`
	RequestCash         decimal.Decimal `json:"request_cash" swaggertype:"string"`
	OfferProperties     []uint          `json:"offer_properties"`
	RequestProperties   []uint          `json:"request_properties"`
	OfferCards          []uint          `json:"offer_cards"`
	RequestCards        []uint          `json:"request_cards"`
}

// UpdateGameRequest 更新游戏
type UpdateGameRequest struct {
	Name   *string            `json:"name"`
	Status *models.GameStatus `json:"status"`
}

// TurnPayload 回合事件内容
type TurnPayload struct {
	GameID            uint              `json:"game_id"`
	CurrentTurnUserID *uint             `json:"current_turn_user_id"`
	TurnOrder         []uint            `json:"turn_order"`
	Initiative        []game.Initiative `json:"initiative,omitempty"`
}

// CardActivity 卡牌事件内容
type CardActivity struct {
	ParticipantID uint   `json:"participant_id"`
	CardID        uint   `json:"card_id"`
	Title         string `json:"title"`
	Action        string `json:"action"`
}

// ParticipantLeft 玩家离开事件内容
type ParticipantLeft struct {
	ParticipantID uint `json:"participant_id"`
	UserID        uint `json:"user_id"`
	Left          bool `json:"left"`
}
