package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/config"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/middleware"
	"github.com/wfunc/monopoly-game/internal/service"
	"github.com/wfunc/monopoly-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger

	auth     *AuthHandler
	game     *GameHandler
	ledger   *LedgerHandler
	card     *CardHandler
	property *PropertyHandler
	auction  *AuctionHandler
	trade    *TradeHandler
	ws       *WSHandler
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, services *service.Services, hub *websocket.Hub, wsCfg config.WebSocketConfig, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.AccessLog())

	r := &Router{
		engine:         engine,
		db:             db,
		services:       services,
		authMiddleware: middleware.NewAuthMiddleware(services.Auth),
		log:            log,

		auth:     NewAuthHandler(services.Auth, services.User),
		game:     NewGameHandler(services.Game, services.Dice),
		ledger:   NewLedgerHandler(services.Ledger, services.Game),
		card:     NewCardHandler(services.Card, services.Game),
		property: NewPropertyHandler(services.Property),
		auction:  NewAuctionHandler(services.Auction),
		trade:    NewTradeHandler(services.Trade),
		ws:       NewWSHandler(hub, services.Game, wsCfg, log),
	}

	r.setupRoutes(wsCfg.Path)
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes(wsPath string) {
	r.engine.GET("/health", r.healthCheck)
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.auth.Register)
			auth.POST("/login", r.auth.Login)
			auth.POST("/refresh", r.auth.RefreshToken)

			profile := auth.Group("/profile", r.authMiddleware.RequireAuth())
			profile.GET("", r.auth.GetProfile)
			profile.PUT("", r.auth.UpdateProfile)

			session := auth.Group("", r.authMiddleware.RequireAuth())
			session.POST("/logout", r.auth.Logout)
			session.PUT("/password", r.auth.ChangePassword)
		}

		v1.GET("/properties", r.property.Catalog)

		secured := v1.Group("", r.authMiddleware.RequireAuth())

		me := secured.Group("/me/games")
		me.GET("/hosted", r.game.Hosted)
		me.GET("/played", r.game.Played)

		secured.POST("/lobby/join", r.game.JoinWithCode)
		secured.POST("/games", r.game.Create)

		g := secured.Group("/games/:id")
		{
			g.GET("", r.game.Get)
			g.PATCH("", r.game.Update)
			g.DELETE("", r.game.Delete)
			g.POST("/join", r.game.Join)
			g.POST("/leave", r.game.Leave)
			g.POST("/end-turn", r.game.EndTurn)
			g.PUT("/position", r.game.UpdatePosition)
			g.GET("/participants", r.game.Participants)
			g.POST("/dice", r.game.Roll)
			g.GET("/dice", r.game.DiceHistory)
			g.POST("/roulette", r.game.Spin)
			g.GET("/roulette", r.game.SpinHistory)
			g.POST("/special-dice", r.game.RollSpecial)
			g.GET("/special-dice", r.game.SpecialHistory)

			g.POST("/transactions", r.ledger.Transfer)
			g.GET("/transactions", r.ledger.List)
			g.DELETE("/transactions/:txId", r.ledger.Delete)
			g.GET("/jackpot", r.ledger.JackpotHistory)
			g.POST("/jackpot/claim", r.ledger.ClaimJackpot)

			g.POST("/cards/draw", r.card.Draw)
			g.POST("/cards/special", r.card.Special)
			g.GET("/cards/logs", r.card.UsageLogs)
			g.GET("/inventory", r.card.Inventory)
			g.POST("/inventory/:cardId/use", r.card.Use)
			g.DELETE("/inventory/:cardId", r.card.Discard)
			g.GET("/market", r.card.Market)
			g.POST("/market/refresh", r.card.RefreshMarket)
			g.POST("/market/buy", r.card.BuyMarketCard)
			g.POST("/market/exchange", r.card.ExchangeMarketCard)

			g.GET("/properties", r.property.Ownerships)
			g.POST("/properties/:propertyId/buy", r.property.Buy)
			g.POST("/properties/:propertyId/mortgage", r.property.Mortgage)
			g.POST("/properties/:propertyId/unmortgage", r.property.Unmortgage)
			g.POST("/properties/:propertyId/build", r.property.BuyBuilding)
			g.POST("/properties/:propertyId/sell-building", r.property.SellBuilding)

			g.POST("/auctions", r.auction.Start)
			g.GET("/auctions", r.auction.List)
			g.GET("/auctions/active", r.auction.Active)
			g.POST("/auctions/:auctionId/bid", r.auction.Bid)
			g.POST("/auctions/:auctionId/end", r.auction.End)

			g.POST("/trades", r.trade.Create)
			g.GET("/trades", r.trade.List)
			g.POST("/trades/:tradeId/accept", r.trade.Accept)
			g.POST("/trades/:tradeId/reject", r.trade.Reject)
		}
	}

	if wsPath == "" {
		wsPath = "/ws"
	}
	r.engine.GET(wsPath+"/games/:id", r.authMiddleware.RequireAuth(), r.ws.Subscribe)

	r.engine.NoRoute(func(c *gin.Context) {
		middleware.Abort(c, apperrors.New(apperrors.ErrNotFound, "接口不存在"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		r.log.Error("健康检查失败", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库不可用",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
