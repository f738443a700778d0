package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/monopoly-game/internal/config"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/repository"
	"github.com/wfunc/monopoly-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	StartingBalance    decimal.Decimal
	AuctionFloor       decimal.Decimal
	MarketSize         int
	JoinCodeLength     int
	JoinCodeRetries    int
	DefaultGameName    string
	InjectorBufferSize int
	LobbyTTL           time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "your-secret-key-change-in-production",
		AccessTokenExpiry:  24 * time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		StartingBalance:    decimal.NewFromInt(1500),
		AuctionFloor:       decimal.NewFromInt(10),
		MarketSize:         3,
		JoinCodeLength:     4,
		JoinCodeRetries:    10,
		DefaultGameName:    "New Monopoly Game",
		InjectorBufferSize: 256,
		LobbyTTL:           24 * time.Hour,
	}
}

// ConfigFrom 从全局配置构造服务配置
func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Security.JWT.Secret != "" {
		c.JWTSecret = cfg.Security.JWT.Secret
	}
	if cfg.Security.JWT.ExpireHours > 0 {
		c.AccessTokenExpiry = time.Duration(cfg.Security.JWT.ExpireHours) * time.Hour
	}
	if cfg.Security.JWT.RefreshHours > 0 {
		c.RefreshTokenExpiry = time.Duration(cfg.Security.JWT.RefreshHours) * time.Hour
	}
	if cfg.Game.StartingBalance > 0 {
		c.StartingBalance = decimal.NewFromFloat(cfg.Game.StartingBalance)
	}
	if cfg.Game.AuctionFloor > 0 {
		c.AuctionFloor = decimal.NewFromFloat(cfg.Game.AuctionFloor)
	}
	if cfg.Game.JoinCodeLength > 0 {
		c.JoinCodeLength = cfg.Game.JoinCodeLength
	}
	if cfg.Game.JoinCodeRetries > 0 {
		c.JoinCodeRetries = cfg.Game.JoinCodeRetries
	}
	if cfg.Game.MarketSize > 0 {
		c.MarketSize = cfg.Game.MarketSize
	}
	if cfg.Game.DefaultName != "" {
		c.DefaultGameName = cfg.Game.DefaultName
	}
	if cfg.Game.InjectorBufferSize > 0 {
		c.InjectorBufferSize = cfg.Game.InjectorBufferSize
	}
	if cfg.Scheduler.LobbyTTL > 0 {
		c.LobbyTTL = cfg.Scheduler.LobbyTTL
	}
	return c
}

// Services 服务集合
type Services struct {
	Auth     AuthService
	User     UserService
	Ledger   LedgerService
	Card     CardService
	Property PropertyService
	Auction  AuctionService
	Trade    TradeService
	Game     GameService
	Dice     DiceService

	JWT      *utils.JWTManager
	Injector *JackpotInjector
}

// Option 服务集合选项
type Option func(*core)

// WithRoller 替换随机数来源
func WithRoller(r game.Roller) Option {
	return func(c *core) { c.dice = r }
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *Config, publisher event.Publisher, log *zap.Logger, opts ...Option) *Services {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if publisher == nil {
		publisher = event.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	repos := repository.NewManager(db)
	injector := NewJackpotInjector(repos, publisher, log, cfg.InjectorBufferSize)

	c := &core{
		repos:     repos,
		publisher: publisher,
		injector:  injector,
		dice:      game.NewDice(),
		cfg:       cfg,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}

	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	return &Services{
		Auth:     NewAuthService(repos.User(), jwtManager, log),
		User:     NewUserService(repos.User(), log),
		Ledger:   &ledgerService{core: c},
		Card:     &cardService{core: c},
		Property: &propertyService{core: c},
		Auction:  &auctionService{core: c},
		Trade:    &tradeService{core: c},
		Game:     &gameService{core: c},
		Dice:     &diceService{core: c},
		JWT:      jwtManager,
		Injector: injector,
	}
}

// Close 等待奖池注入队列处理完毕
func (s *Services) Close() {
	s.Injector.Close()
}
