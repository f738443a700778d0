package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/monopoly-game/internal/api"
	"github.com/wfunc/monopoly-game/internal/config"
	"github.com/wfunc/monopoly-game/internal/database"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/logger"
	"github.com/wfunc/monopoly-game/internal/service"
	"github.com/wfunc/monopoly-game/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	nats      *event.NatsPublisher
	hub       *websocket.Hub
	services  *service.Services
	scheduler *service.Scheduler
	http      *http.Server

	wg sync.WaitGroup
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	setupSystem(&cfg.System)
	printStartInfo(cfg)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
	}
}

// Start 初始化组件并开始监听
func (s *Server) Start() error {
	s.logger.Info("正在启动大富翁游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}
	s.startServices()

	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功", zap.String("http", s.http.Addr))
	return nil
}

// initComponents 依次初始化数据库、事件分发、业务服务与HTTP路由
func (s *Server) initComponents() error {
	if err := s.initDatabase(); err != nil {
		return err
	}

	s.hub = websocket.NewHub(logger.WithModule("websocket"), s.cfg.WebSocket.PingInterval)
	publishers := event.Multi{s.hub}

	if s.cfg.Broker.Enabled {
		nc, err := event.ConnectNats(s.cfg.Broker, logger.WithModule("broker"))
		if err != nil {
			return err
		}
		s.nats = nc
		publishers = append(publishers, nc)
	}

	s.services = service.NewServices(database.GetDB(), service.ConfigFrom(s.cfg), publishers, logger.WithModule("service"))

	if s.cfg.Scheduler.Enabled {
		sched, err := service.NewScheduler(s.services.Game, s.cfg.Scheduler.LobbySweep, logger.WithModule("scheduler"))
		if err != nil {
			return err
		}
		s.scheduler = sched
	}

	gin.SetMode(ginMode(s.cfg.Server.Mode))
	router := api.NewRouter(database.GetDB(), s.services, s.hub, s.cfg.WebSocket, logger.WithModule("api"))

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// startServices 启动后台协程
func (s *Server) startServices() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 先停止接收请求，再停止后台任务与事件分发
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	// 等奖池注入队列排空后再关闭推送
	s.services.Close()
	s.hub.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if s.nats != nil {
		s.nats.Close()
	}
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return nil
}

// reloadConfig 热更新只调整日志级别，其余配置需重启生效
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// ginMode 将运行模式映射为 gin 模式
func ginMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

func printVersion() {
	fmt.Printf("大富翁游戏服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printHelp() {
	fmt.Println("大富翁游戏服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  monopoly-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量 (前缀 MONOPOLY_GAME_，支持 .env):")
	fmt.Println("  MONOPOLY_GAME_SERVER_PORT          监听端口")
	fmt.Println("  MONOPOLY_GAME_DATABASE_DRIVER      sqlite/mysql/postgres")
	fmt.Println("  MONOPOLY_GAME_DATABASE_DSN         数据库连接串")
	fmt.Println("  MONOPOLY_GAME_SECURITY_JWT_SECRET  令牌签名密钥")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  monopoly-server -config=/path/to/config.yaml")
	fmt.Println("  monopoly-server -version")
}

func printStartInfo(cfg *config.Config) {
	banner := `
╔═══════════════════════════════════════════════╗
║                                               ║
║            M O N O P O L Y   G A M E          ║
║                                               ║
║               大富翁记账后端服务器            ║
║                                               ║
╚═══════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Println("═════════════════════════════════════════════════")
}
