package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/wfunc/party-game/internal/config"
	"github.com/wfunc/party-game/internal/database"
	"github.com/wfunc/party-game/internal/errors"
	"github.com/wfunc/party-game/internal/game"
	"github.com/wfunc/party-game/internal/logger"
	"github.com/wfunc/party-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	shutdownTimeout = 10 * time.Second

	// 数据库连接重试
	dbConnectAttempts = 3
	dbRetryDelay      = 2 * time.Second
)

// Server 游戏主机进程
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *gorm.DB
	session *game.Session
	console *Console
	input   io.Reader

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		actionsPath = flag.String("actions", "", "动作输入文件，默认读取标准输入")
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

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	input := io.Reader(os.Stdin)
	if *actionsPath != "" {
		f, err := os.Open(*actionsPath)
		if err != nil {
			logger.Fatal("打开动作文件失败", zap.String("path", *actionsPath), zap.Error(err))
		}
		defer f.Close()
		input = f
	}

	server := NewServer(cfg, input)

	if err := server.Start(); err != nil {
		logger.Fatal("启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("已安全退出")
}

// NewServer 创建主机实例
func NewServer(cfg *config.Config, input io.Reader) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		input:      input,
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 初始化组件并开始处理动作
func (s *Server) Start() error {
	s.logger.Info("启动游戏主机",
		zap.String("version", Version),
		zap.String("session_key", s.cfg.Game.SessionKey),
		zap.String("persistence", s.cfg.Game.Persistence))

	if err := s.initComponents(); err != nil {
		return err
	}

	config.Watch(s.reloadConfig)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.console.Run(s.ctx, s.input); err != nil {
			s.logger.Error("读取动作失败", zap.Error(err))
		}
		// 输入结束后主动退出
		s.requestShutdown()
	}()

	return nil
}

// initComponents 初始化数据库、会话并恢复存档
func (s *Server) initComponents() error {
	if s.cfg.Game.Persistence != "memory" {
		if err := s.initDatabase(); err != nil {
			return err
		}
	}

	persister, err := game.NewStatePersister(s.cfg.Game.Persistence, s.db)
	if err != nil {
		return err
	}

	rules := game.RulesFromConfig(s.cfg.Game)
	engine := game.NewEngine(rules, nil, logger.GetModuleLogger("engine"))

	cardsDir := s.cfg.Game.CardsDir
	s.session = game.NewSession(game.SessionOptions{
		Key:          s.cfg.Game.SessionKey,
		TickInterval: s.cfg.Game.TimerInterval,
		MaxTeams:     s.cfg.Game.MaxTeams,
	}, engine, persister, logger.GetModuleLogger("session")).
		WithDeckSource(func() (map[game.Category][]game.Card, error) {
			return game.LoadDecksFromDir(cardsDir)
		})

	if s.db != nil {
		s.session.WithRecorder(game.NewDatabaseResultRecorder(repository.NewManager(s.db)))
	}

	s.session.Subscribe(logHistoryEvents(s.session.Key()))

	recovery := game.NewRecoveryManager(logger.GetModuleLogger("recovery"), persister, s.cfg.Game.SessionTimeout)
	recovered, err := recovery.Recover(s.ctx, s.session)
	switch {
	case err != nil && errors.IsCritical(err):
		return errors.Wrap(err, errors.ErrStateCorrupted, "恢复存档失败")
	case err != nil:
		s.logger.Warn("读取存档失败，从新游戏开始", zap.Error(err))
	case recovered:
		s.logger.Info("已从存档恢复游戏")
	}

	s.console = NewConsole(s.session, os.Stdout, s.logger)
	if s.db != nil {
		s.console.WithResults(repository.NewGameResultRepository(s.db))
	}
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...",
		zap.String("driver", s.cfg.Database.Driver))

	if err := s.connectDatabase(); err != nil {
		return err
	}

	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.db = database.GetDB()
	s.logger.Info("数据库初始化完成")
	return nil
}

// connectDatabase 连接数据库，可重试的错误按固定间隔重试
func (s *Server) connectDatabase() error {
	var err error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		if err = database.Init(&s.cfg.Database); err == nil {
			return nil
		}
		err = errors.Wrap(err, errors.ErrDatabaseConnect, "数据库连接失败")
		if !errors.IsRetryable(err) || attempt == dbConnectAttempts {
			break
		}

		s.logger.Warn("数据库连接失败，稍后重试",
			zap.Int("attempt", attempt),
			zap.Duration("delay", dbRetryDelay),
			zap.Error(err))

		select {
		case <-s.ctx.Done():
			return err
		case <-time.After(dbRetryDelay):
		}
	}
	return err
}

// logHistoryEvents 将新增的历史事件写入游戏事件日志
func logHistoryEvents(sessionKey string) game.Observer {
	return func(prev, next *game.GameState, action game.Action) {
		if action.Type == game.ActionRestoreState || len(next.GameHistory) <= len(prev.GameHistory) {
			return
		}
		for _, ev := range next.GameHistory[len(prev.GameHistory):] {
			logger.LogGameEvent(string(ev.Type), sessionKey, map[string]interface{}{
				"phase":     next.CurrentPhase,
				"timestamp": ev.Timestamp,
				"payload":   ev.Payload,
			})
		}
	}
}

// requestShutdown 触发关闭，可重复调用
func (s *Server) requestShutdown() {
	select {
	case <-s.shutdownCh:
	default:
		close(s.shutdownCh)
	}
}

// WaitForShutdown 等待关闭信号或输入结束
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
		s.requestShutdown()
	case <-s.shutdownCh:
	}
}

// Shutdown 优雅关闭
func (s *Server) Shutdown() error {
	s.logger.Info("正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cancel()

	// 读取标准输入的协程可能阻塞在 Read 上，超时后直接继续
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.logger.Warn("等待输入协程超时")
	}

	return s.closeComponents()
}

// closeComponents 关闭组件
func (s *Server) closeComponents() error {
	if s.session != nil {
		s.session.Close()
	}

	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("所有组件已关闭")
	return nil
}

// reloadConfig 重新加载配置
//
// 规则和存储在会话生命周期内保持不变，只有日志级别即时生效。
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	logger.GetSugar().Infof("配置重新加载完成，日志级别: %s", logger.Level())
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Chardee MacDennis 游戏主机\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Chardee MacDennis 游戏主机")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  party-game [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("每行输入一个 JSON 动作，例如:")
	fmt.Println(`  {"type":"draw_card"}`)
	fmt.Println(`  {"type":"complete_card","payload":{"success":true}}`)
	fmt.Println(`  {"type":"summary"}`)
	fmt.Println(`  {"type":"results","payload":{"limit":5}}`)
	fmt.Println(`  {"type":"stats","payload":{"days":7}}`)
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  PARTY_GAME_GAME_PERSISTENCE   持久化方式 (database/memory/cache)")
	fmt.Println("  PARTY_GAME_DATABASE_DSN       数据库连接串")
}
