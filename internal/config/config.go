package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// GameConfig 游戏配置
type GameConfig struct {
	SessionKey        string         `mapstructure:"session_key"`        // 存档键
	TimerInterval     time.Duration  `mapstructure:"timer_interval"`     // 计时器间隔
	SessionTimeout    time.Duration  `mapstructure:"session_timeout"`    // 存档过期时间，0 表示不过期
	MaxTeams          int            `mapstructure:"max_teams"`          // 最大队伍数
	Persistence       string         `mapstructure:"persistence"`        // database | memory | cache
	CardsDir          string         `mapstructure:"cards_dir"`          // 卡牌目录，空则使用内置卡牌
	Phases            PhasesConfig   `mapstructure:"phases"`             // 阶段配置
	WildcardDurations map[string]int `mapstructure:"wildcard_durations"` // 万能牌效果持续张数
}

// PhasesConfig 四个阶段的配置
type PhasesConfig struct {
	Mind   PhaseConfig `mapstructure:"mind"`
	Body   PhaseConfig `mapstructure:"body"`
	Spirit PhaseConfig `mapstructure:"spirit"`
	Horror PhaseConfig `mapstructure:"horror"`
}

// PhaseConfig 单个阶段配置
type PhaseConfig struct {
	Name         string `mapstructure:"name"`
	Description  string `mapstructure:"description"`
	WinCondition int    `mapstructure:"win_condition"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化全局配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		var loaded *Config
		v, loaded, err = load(configPath)
		if err != nil {
			return
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})

	return err
}

// Load 读取配置但不修改全局实例
func Load(configPath string) (*Config, error) {
	_, loaded, err := load(configPath)
	return loaded, err
}

func load(configPath string) (*viper.Viper, *Config, error) {
	vp := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	// 设置环境变量前缀
	vp.SetEnvPrefix("PARTY_GAME")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	// 配置文件不存在时使用默认配置
	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	loaded := &Config{}
	if err := vp.Unmarshal(loaded); err != nil {
		return nil, nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, nil, err
	}

	return vp, loaded, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 游戏默认配置
	v.SetDefault("game.session_key", "chardeeMacDennisGame")
	v.SetDefault("game.timer_interval", "1s")
	v.SetDefault("game.session_timeout", "0s")
	v.SetDefault("game.max_teams", 6)
	v.SetDefault("game.persistence", "database")
	v.SetDefault("game.cards_dir", "")

	v.SetDefault("game.phases.mind.name", "MIND")
	v.SetDefault("game.phases.mind.description", "Your intellect is weak, like your grip strength.")
	v.SetDefault("game.phases.mind.win_condition", 3)
	v.SetDefault("game.phases.body.name", "BODY")
	v.SetDefault("game.phases.body.description", "There will be blood, and that's fine.")
	v.SetDefault("game.phases.body.win_condition", 3)
	v.SetDefault("game.phases.spirit.name", "SPIRIT")
	v.SetDefault("game.phases.spirit.description", "Now we break each other emotionally.")
	v.SetDefault("game.phases.spirit.win_condition", 3)
	v.SetDefault("game.phases.horror.name", "HORROR")
	v.SetDefault("game.phases.horror.description", "Unlocked when everyone is emotionally unstable.")
	v.SetDefault("game.phases.horror.win_condition", 2)

	v.SetDefault("game.wildcard_durations", map[string]int{
		"reverse_drinking":   3,
		"immunity_physical":  2,
		"immunity_emotional": 3,
		"nuclear_option":     1,
	})

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/party-game.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "party-game.log")
	v.SetDefault("log.file.max_size", 50)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Game.SessionKey == "" {
		return fmt.Errorf("game.session_key 不能为空")
	}
	if c.Game.TimerInterval <= 0 {
		return fmt.Errorf("game.timer_interval 必须大于0: %s", c.Game.TimerInterval)
	}
	if c.Game.MaxTeams < 2 {
		return fmt.Errorf("game.max_teams 至少为2: %d", c.Game.MaxTeams)
	}
	switch c.Game.Persistence {
	case "database", "memory", "cache":
	default:
		return fmt.Errorf("不支持的持久化方式: %s", c.Game.Persistence)
	}
	for name, phase := range map[string]PhaseConfig{
		"mind":   c.Game.Phases.Mind,
		"body":   c.Game.Phases.Body,
		"spirit": c.Game.Phases.Spirit,
		"horror": c.Game.Phases.Horror,
	} {
		if phase.WinCondition <= 0 {
			return fmt.Errorf("game.phases.%s.win_condition 必须为正整数: %d", name, phase.WinCondition)
		}
	}
	for effect, duration := range c.Game.WildcardDurations {
		if duration < 0 {
			return fmt.Errorf("game.wildcard_durations.%s 不能为负数: %d", effect, duration)
		}
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载校验失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}

		fmt.Printf("配置已重新加载: %s\n", e.Name)
	})
}
