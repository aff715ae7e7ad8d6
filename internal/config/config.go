package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// SerialConfig 串口配置（DFPlayer 固定 9600 8N1）
type SerialConfig struct {
	Port         string        `mapstructure:"port"`
	BaudRate     int           `mapstructure:"baudRate"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	WriteQueue   int           `mapstructure:"writeQueue"`
}

// PlayerConfig 播放器命令配置
type PlayerConfig struct {
	Feedback       bool   `mapstructure:"feedback"`
	CommandRate    int    `mapstructure:"commandRate"`  // 每秒允许下发的命令数
	CommandBurst   int    `mapstructure:"commandBurst"` // 突发容量
	DefaultHandler bool   `mapstructure:"defaultHandler"`
	StartupScript  string `mapstructure:"startupScript"`
}

// BreakerConfig 串口写熔断配置
type BreakerConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// RedisConfig 事件发布用 Redis 配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Channel      string        `mapstructure:"channel"`  // PUBLISH 频道
	Queue        string        `mapstructure:"queue"`    // RPUSH 列表
	QueueMax     int64         `mapstructure:"queueMax"` // 列表保留长度
}

// APIConfig 控制 API 认证配置
type APIConfig struct {
	AuthEnabled bool     `mapstructure:"authEnabled"`
	APIKeys     []string `mapstructure:"apiKeys"`
}

// EventsConfig 事件记录配置
type EventsConfig struct {
	RecentSize int `mapstructure:"recentSize"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Serial  SerialConfig  `mapstructure:"serial"`
	Player  PlayerConfig  `mapstructure:"player"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
	API     APIConfig     `mapstructure:"api"`
	Events  EventsConfig  `mapstructure:"events"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 DFP_CONFIG 读取；否则回退到 configs/dfplayer.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 DFP_，并将点号替换为下划线
	v.SetEnvPrefix("DFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("dfplayer")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 基础合法性检查
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return errors.New("config: serial.port is required")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("config: invalid serial.baudRate %d", c.Serial.BaudRate)
	}
	if c.API.AuthEnabled && len(c.API.APIKeys) == 0 {
		return errors.New("config: api.authEnabled requires api.apiKeys")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dfplayerd")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("serial.port", "/dev/ttyUSB0")
	v.SetDefault("serial.baudRate", 9600)
	v.SetDefault("serial.readTimeout", "200ms")
	v.SetDefault("serial.writeTimeout", "1s")
	v.SetDefault("serial.writeQueue", 32)

	v.SetDefault("player.feedback", true)
	v.SetDefault("player.commandRate", 10)
	v.SetDefault("player.commandBurst", 5)
	v.SetDefault("player.defaultHandler", true)
	v.SetDefault("player.startupScript", "")

	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/dfplayerd.log")
	v.SetDefault("logging.file.maxSize", 50)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 1)
	v.SetDefault("redis.dialTimeout", "5s")
	v.SetDefault("redis.readTimeout", "3s")
	v.SetDefault("redis.writeTimeout", "3s")
	v.SetDefault("redis.channel", "dfplayer:events")
	v.SetDefault("redis.queue", "dfplayer:events:queue")
	v.SetDefault("redis.queueMax", 1000)

	v.SetDefault("api.authEnabled", false)
	v.SetDefault("api.apiKeys", []string{})

	v.SetDefault("events.recentSize", 256)
}
