package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`    // 服务器配置
	Postgres  PostgresConfig  `mapstructure:"postgres"`  // PostgreSQL配置
	Feed      FeedConfig      `mapstructure:"feed"`      // AIS数据源配置
	Retention RetentionConfig `mapstructure:"retention"` // 历史数据保留策略配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// FeedConfig AIS数据源配置
type FeedConfig struct {
	URL           string          `mapstructure:"url"`            // websocket地址
	APIKey        string          `mapstructure:"api_key"`        // 订阅凭证（必填，建议走 .env）
	Proxy         string          `mapstructure:"proxy"`          // 代理地址，可空
	BoundingBoxes [][][2]float64  `mapstructure:"bounding_boxes"` // 订阅地理范围 [[[lat,lon],[lat,lon]],...]，空为全球
	MessageTypes  []string        `mapstructure:"message_types"`  // 订阅报文类型过滤，空为不过滤
	ShipTypes     []int           `mapstructure:"ship_types"`     // 关注的船舶类型代码，空为全部入库
	Reconnect     ReconnectConfig `mapstructure:"reconnect"`      // 重连策略
}

// 重连模式
const (
	ReconnectModeAlways  = "always"  // 固定间隔无限重试
	ReconnectModeBounded = "bounded" // 固定间隔，连续失败达上限后报终态错误
)

// ReconnectConfig 数据源重连策略
type ReconnectConfig struct {
	Mode        string        `mapstructure:"mode"`         // always/bounded
	Delay       time.Duration `mapstructure:"delay"`        // 重连间隔（可为0，表示立即重试）
	MaxAttempts int           `mapstructure:"max_attempts"` // bounded模式下连续失败上限
}

// RetentionConfig 历史数据保留策略
type RetentionConfig struct {
	Interval      time.Duration `mapstructure:"interval"`        // 清理周期
	MaxAge        time.Duration `mapstructure:"max_age"`         // 历史记录最长保留时间
	MaxTableBytes int64         `mapstructure:"max_table_bytes"` // 历史表容量上限（字节），超限触发按量删除
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("AIS_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("AIS_PROXY"); v != "" {
		cfg.Feed.Proxy = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
}

// ApplyDefaults 填充未配置项的缺省值
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 20
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = 5
	}
	if c.Postgres.ConnMaxLifetime == 0 {
		c.Postgres.ConnMaxLifetime = time.Hour
	}
	if c.Feed.URL == "" {
		c.Feed.URL = "wss://stream.aisstream.io/v0/stream"
	}
	if len(c.Feed.BoundingBoxes) == 0 {
		// 缺省订阅全球范围
		c.Feed.BoundingBoxes = [][][2]float64{{{-90, -180}, {90, 180}}}
	}
	if c.Feed.Reconnect.Mode == "" {
		c.Feed.Reconnect.Mode = ReconnectModeAlways
	}
	if c.Feed.Reconnect.Delay == 0 && c.Feed.Reconnect.Mode == ReconnectModeAlways {
		c.Feed.Reconnect.Delay = 3 * time.Second
	}
	if c.Feed.Reconnect.MaxAttempts == 0 {
		c.Feed.Reconnect.MaxAttempts = 10
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = time.Hour
	}
	if c.Retention.MaxAge == 0 {
		c.Retention.MaxAge = 48 * time.Hour
	}
	if c.Retention.MaxTableBytes == 0 {
		c.Retention.MaxTableBytes = 70 << 30 // 70 GiB
	}
}

// Validate 校验必填项，缺失则启动失败
func (c *Config) Validate() error {
	if c.Feed.APIKey == "" {
		return fmt.Errorf("缺少数据源凭证：请配置 feed.api_key 或环境变量 AIS_API_KEY")
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("缺少数据库DSN：请配置 postgres.dsn 或环境变量 POSTGRES_DSN")
	}
	if m := c.Feed.Reconnect.Mode; m != ReconnectModeAlways && m != ReconnectModeBounded {
		return fmt.Errorf("不支持的重连模式: %s", m)
	}
	return nil
}
