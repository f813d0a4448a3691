// Package config は .env、環境変数、デフォルト値からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stock_pipeline/internal/platform/db"
	"stock_pipeline/internal/platform/externalapi/kis"
	"stock_pipeline/internal/platform/logger"
	"stock_pipeline/internal/platform/redis"
	"stock_pipeline/internal/platform/scheduler"
)

// Config はすべてのバイナリの設定を保持します。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	KIS       KISConfig       `mapstructure:"kis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Collector CollectorConfig `mapstructure:"collector"`
	Consumer  ConsumerConfig  `mapstructure:"consumer"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"` // "local", "prod" など
	LogLevel string `mapstructure:"log_level"`
	Port     string `mapstructure:"port"`
}

type KISConfig struct {
	AppKey          string        `mapstructure:"app_key"`
	AppSecret       string        `mapstructure:"app_secret"`
	AccessToken     string        `mapstructure:"access_token"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	GroupID     string   `mapstructure:"group_id"`
	EnsureTopic bool     `mapstructure:"ensure_topic"`
}

type CollectorConfig struct {
	Schedule         string        `mapstructure:"schedule"`
	RunOnStartup     bool          `mapstructure:"run_on_startup"`
	PastDueTolerance time.Duration `mapstructure:"past_due_tolerance"`
}

type ConsumerConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	BatchLimit   int    `mapstructure:"batch_limit"`
}

type DBConfig struct {
	Driver        string `mapstructure:"driver"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name"`
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	SSLMode       string `mapstructure:"sslmode"`
	Path          string `mapstructure:"path"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// 環境変数名がキーの機械的な変換と一致しないもの
var envAliases = map[string]string{
	"consumer.snapshot_path":   "CURRENT_PRICE_SNAPSHOT_PATH",
	"consumer.batch_limit":     "EXTRACT_BATCH_LIMIT",
	"kafka.topic":              "EVENT_TOPIC",
	"kis.request_interval":     "KIS_REQUEST_INTERVAL",
	"collector.schedule":       "COLLECTOR_SCHEDULE",
	"collector.run_on_startup": "COLLECTOR_RUN_ON_STARTUP",
	"db.run_migrations":        "RUN_MIGRATIONS",
}

// Load は .env（存在すれば）を環境変数に読み込み、デフォルト値と合わせて Config を返します。
// envFiles を省略するとカレントディレクトリの .env を探します。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		if alias, ok := envAliases[key]; ok {
			if err := v.BindEnv(key, alias, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", key, err)
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if cfg.Collector.Schedule != "" {
		if _, err := scheduler.Parse(cfg.Collector.Schedule); err != nil {
			return nil, err
		}
	}
	if cfg.Consumer.BatchLimit < 0 {
		return nil, fmt.Errorf("EXTRACT_BATCH_LIMIT must not be negative: %d", cfg.Consumer.BatchLimit)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", "8080")

	v.SetDefault("kis.app_key", "")
	v.SetDefault("kis.app_secret", "")
	v.SetDefault("kis.access_token", "")
	v.SetDefault("kis.base_url", kis.DefaultBaseURL)
	v.SetDefault("kis.timeout", kis.DefaultTimeout)
	v.SetDefault("kis.request_interval", kis.DefaultRequestInterval)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "volume-rank")
	v.SetDefault("kafka.group_id", "default")
	v.SetDefault("kafka.ensure_topic", false)

	sc := scheduler.DefaultConfig()
	v.SetDefault("collector.schedule", sc.Spec)
	v.SetDefault("collector.run_on_startup", sc.RunOnStartup)
	v.SetDefault("collector.past_due_tolerance", sc.PastDueTolerance)

	v.SetDefault("consumer.snapshot_path", "")
	v.SetDefault("consumer.batch_limit", 30)

	v.SetDefault("db.driver", db.DriverPostgres)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "")
	v.SetDefault("db.run_migrations", false)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)
}

// splitList はカンマ区切りで1要素に入ってきた値を分割します。
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// RequireCollector はコレクターの起動に必要な設定を検証します。
func (c *Config) RequireCollector() error {
	var missing []string
	if c.KIS.AppKey == "" {
		missing = append(missing, "KIS_APP_KEY")
	}
	if c.KIS.AppSecret == "" {
		missing = append(missing, "KIS_APP_SECRET")
	}
	if len(c.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}
	if c.Kafka.Topic == "" {
		missing = append(missing, "EVENT_TOPIC")
	}
	return missingError(missing)
}

// RequireConsumer はコンシューマーの起動に必要な設定を検証します。
func (c *Config) RequireConsumer() error {
	return c.RequireCollector()
}

func missingError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
}

// LoggerConfig はロガーの設定を返します。
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{Env: c.App.Env, Level: c.App.LogLevel}
}

// KISClientConfig はKISクライアントの設定を返します。
func (c *Config) KISClientConfig() kis.Config {
	return kis.Config{
		AppKey:          c.KIS.AppKey,
		AppSecret:       c.KIS.AppSecret,
		AccessToken:     c.KIS.AccessToken,
		BaseURL:         c.KIS.BaseURL,
		Timeout:         c.KIS.Timeout,
		RequestInterval: c.KIS.RequestInterval,
	}
}

// SchedulerConfig はコレクターのスケジュール設定を返します。
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Spec:             c.Collector.Schedule,
		RunOnStartup:     c.Collector.RunOnStartup,
		PastDueTolerance: c.Collector.PastDueTolerance,
	}
}

// DatabaseConfig はDB接続の設定を返します。
func (c *Config) DatabaseConfig() db.Config {
	return db.Config{
		Driver:        c.DB.Driver,
		User:          c.DB.User,
		Password:      c.DB.Password,
		Name:          c.DB.Name,
		Host:          c.DB.Host,
		Port:          c.DB.Port,
		SSLMode:       c.DB.SSLMode,
		Path:          c.DB.Path,
		RunMigrations: c.DB.RunMigrations,
	}
}

// RedisClientConfig はRedis接続の設定を返します。
func (c *Config) RedisClientConfig() redis.Config {
	return redis.Config{
		Host:     c.Redis.Host,
		Port:     c.Redis.Port,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TTL:      c.Redis.TTL,
	}
}
