// Package db はgormによるデータベース接続を提供します。
package db

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultConnectTimeout = 60 * time.Second
	defaultRetryInterval  = 3 * time.Second
)

// Config はデータベース接続の設定を保持します。
type Config struct {
	Driver   string // "postgres" または "sqlite"
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string // postgres の sslmode（デフォルト "disable"）
	Path     string // sqlite のファイルパス

	RunMigrations  bool
	ConnectTimeout time.Duration
	RetryInterval  time.Duration
}

// Enabled は接続先が設定されているかを返します。
func (c Config) Enabled() bool {
	switch c.Driver {
	case DriverSQLite:
		return c.Path != ""
	case DriverPostgres, "":
		return c.Host != "" && c.Name != ""
	default:
		return false
	}
}

// BuildDSN は設定からDSN文字列を生成します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslmode)
}

// Opener はDSNからDBを開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// NewOpener はドライバーに対応する Opener を返します。
func NewOpener(driver string) (Opener, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	switch driver {
	case DriverPostgres, "":
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// ConnectWithRetry は timeout まで interval ごとに接続を再試行します。
func ConnectWithRetry(dsn string, timeout, interval time.Duration, opener Opener, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		logger.Warn("db connect failed, retrying", zap.Duration("interval", interval), zap.Error(err))
		time.Sleep(interval)
	}
}

// OpenDB は接続を確立し、RunMigrations が有効なら models をマイグレーションします。
func OpenDB(cfg Config, logger *zap.Logger, models ...any) (*gorm.DB, error) {
	if !cfg.Enabled() {
		return nil, errors.New("database is not configured")
	}
	opener, err := NewOpener(cfg.Driver)
	if err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, cfg.RetryInterval, opener, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
