// Package db opens the price store and applies its schema.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers the CGO-free "sqlite" database/sql driver

	priceadapters "cattle_backend/internal/feature/prices/adapters"
)

const (
	// DriverSQLite3 は mattn/go-sqlite3 (CGO) を使う既定のドライバーです。
	DriverSQLite3 = "sqlite3"
	// DriverSQLite は modernc.org/sqlite (CGO不要) を使うドライバーです。
	DriverSQLite = "sqlite"
	// DriverPostgres は pgx 経由で PostgreSQL に接続します。
	DriverPostgres = "postgres"

	defaultPath           = "data/prices.db"
	defaultConnectTimeout = 60 * time.Second
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config holds database connection settings.
type Config struct {
	Driver         string
	Path           string // SQLite file; ":memory:" is accepted
	URL            string // PostgreSQL URL or keyword/value DSN; takes precedence over the fields below
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	ConnectTimeout time.Duration
	RunMigrations  bool
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:         getEnv("DB_DRIVER", DriverSQLite3),
		Path:           getEnv("DB_PATH", defaultPath),
		URL:            os.Getenv("DATABASE_URL"),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnv("DB_PORT", "5432"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		Name:           os.Getenv("DB_NAME"),
		ConnectTimeout: defaultConnectTimeout,
		RunMigrations:  true,
	}
	if v := os.Getenv("DB_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ConnectTimeout = d
		} else {
			slog.Warn("invalid DB_CONNECT_TIMEOUT, using default", "value", v, "default", defaultConnectTimeout)
		}
	}
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RunMigrations = b
		}
	}
	return cfg
}

// BuildDSN はドライバーに応じた接続文字列を生成します。
func BuildDSN(cfg Config) string {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.URL != "" {
			return cfg.URL
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	case DriverSQLite:
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
}

// Dialector returns the gorm dialector for cfg.Driver.
func Dialector(cfg Config, dsn string) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite3:
		return sqlite.Open(dsn), nil
	case DriverSQLite:
		return sqlite.New(sqlite.Config{DriverName: DriverSQLite, DSN: dsn}), nil
	case DriverPostgres:
		pgCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pgCfg)}), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(dsn string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従ってDBへ接続し、必要に応じてマイグレーションを実行します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	isSQLite := cfg.Driver == DriverSQLite3 || cfg.Driver == DriverSQLite
	if isSQLite && cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := BuildDSN(cfg)
	dialector, err := Dialector(cfg, dsn)
	if err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(dsn, cfg.ConnectTimeout, func(string) (*gorm.DB, error) {
		return gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	})
	if err != nil {
		return nil, err
	}

	if isSQLite {
		// 単一ライターのため接続を1本に絞る（:memory: も同じDBを共有できる）
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates the price_records table and its indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&priceadapters.PriceModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
