// Package mysql opens the gorm connection used by the MySQL store.
package mysql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config configures the MySQL connection. The DSN must set parseTime=true.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// LockTimeout sets innodb_lock_wait_timeout on every session, rounded
	// up to whole seconds. Zero keeps the server default.
	LockTimeout time.Duration
	// ConnectRetryMax is how long to keep retrying the first ping; zero
	// means a single attempt.
	ConnectRetryMax time.Duration
	// LogLevel is one of silent, error, warn or info.
	LogLevel string
}

// Open connects to MySQL and waits until the server answers.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	dsn, err := withLockTimeout(cfg.DSN, cfg.LockTimeout)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 newLogger(cfg.LogLevel),
	}

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(mysql.Open(dsn), gormConfig)
		if err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		return sqlDB.PingContext(ctx)
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("mysql not ready")
	}

	if err := backoff.RetryNotify(connect, connectBackOff(ctx, cfg.ConnectRetryMax), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// withLockTimeout adds innodb_lock_wait_timeout to the DSN. The driver
// issues DSN system variables as SET statements on each new connection.
func withLockTimeout(dsn string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return dsn, nil
	}

	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
	}

	seconds := int64((timeout + time.Second - 1) / time.Second)
	if parsed.Params == nil {
		parsed.Params = make(map[string]string)
	}
	parsed.Params["innodb_lock_wait_timeout"] = strconv.FormatInt(seconds, 10)

	return parsed.FormatDSN(), nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func connectBackOff(ctx context.Context, maxElapsed time.Duration) backoff.BackOff {
	if maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxElapsed

	return backoff.WithContext(b, ctx)
}

func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	default:
		logLevel = logger.Silent
	}

	return logger.Default.LogMode(logLevel)
}
