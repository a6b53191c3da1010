// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"instantpay/internal/config"
	"instantpay/internal/models"
	"log"
	"os"
	"time"

	"instantpay/internal/repositories/cache"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB
var CacheService *cache.CacheService

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// ConnectTimeout bounds dialing a new connection.
	ConnectTimeout time.Duration
	// StatementTimeout makes the server cancel any statement running longer.
	StatementTimeout time.Duration
}

// LoadDBConfig reads the pool settings from the environment.
func LoadDBConfig() DBConfig {
	return DBConfig{
		MaxIdleConns:     config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:     config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime:  config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime:  config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:   config.GetDurationEnv("DB_CONNECT_TIMEOUT", 5*time.Second),
		StatementTimeout: config.GetDurationEnv("DB_STATEMENT_TIMEOUT", 5*time.Second),
	}
}

// InitDB initializes the database connection.
// It sets up the connection pool, performs migrations,
// and connects the Redis transfer cache.
func InitDB(zl *zap.Logger) error {
	if err := initPostgres(zl, LoadDBConfig()); err != nil {
		return err
	}

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	redisClient := cache.NewRedisClient(redisCfg)
	CacheService = cache.NewCacheService(redisClient, config.GetDurationEnv("TRANSFER_CACHE_TTL", 24*time.Hour))

	if err := DB.AutoMigrate(&models.Account{}, &models.Transfer{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	zl.Info("schema migrated", zap.Strings("tables", []string{"accounts", "transfers"}))
	return nil
}

// dsn builds a keyword/value connection string. Timeouts of zero are left
// to the server defaults.
func (c DBConfig) dsn(host, user, password, name, port, sslmode string) string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, name, port, sslmode)
	if seconds := int(c.ConnectTimeout / time.Second); seconds > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", seconds)
	}
	if ms := c.StatementTimeout.Milliseconds(); ms > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", ms)
	}
	return dsn
}

func initPostgres(zl *zap.Logger, poolCfg DBConfig) error {
	dsn := poolCfg.dsn(
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", "postgres"),
		config.GetEnv("DB_NAME", "instantpay"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_SSLMODE", "disable"),
	)

	// Configure GORM logger to ignore "record not found" errors
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !config.IsProduction(),
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(poolCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	zl.Info("postgres connected",
		zap.Int("maxIdleConns", poolCfg.MaxIdleConns),
		zap.Int("maxOpenConns", poolCfg.MaxOpenConns),
	)
	return nil
}

// Close releases the Postgres pool and the Redis client.
func Close(zl *zap.Logger) {
	if DB != nil {
		if sqlDB, err := DB.DB(); err != nil {
			zl.Warn("failed to get database instance", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			zl.Warn("failed to close database connection", zap.Error(err))
		}
	}
	if CacheService != nil {
		if err := CacheService.Close(); err != nil {
			zl.Warn("failed to close redis connection", zap.Error(err))
		}
	}
}

// Ping checks the Postgres connection.
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
