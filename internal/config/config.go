package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	TransitAPI TransitAPIConfig
	Retry      RetryConfig
	Batcher    BatcherConfig
	Offline    OfflineConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Log        LogConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type TransitAPIConfig struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout int // seconds
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

type BatcherConfig struct {
	Window    time.Duration
	FanOut    int
	QueueSize int
}

// OfflineConfig selects the last-known-good snapshot backend: "redis"
// for service deployments, "sqlite" for single-node ones.
type OfflineConfig struct {
	Driver     string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		TransitAPI: TransitAPIConfig{
			BaseURL:        viper.GetString("TRANSIT_API_BASE_URL"),
			UserAgent:      viper.GetString("TRANSIT_API_USER_AGENT"),
			RequestTimeout: viper.GetInt("TRANSIT_API_TIMEOUT"),
		},
		Retry: RetryConfig{
			MaxAttempts: viper.GetInt("RETRY_MAX_ATTEMPTS"),
			BaseDelay:   time.Duration(viper.GetInt("RETRY_BASE_DELAY_MS")) * time.Millisecond,
			Multiplier:  viper.GetFloat64("RETRY_MULTIPLIER"),
			MaxDelay:    time.Duration(viper.GetInt("RETRY_MAX_DELAY_MS")) * time.Millisecond,
		},
		Batcher: BatcherConfig{
			Window:    time.Duration(viper.GetInt("BATCH_WINDOW_MS")) * time.Millisecond,
			FanOut:    viper.GetInt("BATCH_FAN_OUT"),
			QueueSize: viper.GetInt("BATCH_QUEUE_SIZE"),
		},
		Offline: OfflineConfig{
			Driver:     viper.GetString("OFFLINE_STORE_DRIVER"),
			SQLitePath: viper.GetString("OFFLINE_SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:      viper.GetBool("WORKER_ENABLED"),
			PollInterval: time.Duration(viper.GetInt("WORKER_POLL_INTERVAL_MS")) * time.Millisecond,
		},
	}

	// Set default values if not provided
	if cfg.TransitAPI.RequestTimeout == 0 {
		cfg.TransitAPI.RequestTimeout = 15
	}
	if cfg.TransitAPI.UserAgent == "" {
		cfg.TransitAPI.UserAgent = "journey-microservice"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = time.Second
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Batcher.Window == 0 {
		cfg.Batcher.Window = 250 * time.Millisecond
	}
	if cfg.Batcher.FanOut == 0 {
		cfg.Batcher.FanOut = 4
	}
	if cfg.Batcher.QueueSize == 0 {
		cfg.Batcher.QueueSize = 100
	}
	if cfg.Offline.Driver == "" {
		cfg.Offline.Driver = "redis"
	}
	if cfg.Offline.SQLitePath == "" {
		cfg.Offline.SQLitePath = "offline.db"
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = 30 * time.Second
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
