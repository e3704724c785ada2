package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	WaitingOnCancelDormant = "dormant"
	WaitingOnCancelExpire  = "expire"
)

type Config struct {
	Env         string
	Server      ServerConfig
	Redis       RedisConfig
	Reservation ReservationConfig
	Scheduler   SchedulerConfig
	JWT         JWTConfig
	Log         LogConfig
	Kafka       KafkaConfig
}

type ServerConfig struct {
	GRpcPort    int
	MetricsPort int
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

type ReservationConfig struct {
	OfferDuration       time.Duration
	RateLimitJoinMax    int
	RateLimitJoinWindow time.Duration
	PromoteBatchSize    int
	TxMaxRetries        int
	// WaitingOnCancel is "dormant" or "expire".
	WaitingOnCancel string
	AllowRepurchase bool
}

type SchedulerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	Lease           time.Duration
	SweepInterval   time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ClientID             string
	ConsumerGroupID      string
	ConsumerFromOldest   bool
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type LogConfig struct {
	Service  string
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			GRpcPort:    getEnvAsInt("SERVER_GRPC_PORT", 50057),
			MetricsPort: getEnvAsInt("SERVER_METRICS_PORT", 9090),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Reservation: DefaultReservationConfig(),
		Scheduler:   DefaultSchedulerConfig(),
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret"),
			Issuer: getEnv("JWT_ISSUER", "ticketbottle-reservation"),
		},
		Log: LogConfig{
			Service:  getEnv("LOG_SERVICE", "reservation"),
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
			ClientID:             getEnv("KAFKA_CLIENT_ID", "ticketbottle-reservation"),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "reservation-service"),
			ConsumerFromOldest:   getEnvAsBool("KAFKA_CONSUMER_FROM_OLDEST", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultReservationConfig reads the RESERVATION_* and RATE_LIMIT_* variables.
func DefaultReservationConfig() ReservationConfig {
	return ReservationConfig{
		OfferDuration:       getEnvAsDuration("RESERVATION_OFFER_DURATION", 15*time.Minute),
		RateLimitJoinMax:    getEnvAsInt("RATE_LIMIT_JOIN_MAX", 3),
		RateLimitJoinWindow: getEnvAsDuration("RATE_LIMIT_JOIN_WINDOW", 30*time.Minute),
		PromoteBatchSize:    getEnvAsInt("RESERVATION_PROMOTE_BATCH_SIZE", 100),
		TxMaxRetries:        getEnvAsInt("RESERVATION_TX_MAX_RETRIES", 20),
		WaitingOnCancel:     getEnv("RESERVATION_WAITING_ON_CANCEL", WaitingOnCancelDormant),
		AllowRepurchase:     getEnvAsBool("RESERVATION_ALLOW_REPURCHASE", false),
	}
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval:    getEnvAsDuration("SCHEDULER_POLL_INTERVAL", time.Second),
		BatchSize:       getEnvAsInt("SCHEDULER_BATCH_SIZE", 100),
		Lease:           getEnvAsDuration("SCHEDULER_LEASE", 30*time.Second),
		SweepInterval:   getEnvAsDuration("SCHEDULER_SWEEP_INTERVAL", time.Minute),
		RetryAttempts:   getEnvAsInt("SCHEDULER_RETRY_ATTEMPTS", 3),
		RetryDelay:      getEnvAsDuration("SCHEDULER_RETRY_DELAY", time.Second),
		ShutdownTimeout: getEnvAsDuration("SCHEDULER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func (c *Config) Validate() error {
	if c.Server.GRpcPort <= 0 || c.Server.GRpcPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.GRpcPort)
	}

	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if err := c.Reservation.Validate(); err != nil {
		return err
	}

	if c.Scheduler.PollInterval <= 0 || c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}

	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler batch size must be positive: %d", c.Scheduler.BatchSize)
	}

	if c.Scheduler.Lease <= 0 {
		return fmt.Errorf("scheduler lease must be positive: %s", c.Scheduler.Lease)
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "jwt-secret" {
		if c.Env == "production" {
			return fmt.Errorf("JWT secret must be set in production")
		}
	}

	return nil
}

func (c ReservationConfig) Validate() error {
	if c.OfferDuration <= 0 {
		return fmt.Errorf("offer duration must be positive: %s", c.OfferDuration)
	}

	if c.RateLimitJoinMax <= 0 || c.RateLimitJoinWindow <= 0 {
		return fmt.Errorf("join rate limit must be positive: %d per %s", c.RateLimitJoinMax, c.RateLimitJoinWindow)
	}

	if c.PromoteBatchSize <= 0 {
		return fmt.Errorf("promote batch size must be positive: %d", c.PromoteBatchSize)
	}

	if c.TxMaxRetries <= 0 {
		return fmt.Errorf("transaction retries must be positive: %d", c.TxMaxRetries)
	}

	switch c.WaitingOnCancel {
	case WaitingOnCancelDormant, WaitingOnCancelExpire:
	default:
		return fmt.Errorf("unknown waiting-on-cancel policy: %q", c.WaitingOnCancel)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
