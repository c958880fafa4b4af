package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	// JWTSigningKey validates operator tokens on mutating routes. Empty
	// disables the auth middleware (actor comes from the request body).
	JWTSigningKey string

	// SessionRetention is the default retention window for cleanup when the
	// caller does not pass one explicitly.
	SessionRetention time.Duration
}

// RedisConfig configures the optional distributed engine lock.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional ops-audit publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("DAPOMASTER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	retention := 720 * time.Hour
	if raw := os.Getenv("SESSION_RETENTION_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours >= 0 {
			retention = time.Duration(hours) * time.Hour
		}
	}

	cfg := Config{
		Addr:             addr,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
		SessionRetention: retention,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
		cfg.Kafka.Topic = os.Getenv("KAFKA_AUDIT_TOPIC")
		if cfg.Kafka.Topic == "" {
			cfg.Kafka.Topic = "dapomaster.audit.ops"
		}
	}

	return cfg
}
