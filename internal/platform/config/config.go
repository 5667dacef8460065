package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. All values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr string

	// PostgresURL enables the postgres-backed stores when set; the service
	// falls back to in-memory stores otherwise (dev mode).
	PostgresURL string

	// Redis backs the DID document cache. Optional.
	Redis RedisConfig

	// Kafka receives audit events drained from the outbox. Optional.
	Kafka KafkaConfig

	// JWTSigningKey signs session tokens minted at wallet login.
	JWTSigningKey string
	// TokenTTL bounds session token lifetime.
	TokenTTL time.Duration

	// DIDCacheTTL bounds staleness of cached DID documents.
	DIDCacheTTL time.Duration
}

// RedisConfig carries connection settings for the go-redis client.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries connection settings for the franz-go client.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("SOLCRED_ADDR", ":8080"),
		PostgresURL:   os.Getenv("SOLCRED_POSTGRES_URL"),
		JWTSigningKey: envOr("SOLCRED_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      durationOr("SOLCRED_TOKEN_TTL", time.Hour),
		DIDCacheTTL:   durationOr("SOLCRED_DID_CACHE_TTL", 5*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("SOLCRED_REDIS_URL"),
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		},
		Kafka: KafkaConfig{
			AuditTopic: envOr("SOLCRED_KAFKA_AUDIT_TOPIC", "solcred.audit"),
		},
	}
	if brokers := os.Getenv("SOLCRED_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
