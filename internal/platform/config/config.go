package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr          string
	LogLevel      slog.Level
	LogFormat     string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	Coordination CoordinationConfig
	Escalation   EscalationConfig

	// RateLimitDisabled turns off request throttling, for local runs.
	RateLimitDisabled bool
}

// PostgresConfig holds connection settings for the investigation store.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection settings for the snapshot cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the audit event publisher.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// CoordinationConfig tunes agent dispatch.
type CoordinationConfig struct {
	// AgentDeadline bounds each individual agent call; a call past its
	// deadline counts as a failure or abstain, never a fatal error.
	AgentDeadline time.Duration
	// AnalysisTimeout bounds the whole analyze-entity pipeline.
	AnalysisTimeout time.Duration
	// UpdateRetries bounds optimistic-concurrency retries on progress writes.
	UpdateRetries int
	// ResponseTimeBaseline normalizes agent response times when ranking
	// availability. Agents at the baseline score half the response penalty.
	ResponseTimeBaseline time.Duration
}

// EscalationConfig holds human-review thresholds. These are rules data, not
// constants in code, so operators can tune them per deployment.
type EscalationConfig struct {
	HighRiskThreshold      float64
	LowConfidenceThreshold float64
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          envString("FRAUDLENS_ADDR", ":8080"),
		LogLevel:      parseLogLevel(os.Getenv("FRAUDLENS_LOG_LEVEL")),
		LogFormat:     envString("FRAUDLENS_LOG_FORMAT", "json"),
		JWTSigningKey: envString("FRAUDLENS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Postgres: PostgresConfig{
			URL: os.Getenv("FRAUDLENS_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("FRAUDLENS_REDIS_URL"),
			PoolSize:     envInt("FRAUDLENS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("FRAUDLENS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("FRAUDLENS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("FRAUDLENS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("FRAUDLENS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("FRAUDLENS_KAFKA_BROKERS")),
			AuditTopic: envString("FRAUDLENS_KAFKA_AUDIT_TOPIC", "fraudlens.audit.events"),
		},
		Coordination: CoordinationConfig{
			AgentDeadline:        envDuration("FRAUDLENS_AGENT_DEADLINE", 10*time.Second),
			AnalysisTimeout:      envDuration("FRAUDLENS_ANALYSIS_TIMEOUT", 2*time.Minute),
			UpdateRetries:        envInt("FRAUDLENS_UPDATE_RETRIES", 3),
			ResponseTimeBaseline: envDuration("FRAUDLENS_RESPONSE_TIME_BASELINE", 2*time.Second),
		},
		Escalation: EscalationConfig{
			HighRiskThreshold:      envFloat("FRAUDLENS_HIGH_RISK_THRESHOLD", 0.8),
			LowConfidenceThreshold: envFloat("FRAUDLENS_LOW_CONFIDENCE_THRESHOLD", 0.3),
		},
		RateLimitDisabled: envBool("FRAUDLENS_RATELIMIT_DISABLED", false),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
