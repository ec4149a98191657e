// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Identity provider names accepted in IDENTITY_PROVIDER.
const (
	IdentityProviderLocal    = "local"
	IdentityProviderFirebase = "firebase"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the onboarding HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// RequestTimeout bounds every onboarding request including store calls (e.g. "10s").
	RequestTimeout string `mapstructure:"REQUEST_TIMEOUT"`
	// CORSAllowedOrigins is a comma-separated list of origins allowed to call the API.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// PolicyFile is an optional Rego module replacing the built-in onboarding policy.
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// IdentityProvider selects the identity source: "local" (Postgres identities + RS256/ES256 tokens) or "firebase".
	IdentityProvider string `mapstructure:"IDENTITY_PROVIDER"`
	// JWTPrivateKey is the PEM-encoded private key or path to file; only needed by cmd/seed to mint local tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; required for the local provider.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim expected on local access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim expected on local access tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the lifetime of tokens minted by cmd/seed (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// FirebaseProjectID is the Firebase project; required when IdentityProvider is firebase.
	FirebaseProjectID string `mapstructure:"FIREBASE_PROJECT_ID"`
	// FirebaseCredentialsJSON is the service account JSON; empty uses application default credentials.
	FirebaseCredentialsJSON string `mapstructure:"FIREBASE_CREDENTIALS_JSON"`

	// RedisAddr enables the Redis view-cache invalidation publisher when set.
	// A comma-separated list selects a cluster client.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// CacheKeyPrefix namespaces cached view keys (e.g. linkerai:view).
	CacheKeyPrefix string `mapstructure:"CACHE_KEY_PREFIX"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// When set, profile-change events are published to ProfileEventsTopic.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// ProfileEventsTopic is the Kafka topic for profile-change (cache invalidation) signals.
	ProfileEventsTopic string `mapstructure:"PROFILE_EVENTS_TOPIC"`
	// TelemetryTopic is the Kafka topic for onboarding telemetry events.
	TelemetryTopic string `mapstructure:"TELEMETRY_TOPIC"`
	// KafkaGroupID is the consumer group ID for cmd/worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is optional for cmd/worker: telemetry events are pushed to Loki when set.
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty installs no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on telemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("IDENTITY_PROVIDER", IdentityProviderLocal)
	v.SetDefault("JWT_ISSUER", "linkerai-auth")
	v.SetDefault("JWT_AUDIENCE", "linkerai-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_JSON", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_KEY_PREFIX", "linkerai:view")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("PROFILE_EVENTS_TOPIC", "linkerai-profile-events")
	v.SetDefault("TELEMETRY_TOPIC", "linkerai-telemetry")
	v.SetDefault("KAFKA_GROUP_ID", "linkerai-profile-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "linkerai-onboarding")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	cfg.IdentityProvider = strings.ToLower(strings.TrimSpace(cfg.IdentityProvider))
	switch cfg.IdentityProvider {
	case IdentityProviderLocal:
	case IdentityProviderFirebase:
		if cfg.FirebaseProjectID == "" {
			return nil, errors.New("config: FIREBASE_PROJECT_ID must be set when IDENTITY_PROVIDER=firebase")
		}
	default:
		return nil, errors.New("config: IDENTITY_PROVIDER must be local or firebase")
	}

	if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
		return nil, errors.New("config: REQUEST_TIMEOUT must be a duration (e.g. 10s)")
	}

	if cfg.ProfileEventsTopic != "" && cfg.ProfileEventsTopic == cfg.TelemetryTopic {
		return nil, errors.New("config: PROFILE_EVENTS_TOPIC and TELEMETRY_TOPIC must differ")
	}

	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is development (human-readable logs, seed allowed).
func (c *Config) IsDevelopment() bool {
	return c != nil && strings.EqualFold(c.Env, "development")
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// Timeout parses RequestTimeout. Returns 10s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka publisher is enabled (non-empty list) and to create the writer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// RedisAddrs returns the Redis addresses from the comma-separated config.
func (c *Config) RedisAddrs() []string {
	if c == nil {
		return nil
	}
	return splitList(c.RedisAddr)
}

// AllowedOrigins returns the CORS origins list; defaults to "*" when empty.
func (c *Config) AllowedOrigins() []string {
	if c == nil {
		return []string{"*"}
	}
	out := splitList(c.CORSAllowedOrigins)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
