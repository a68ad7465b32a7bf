package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string `mapstructure:"ADDR"`
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// PublicURL prefixes links sent out of band, such as reset emails.
	PublicURL      string `mapstructure:"PUBLIC_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	JWTSigningKey    string        `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer        string        `mapstructure:"JWT_ISSUER"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	PasswordResetTTL time.Duration `mapstructure:"PASSWORD_RESET_TTL"`
	CookieSecure     bool          `mapstructure:"COOKIE_SECURE"`

	// Empty DatabaseURL selects the in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Empty RedisURL keeps sessions in the primary store.
	RedisURL string `mapstructure:"REDIS_URL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Per client IP on anonymous form posts. Without REDIS_URL each
	// instance enforces the limit on its own.
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int    `mapstructure:"RATE_LIMIT_BURST"`
	TrustedProxies     string `mapstructure:"TRUSTED_PROXIES"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	CleanupInterval time.Duration `mapstructure:"CLEANUP_INTERVAL"`

	SeedDemo      bool   `mapstructure:"SEED_DEMO"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

const devSigningKey = "dev-secret-key-change-in-production"

var defaults = map[string]any{
	"ADDR":                  ":8080",
	"ENV":                   "development",
	"LOG_LEVEL":             "info",
	"PUBLIC_URL":            "http://localhost:8080",
	"ALLOWED_ORIGINS":       "",
	"JWT_SIGNING_KEY":       devSigningKey,
	"JWT_ISSUER":            "civic",
	"ACCESS_TOKEN_TTL":      "15m",
	"REFRESH_TOKEN_TTL":     "720h",
	"SESSION_TTL":           "720h",
	"PASSWORD_RESET_TTL":    "1h",
	"COOKIE_SECURE":         false,
	"DATABASE_URL":          "",
	"REDIS_URL":             "",
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "civic.changes",
	"KAFKA_GROUP_ID":        "",
	"RATE_LIMIT_PER_MINUTE": 10,
	"RATE_LIMIT_BURST":      5,
	"TRUSTED_PROXIES":       "",
	"REQUEST_TIMEOUT":       "15s",
	"SHUTDOWN_TIMEOUT":      "10s",
	"CLEANUP_INTERVAL":      "10m",
	"SEED_DEMO":             false,
	"ADMIN_EMAIL":           "admin@civic.local",
	"ADMIN_PASSWORD":        "",
}

// Load reads CIVIC_-prefixed environment variables and an optional
// config.yaml (working directory or ./config) on top of the defaults.
func Load() (Server, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("CIVIC")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Server{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Server) Validate() error {
	if c.IsProduction() && (c.JWTSigningKey == devSigningKey || len(c.JWTSigningKey) < 32) {
		return errors.New("config: JWT_SIGNING_KEY must be set to at least 32 bytes in production")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("config: token and session TTLs must be positive")
	}
	if c.SeedDemo && len(c.AdminPassword) < 8 {
		return errors.New("config: SEED_DEMO requires ADMIN_PASSWORD of at least 8 characters")
	}
	if c.RefreshTokenTTL > c.SessionTTL {
		return errors.New("config: REFRESH_TOKEN_TTL cannot exceed SESSION_TTL")
	}
	return nil
}

func (c Server) IsProduction() bool {
	return c.Environment == "production"
}

// Brokers splits the comma-separated broker list; nil when Kafka is disabled.
func (c Server) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Origins lists websocket origins accepted by the realtime endpoint.
// Empty falls back to the same-origin check.
func (c Server) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func (c Server) TrustedProxyCIDRs() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
