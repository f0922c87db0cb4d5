package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"garage-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Session      SessionConfig      `yaml:"session"`
	Log          LogConfig          `yaml:"log"`
	CORS         CORSConfig         `yaml:"cors"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Loyalty      LoyaltyConfig      `yaml:"loyalty"`
	Notification NotificationConfig `yaml:"notification"`
	Tracing      TracingConfig      `yaml:"tracing"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Bootstrap    BootstrapConfig    `yaml:"bootstrap"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings. An empty host
// selects the in-memory store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// SessionConfig contains session cookie settings
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	CookieName string `yaml:"cookie_name"`
	Secure     bool   `yaml:"secure"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig throttles login and registration per client IP.
// Forwarding headers are honoured only when the connection comes from one of
// TrustedProxies (addresses or CIDR ranges).
type RateLimitConfig struct {
	LoginPerMinute int      `yaml:"login_per_minute"`
	Burst          int      `yaml:"burst"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

func (r RateLimitConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(r.TrustedProxies))
	for _, entry := range r.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

type LevelConfig struct {
	Level           string          `yaml:"level"`
	MinPoints       int64           `yaml:"min_points"`
	PointsEarnRate  decimal.Decimal `yaml:"points_earn_rate"`
	DiscountPercent decimal.Decimal `yaml:"discount_percent"`
}

type LoyaltyConfig struct {
	TaxPercent              *decimal.Decimal `yaml:"tax_percent"`
	DefaultTransactionLimit int              `yaml:"default_transaction_limit"`
	MaxTransactionLimit     int              `yaml:"max_transaction_limit"`
	Levels                  []LevelConfig    `yaml:"levels"`
}

// NotificationConfig contains SendGrid settings. Without an API key
// notifications are dropped.
type NotificationConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	OwnerEmail     string `yaml:"owner_email"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	Environment string  `yaml:"environment"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AbandonStaleCarts   string `yaml:"abandon_stale_carts"`
	AuditLedgers        string `yaml:"audit_ledgers"`
	StaleCartAfterHours int    `yaml:"stale_cart_after_hours"`
}

func (s SchedulerConfig) StaleCartAfter() time.Duration {
	return time.Duration(s.StaleCartAfterHours) * time.Hour
}

// BootstrapConfig names the owner account created on first start.
type BootstrapConfig struct {
	OwnerUsername string `yaml:"owner_username"`
	OwnerPassword string `yaml:"owner_password"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Session
	if val := os.Getenv("SESSION_SECRET"); val != "" {
		c.Session.Secret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Notification
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notification.SendGridAPIKey = val
	}

	// Tracing
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
		c.Tracing.Enabled = true
	}

	// Bootstrap
	if val := os.Getenv("OWNER_PASSWORD"); val != "" {
		c.Bootstrap.OwnerPassword = val
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	// Database
	if c.Database.Enabled() {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxConns == 0 {
			c.Database.MaxConns = 10
		}
	}

	// Session
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 7 * 24 * 60
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "garage_session"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Rate limit
	if c.RateLimit.LoginPerMinute <= 0 {
		c.RateLimit.LoginPerMinute = 10
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
	if _, err := c.RateLimit.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}

	// Loyalty
	if c.Loyalty.TaxPercent == nil {
		tax := decimal.NewFromInt(10)
		c.Loyalty.TaxPercent = &tax
	}
	if c.Loyalty.TaxPercent.IsNegative() {
		return fmt.Errorf("tax percent must be non-negative")
	}
	if c.Loyalty.DefaultTransactionLimit <= 0 {
		c.Loyalty.DefaultTransactionLimit = 50
	}
	if c.Loyalty.MaxTransactionLimit <= 0 {
		c.Loyalty.MaxTransactionLimit = 500
	}
	if c.Loyalty.DefaultTransactionLimit > c.Loyalty.MaxTransactionLimit {
		return fmt.Errorf("default transaction limit %d exceeds max %d",
			c.Loyalty.DefaultTransactionLimit, c.Loyalty.MaxTransactionLimit)
	}
	if len(c.Loyalty.Levels) > 0 {
		rules, err := c.Loyalty.rules()
		if err != nil {
			return err
		}
		if err := domain.ValidateLevelTable(rules); err != nil {
			return fmt.Errorf("loyalty levels: %w", err)
		}
	}

	// Notification
	if c.Notification.SendGridAPIKey != "" && c.Notification.FromEmail == "" {
		return fmt.Errorf("notification from_email is required when SendGrid is configured")
	}
	if c.Notification.FromName == "" {
		c.Notification.FromName = "Garage"
	}

	// Tracing
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "garage-backend"
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = "development"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	// Scheduler
	if c.Scheduler.AbandonStaleCarts == "" {
		c.Scheduler.AbandonStaleCarts = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.AuditLedgers == "" {
		c.Scheduler.AuditLedgers = "0 30 3 * * *" // 3:30 AM UTC
	}
	if c.Scheduler.StaleCartAfterHours <= 0 {
		c.Scheduler.StaleCartAfterHours = 72
	}

	// Bootstrap
	if c.Bootstrap.OwnerUsername != "" && c.Bootstrap.OwnerPassword == "" {
		return fmt.Errorf("bootstrap owner password is required")
	}

	return nil
}

func (l LoyaltyConfig) rules() ([]domain.MemberLevelRule, error) {
	rules := make([]domain.MemberLevelRule, 0, len(l.Levels))
	for _, lc := range l.Levels {
		tier, err := domain.ParseTier(strings.ToLower(lc.Level))
		if err != nil {
			return nil, fmt.Errorf("loyalty levels: %w", err)
		}
		rules = append(rules, domain.MemberLevelRule{
			Level:           tier,
			MinPoints:       lc.MinPoints,
			PointsEarnRate:  lc.PointsEarnRate,
			DiscountPercent: lc.DiscountPercent,
		})
	}
	return rules, nil
}

// Tax returns the presentation tax percent applied to cart totals.
func (l LoyaltyConfig) Tax() decimal.Decimal {
	if l.TaxPercent == nil {
		return decimal.Zero
	}
	return *l.TaxPercent
}

// LevelRules returns the configured level table, or the built-in defaults
// when none is configured.
func (l LoyaltyConfig) LevelRules() []domain.MemberLevelRule {
	if len(l.Levels) == 0 {
		return domain.DefaultLevelRules()
	}
	rules, err := l.rules()
	if err != nil {
		return domain.DefaultLevelRules()
	}
	return rules
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
