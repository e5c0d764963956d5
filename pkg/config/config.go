package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Sales         SalesConfig
	Mailer        MailerConfig
	TextGen       TextGenConfig
	CORS          CORSConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Sales.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISPENSARY_APP_ENV" required:"true"`
	Port         string `envconfig:"DISPENSARY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DISPENSARY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISPENSARY_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"DISPENSARY_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DISPENSARY_DB_DSN"`

	LegacyHost     string `envconfig:"DISPENSARY_DB_HOST"`
	LegacyPort     int    `envconfig:"DISPENSARY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DISPENSARY_DB_USER"`
	LegacyPassword string `envconfig:"DISPENSARY_DB_PASSWORD"`
	LegacyName     string `envconfig:"DISPENSARY_DB_NAME"`
	LegacySSLMode  string `envconfig:"DISPENSARY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DISPENSARY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DISPENSARY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DISPENSARY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISPENSARY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DISPENSARY_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DISPENSARY_REDIS_URL"`
	Address      string        `envconfig:"DISPENSARY_REDIS_ADDR"`
	Password     string        `envconfig:"DISPENSARY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISPENSARY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISPENSARY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISPENSARY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISPENSARY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISPENSARY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISPENSARY_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"DISPENSARY_REDIS_KEY_PREFIX" default:"pos"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DISPENSARY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DISPENSARY_JWT_ISSUER" default:"dispensary-pos"`
	ExpirationMinutes      int    `envconfig:"DISPENSARY_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"DISPENSARY_REFRESH_TOKEN_TTL_MINUTES" default:"720"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DISPENSARY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DISPENSARY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DISPENSARY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DISPENSARY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DISPENSARY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DISPENSARY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"DISPENSARY_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DISPENSARY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DISPENSARY_AUTO_MIGRATE" default:"false"`
}

// SalesConfig holds fallbacks used when company_settings has no row yet.
type SalesConfig struct {
	DefaultTaxRate   string        `envconfig:"DISPENSARY_DEFAULT_TAX_RATE" default:"0.07"`
	DefaultVATRate   string        `envconfig:"DISPENSARY_DEFAULT_VAT_RATE" default:"0.07"`
	InvoicePrefix    string        `envconfig:"DISPENSARY_INVOICE_PREFIX" default:"INV"`
	Currency         string        `envconfig:"DISPENSARY_CURRENCY" default:"THB"`
	PendingOrderTTL  time.Duration `envconfig:"DISPENSARY_PENDING_ORDER_TTL" default:"0"`
	LowStockDefault  int           `envconfig:"DISPENSARY_LOW_STOCK_DEFAULT" default:"5"`
	ReportTopItemCap int           `envconfig:"DISPENSARY_REPORT_TOP_ITEMS" default:"10"`
}

// TaxRate returns the parsed default tax rate.
func (s SalesConfig) TaxRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.DefaultTaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// VATRate returns the parsed default VAT rate.
func (s SalesConfig) VATRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.DefaultVATRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (s SalesConfig) validate() error {
	for env, raw := range map[string]string{
		EnvDefaultTaxRate: s.DefaultTaxRate,
		EnvDefaultVATRate: s.DefaultVATRate,
	} {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", env, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1", env)
		}
	}
	if s.PendingOrderTTL < 0 {
		return fmt.Errorf("%s cannot be negative", EnvPendingOrderTTL)
	}
	return nil
}

type MailerConfig struct {
	RelayURL    string        `envconfig:"DISPENSARY_MAILER_RELAY_URL"`
	APIKey      string        `envconfig:"DISPENSARY_MAILER_API_KEY"`
	DefaultFrom string        `envconfig:"DISPENSARY_MAILER_FROM_EMAIL"`
	Timeout     time.Duration `envconfig:"DISPENSARY_MAILER_TIMEOUT" default:"10s"`
}

// Enabled reports whether invoice email delivery is configured.
func (m MailerConfig) Enabled() bool {
	return strings.TrimSpace(m.RelayURL) != "" && strings.TrimSpace(m.DefaultFrom) != ""
}

type TextGenConfig struct {
	Endpoint string        `envconfig:"DISPENSARY_TEXTGEN_ENDPOINT"`
	APIKey   string        `envconfig:"DISPENSARY_TEXTGEN_API_KEY"`
	Model    string        `envconfig:"DISPENSARY_TEXTGEN_MODEL" default:"gpt-4o-mini"`
	Timeout  time.Duration `envconfig:"DISPENSARY_TEXTGEN_TIMEOUT" default:"30s"`
}

// Enabled reports whether natural-language reports can be generated.
func (t TextGenConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DISPENSARY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"DISPENSARY_CRON_INTERVAL" default:"15m"`
	JobTimeout time.Duration `envconfig:"DISPENSARY_CRON_JOB_TIMEOUT" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
