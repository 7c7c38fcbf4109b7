package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	TxMaxAttempts      int    `envconfig:"DB_TX_MAX_ATTEMPTS" default:"3"`
	MigrateOnStart     bool   `envconfig:"MIGRATE_ON_START" default:"false"`

	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	JWTRefreshSecret string        `envconfig:"JWT_REFRESH_SECRET"`
	JWTAccessTTL     time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
	JWTRefreshTTL    time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`

	// Studio calendar settings
	StudioTimezone    string `envconfig:"STUDIO_TIMEZONE" default:"America/Guayaquil"`
	CalendarDays      int    `envconfig:"CALENDAR_DAYS" default:"14"`
	CalendarOpenHour  int    `envconfig:"CALENDAR_OPEN_HOUR" default:"6"`
	CalendarCloseHour int    `envconfig:"CALENDAR_CLOSE_HOUR" default:"22"`

	FrontendURL        string   `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	RateLimitRPS       float64  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// Payments
	PaymentPendingTTL time.Duration `envconfig:"PAYMENT_PENDING_TTL" default:"24h"`
	PaymentSweepSpec  string        `envconfig:"PAYMENT_SWEEP_SPEC" default:"@every 15m"`

	// Email queue and notifier settings
	EmailQueueName           string `envconfig:"EMAIL_QUEUE_NAME" default:"email_queue"`
	EmailDeadLetterQueueName string `envconfig:"EMAIL_DEAD_LETTER_QUEUE_NAME" default:"email_queue_dlq"`
	EmailPollTimeoutSec      int    `envconfig:"EMAIL_POLL_TIMEOUT_SEC" default:"30"`
	EmailPollMaxMsg          int    `envconfig:"EMAIL_POLL_MAX_MSG" default:"1"`
	EmailVisibilitySec       int    `envconfig:"EMAIL_VISIBILITY_SEC" default:"60"`
	EmailMaxRetries          int    `envconfig:"EMAIL_MAX_RETRIES" default:"5"`
	EmailMaxDeliveries       int    `envconfig:"EMAIL_MAX_DELIVERIES" default:"5"`
	EmailBackoffInitialSec   int    `envconfig:"EMAIL_BACKOFF_INITIAL_SEC" default:"1"`
	EmailBackoffMaxSec       int    `envconfig:"EMAIL_BACKOFF_MAX_SEC" default:"60"`
	EmailRequestTimeoutSec   int    `envconfig:"EMAIL_REQUEST_TIMEOUT_SEC" default:"10"`
	EmailAPIURL              string `envconfig:"EMAIL_API_URL" default:"https://api.resend.com/emails"`
	EmailAPIKey              string `envconfig:"EMAIL_API_KEY"`
	EmailFrom                string `envconfig:"EMAIL_FROM" default:"Anko Studio <no-reply@anko.studio>"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CalendarOpenHour < 0 || c.CalendarCloseHour > 24 || c.CalendarOpenHour >= c.CalendarCloseHour {
		return fmt.Errorf("invalid calendar hours %d-%d", c.CalendarOpenHour, c.CalendarCloseHour)
	}
	if c.CalendarDays <= 0 {
		return fmt.Errorf("CALENDAR_DAYS must be positive")
	}
	if c.EmailMaxRetries < 1 {
		return fmt.Errorf("EMAIL_MAX_RETRIES must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the studio time zone used for slots and the calendar.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.StudioTimezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// RefreshSecret falls back to the access secret when no dedicated one is set.
func (c *Config) RefreshSecret() string {
	if c.JWTRefreshSecret == "" {
		return c.JWTSecret
	}
	return c.JWTRefreshSecret
}
