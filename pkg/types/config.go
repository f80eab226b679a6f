package types

import "time"

type Config struct {
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint     `envconfig:"SERVER_PORT" default:"8000"`
	DatabaseURL     string   `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint     `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint     `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`
	CORSOrigins     []string `envconfig:"CORS_ORIGINS"`

	// Session tokens
	AccessTokenSecret  string        `envconfig:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiry  time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY" default:"24h"`
	RefreshTokenSecret string        `envconfig:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiry time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"240h"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	SuperAdminEmail    string `envconfig:"SUPER_ADMIN_EMAIL"`
	SuperAdminPassword string `envconfig:"SUPER_ADMIN_PASSWORD"`

	// Rate limiting
	RateLimitMax      int           `envconfig:"RATE_LIMIT_MAX" default:"2"`
	RateLimitRouteMax int           `envconfig:"RATE_LIMIT_ROUTE_MAX" default:"50"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10s"`

	// Cache backend: "memory" or "redis"
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheSize    int    `envconfig:"CACHE_SIZE" default:"10000"`
	RedisURL     string `envconfig:"REDIS_URL"`

	// Chat assistant
	GeminiAPIKey         string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel          string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-pro-latest"`
	GeminiBaseURL        string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiRequestsPerSec float64 `envconfig:"GEMINI_REQUESTS_PER_SEC" default:"1"`

	// Outbound mail. Empty host logs messages instead of sending them.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM"`

	// Outbound SMS. Empty account SID logs messages instead of sending them.
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`

	// License document uploads
	LicenseBucket string `envconfig:"LICENSE_BUCKET"`
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
