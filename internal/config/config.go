// Package config loads the process-wide configuration once at startup.
// The resulting struct is immutable and passed by reference; nothing in the
// gateway reads the environment after Load returns.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Mailgun holds the email provider credentials. Optional: when unset the
// email adapter is disabled and notification sends report an integration
// failure.
type Mailgun struct {
	Domain string `env:"MAILGUN_DOMAIN"`
	APIKey string `env:"MAILGUN_API_KEY"`
	Sender string `env:"MAILGUN_SENDER,default=noreply@vrno.market"`
}

// Enabled reports whether the provider is configured.
func (m Mailgun) Enabled() bool { return m.Domain != "" && m.APIKey != "" }

// Twilio holds the SMS provider credentials. Optional.
type Twilio struct {
	AccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	PhoneNumber string `env:"TWILIO_PHONE_NUMBER"`
}

// Enabled reports whether the provider is configured.
func (t Twilio) Enabled() bool { return t.AccountSID != "" && t.AuthToken != "" }

// PayPal holds the payment provider credentials. Optional.
type PayPal struct {
	ClientID     string `env:"PAYPAL_CLIENT_ID"`
	ClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
	Environment  string `env:"PAYPAL_ENVIRONMENT,default=sandbox"`
}

// Enabled reports whether the provider is configured.
func (p PayPal) Enabled() bool { return p.ClientID != "" && p.ClientSecret != "" }

// Config is the full gateway configuration.
type Config struct {
	Addr           string        `env:"ADDR,default=:8080"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	APIKey         string        `env:"VRNO_API_KEY,required"`
	TokenTTL       time.Duration `env:"AUTH_TOKEN_TTL,default=15m"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS,default=*"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`

	Mailgun Mailgun
	Twilio  Twilio
	PayPal  PayPal
}

// Load reads a local .env file if present, then decodes the environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}
