// Package config loads application configuration from environment variables.
//
// WHY A CONFIG STRUCT INSTEAD OF os.Getenv CALLS EVERYWHERE?
// Scattered os.Getenv calls are invisible dependencies — you can't tell what
// a component needs without reading its body, and a typo'd variable name
// fails silently at the worst moment. Parsing everything into one struct at
// startup means:
//   - the full configuration surface is documented in one place
//   - defaults and required-ness are declarative (struct tags)
//   - components receive plain values via constructor injection, never a
//     global
//
// caarlos0/env does the parsing: each field's `env` tag names the variable,
// `envDefault` supplies a fallback, and typed fields (int, time.Duration,
// bool) are converted for us.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port int    `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"` // "production" enables Secure cookies

	DBPath string `env:"DB_PATH" envDefault:"data/gallery.db"`

	// JWT_SECRET must be a long random string, e.g. $(openssl rand -hex 32).
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"` // 7 days

	// SESSION_SECRET signs the cookie session that carries the OAuth
	// handshake. Independent from the JWT secret.
	SessionSecret string `env:"SESSION_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	EmailHost string `env:"EMAIL_HOST"`
	EmailPort int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailUser string `env:"EMAIL_USER"`
	EmailPass string `env:"EMAIL_PASS"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"Media Gallery <no-reply@media-gallery.local>"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/google/callback", cfg.Port)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure flag on cookies among other things.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
