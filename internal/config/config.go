package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Config holds runtime configuration loaded from env.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	DatabaseURL    string `env:"DATABASE_URL"`
	ValkeyAddr     string `env:"VALKEY_ADDR"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	TMDBAPIKey     string  `env:"TMDB_API_KEY"`
	TMDBRegion     string  `env:"TMDB_REGION" envDefault:"US"`
	TMDBLanguage   string  `env:"TMDB_LANGUAGE" envDefault:"en-US"`
	TMDBRatePerSec float64 `env:"TMDB_RATE_PER_SEC" envDefault:"4" validate:"gte=0"`
	TMDBTestMode   bool    `env:"TMDB_TEST_MODE"`

	CatalogCacheTTL     time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"6h" validate:"gte=0"`
	CatalogFallbackFile string        `env:"CATALOG_FALLBACK_FILE"`

	BattleSize    int           `env:"BATTLE_SIZE" envDefault:"8" validate:"gte=2,lte=64"`
	VoteWindow    time.Duration `env:"VOTE_WINDOW" envDefault:"60s" validate:"gte=0"`
	NextPairDelay time.Duration `env:"NEXT_PAIR_DELAY" envDefault:"3s" validate:"gte=0"`
	SurveyTTL     time.Duration `env:"SURVEY_TTL" envDefault:"30m" validate:"gt=0"`

	CursorSecretRaw    string   `env:"CURSOR_SECRET"`
	CursorSecret       []byte
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	Env       string `env:"ENV" envDefault:"development"`
}

var validate = validator.New()

// FromEnv parses and validates the environment. Without CURSOR_SECRET an
// ephemeral secret is generated, so cursors do not survive a restart.
func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, fmt.Errorf("invalid config %s (%s)", verrs[0].Namespace(), verrs[0].Tag())
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if c.CursorSecretRaw != "" {
		c.CursorSecret = []byte(c.CursorSecretRaw)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return Config{}, fmt.Errorf("generate cursor secret: %w", err)
		}
		log.Warn().Msg("CURSOR_SECRET not set; using an ephemeral secret")
		c.CursorSecret = buf
	}
	return c, nil
}

// InMemory reports whether the service runs without Postgres.
func (c Config) InMemory() bool { return c.DatabaseURL == "" }
