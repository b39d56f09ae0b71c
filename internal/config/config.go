// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every setting the binary reads.
type Config struct {
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN" envDefault:"data/wordquest.db"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"6"`
	MaxLevel    int `env:"MAX_LEVEL" envDefault:"100"`

	StartingLives    int `env:"STARTING_LIVES" envDefault:"5"`
	MaxLives         int `env:"MAX_LIVES" envDefault:"5"`
	StartingCoins    int `env:"STARTING_COINS" envDefault:"0"`
	SeedRevealLetter int `env:"SEED_REVEAL_LETTER" envDefault:"1"`
	SeedSkipWord     int `env:"SEED_SKIP_WORD" envDefault:"0"`
	CoinsPerScore    int `env:"COINS_PER_SCORE" envDefault:"10"`

	PriceLife         int `env:"PRICE_LIFE" envDefault:"20"`
	PriceRevealLetter int `env:"PRICE_REVEAL_LETTER" envDefault:"10"`
	PriceSkipWord     int `env:"PRICE_SKIP_WORD" envDefault:"30"`

	RefillTick time.Duration `env:"REFILL_TICK" envDefault:"1m"`
	Timezone   string        `env:"TIMEZONE" envDefault:"Local"`

	WordsFile string `env:"WORDS_FILE"`
}

// Load reads files (default ".env") into the process environment without
// overriding variables that are already set, then parses the environment.
// Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DBDriver != "sqlite3" && c.DBDriver != "postgres":
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.DBDriver)
	case c.MaxAttempts < 1:
		return errors.New("MAX_ATTEMPTS must be at least 1")
	case c.MaxLives < 1 || c.StartingLives < 0 || c.StartingLives > c.MaxLives:
		return errors.New("STARTING_LIVES must be between 0 and MAX_LIVES")
	case c.CoinsPerScore < 1:
		return errors.New("COINS_PER_SCORE must be at least 1")
	case c.RefillTick <= 0:
		return errors.New("REFILL_TICK must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// Level returns the parsed log level.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
