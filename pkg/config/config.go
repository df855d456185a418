package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds everything needed to connect to chat and open the store.
type Settings struct {
	Channel  string `env:"TWITCH_CHANNEL,notEmpty"`
	Username string `env:"TWITCH_USERNAME,notEmpty"`
	Token    string `env:"TWITCH_TOKEN,notEmpty"`
	Prefix   string `env:"COMMAND_PREFIX" envDefault:"!"`

	// DatabaseDriver selects the store backend: sqlite3 or postgres.
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	// DatabaseDSN is a file path for sqlite3 or a connection string for
	// postgres.
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"guessbot.db"`
}

// Load reads Settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse environment: %v", err)
	}
	return s, nil
}
