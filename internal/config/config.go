package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken      string        `env:"DISCORD_TOKEN,required"`
	StoragePath       string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DefaultVolume     int           `env:"DEFAULT_VOLUME" envDefault:"100"`
	FailureCeiling    int           `env:"FAILURE_CEILING" envDefault:"3"`
	RecoveryWindow    time.Duration `env:"RECOVERY_WINDOW" envDefault:"5s"`
	InitSlashCommands bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

// New loads .env (if present) and parses the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
