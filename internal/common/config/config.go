package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"3000"`
		Origin string `env:"ORIGIN" envDefault:"*"`
	}

	Bot struct {
		Token   string `env:"BOT_TOKEN,required"`
		OwnerID int64  `env:"OWNER_ID,required"`
	}

	Keepalive struct {
		PingURL      string        `env:"PING_URL"`
		PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"5m"`
	}

	Storage struct {
		// Backend selects where the ledger snapshot lives: "file" or "redis".
		Backend  string `env:"STORAGE_BACKEND" envDefault:"file"`
		DataFile string `env:"DATA_FILE" envDefault:"db.json"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		Key      string `env:"REDIS_LEDGER_KEY" envDefault:"escrow:ledger"`
	}
}

func Load() *Config {
	// .env is optional; production environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
