package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	ServerURL         string `env:"ETIMS_SERVER_URL,required=true"`
	TIN               string `env:"ETIMS_TIN,required=true"`
	BranchID          string `env:"ETIMS_BRANCH_ID,default=00"`
	CMCKey            string `env:"ETIMS_CMC_KEY,required=true"`
	RequestTimeoutSec int    `env:"REQUEST_TIMEOUT_SEC,default=30"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) RequestTimeout() time.Duration {
	if c == nil || c.RequestTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSec) * time.Second
}
