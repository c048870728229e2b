package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	envcfg "github.com/Skotchmaster/blog_api/pkg/config"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

type Config struct {
	Production bool
	ServerPort int
	LogLevel   string

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte
	CookieSecret  []byte
	SaltRounds    int

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	CORSOrigins        []string
	LoginRatePerMinute int

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads .env when it exists and then the process environment. Every missing
// required variable is reported in one error.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var req envcfg.Required
	cfg := &Config{
		Production: envcfg.EnvDefault("APP_ENV", "development") == "production",
		ServerPort: envcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   envcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: req.String("DATABASE_URL"),

		AccessSecret:  req.Bytes("ACCESS_TOKEN_SECRET"),
		RefreshSecret: req.Bytes("REFRESH_TOKEN_SECRET"),
		CookieSecret:  req.Bytes("COOKIE_SECRET"),

		AccessTTL:  envcfg.EnvDurationDefault("ACCESS_TOKEN_TTL", tokens.DefaultAccessTTL),
		RefreshTTL: envcfg.EnvDurationDefault("REFRESH_TOKEN_TTL", tokens.DefaultRefreshTTL),

		CORSOrigins:        envcfg.CSV(envcfg.EnvDefault("CORS_ORIGINS", "")),
		LoginRatePerMinute: envcfg.EnvIntDefault("LOGIN_RATE_PER_MINUTE", 10),

		KafkaBrokers: envcfg.CSV(envcfg.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      envcfg.EnvDefault("ES_URL", ""),
		ESUser:     envcfg.EnvDefault("ES_USER", ""),
		ESPassword: envcfg.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    envcfg.EnvDefault("ES_INDEX", "posts"),
	}

	rounds := req.String("SALT_ROUNDS")
	if err := req.Err(); err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(rounds)
	if err != nil {
		return nil, fmt.Errorf("SALT_ROUNDS: %w", err)
	}
	cfg.SaltRounds = n

	return cfg, nil
}
