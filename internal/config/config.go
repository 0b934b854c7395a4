package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	Database       DatabaseConfig
	RedisAddr      string
	JWTSecret      string
	JWTTTL         time.Duration
	TaxRate        float64
	OrderRateLimit int
	MenuCacheTTL   time.Duration
	AutoMigrate    bool
	AMQPURL        string
	Telegram       TelegramConfig
	Lint           LintConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type LintConfig struct {
	Dir     string
	BinDir  string
	Command string
}

// Load reads an optional .env file from the working directory and then builds
// the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return NewConfig()
}

func NewConfig() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:8000"),
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     p.int("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "food_orders"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(p.int("DB_MAX_CONNS", 10)),
		},
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         p.duration("JWT_TTL", 12*time.Hour),
		TaxRate:        p.float("TAX_RATE", 0.08),
		OrderRateLimit: p.int("ORDER_RATE_LIMIT", 10),
		MenuCacheTTL:   p.duration("MENU_CACHE_TTL", 30*time.Second),
		AutoMigrate:    p.bool("AUTO_MIGRATE", false),
		AMQPURL:        getEnv("AMQP_URL", ""),
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_TOKEN", ""),
			ChatID: int64(p.int("TELEGRAM_CHAT_ID", 0)),
		},
		Lint: LintConfig{
			Dir:     getEnv("LINT_DIR", "."),
			BinDir:  getEnv("LINT_BIN", "bin"),
			Command: getEnv("LINT_CMD", "go vet ./..."),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("TAX_RATE must be in [0, 1), got %v", cfg.TaxRate)
	}
	return cfg, nil
}

// DatabaseURL returns DATABASE_URL when set, otherwise a URL assembled from DB_* variables.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// parser keeps the first conversion error so NewConfig can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

func (p *parser) bool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	p.fail(key, fmt.Errorf("invalid boolean %q", v))
	return fallback
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config %s: %w", key, err)
	}
}
