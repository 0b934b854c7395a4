package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HTTP_ADDR", "0.0.0.0:8000")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr)
	require.Equal(t, 0.08, cfg.TaxRate)
	require.Equal(t, 12*time.Hour, cfg.JWTTTL)
	require.Equal(t, 10, cfg.OrderRateLimit)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("MENU_CACHE_TTL", "1m")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, 0.1, cfg.TaxRate)
	require.Equal(t, time.Minute, cfg.MenuCacheTTL)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, int64(-100123), cfg.Telegram.ChatID)
}

func TestNewConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_PORT", "five"},
		{"JWT_TTL", "soon"},
		{"AUTO_MIGRATE", "maybe"},
		{"TAX_RATE", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := NewConfig()
			require.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "p@ss", Name: "orders", SSLMode: "disable",
	}}
	require.Equal(t, "postgres://app:p%40ss@db:5433/orders?sslmode=disable", cfg.DatabaseURL())

	cfg.Database.URL = "postgres://override"
	require.Equal(t, "postgres://override", cfg.DatabaseURL())
}
