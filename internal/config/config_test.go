package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "Lax", cfg.Session.CookieSameSite)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Order.FreeShippingThreshold.Equal(decimal.NewFromInt(30000)))
	assert.True(t, cfg.Order.ShippingFee.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "KY", cfg.Order.OrderNoPrefix)
	assert.Equal(t, 5, cfg.Order.OrderNoMaxAttempts)
	assert.False(t, cfg.Order.StrictTransitions)
}

func TestLoadProductionCookiePolicy(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://www.shop.example ,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("COOKIE_SAMESITE", "none")
	t.Setenv("SESSION_SECRET", "a-long-production-secret")
	t.Setenv("SHIPPING_FEE", "2500")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example", "https://www.shop.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "None", cfg.Session.CookieSameSite)
	assert.True(t, cfg.Session.CookieSecure)
	assert.True(t, cfg.Order.ShippingFee.Equal(decimal.NewFromInt(2500)))
	assert.True(t, cfg.Order.StrictTransitions)
}

func TestLoadRejectsInsecureSameSiteNone(t *testing.T) {
	t.Setenv("COOKIE_SAMESITE", "None")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecretForSecureCookies(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	t.Setenv("SESSION_SECRET", "dev-secret-change-me")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "rotated-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "rotated-secret", cfg.Session.Secret)
}

func TestLoadRejectsWildcardCORSOrigin(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "*")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ORIGINS")

	t.Setenv("CORS_ORIGINS", "https://shop.example,*")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSameSite(t *testing.T) {
	t.Setenv("COOKIE_SAMESITE", "sometimes")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "many")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "-5")
	t.Setenv("SESSION_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Order.FreeShippingThreshold.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
}
