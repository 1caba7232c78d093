package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("SHOP_HTTP_ADDR", ":8181")
	t.Setenv("SHOP_JWT_SECRET", "from-env")
	t.Setenv("SHOP_KEY_POLICY", "ephemeral")
	t.Setenv("SHOP_TOKEN_TTL", "45m")
	t.Setenv("SHOP_BCRYPT_COST", "11")
	t.Setenv("SHOP_PUBLIC_PATHS", "/api/auth, /api/products")
	t.Setenv("SHOP_LOG_FORMAT", "text")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":8181", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, "ephemeral", cfg.KeyPolicy)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 11, cfg.BcryptCost)
	assert.Equal(t, []string{"/api/auth", "/api/products"}, cfg.PublicPaths)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":50051", cfg.GRPCAddr, "unset variables keep defaults")
}

func TestParseEnv_BadDurationPanics(t *testing.T) {
	t.Setenv("SHOP_TOKEN_TTL", "forever")
	require.Panics(t, func() { parseEnv(&Config{}) })
}

func TestParseEnv_BadIntPanics(t *testing.T) {
	t.Setenv("SHOP_BCRYPT_COST", "ten")
	require.Panics(t, func() { parseEnv(&Config{}) })
}
